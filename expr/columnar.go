package expr

import (
	"fmt"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/vector"
)

// IsVectorizable returns nil if e can be evaluated by EvalColumnar over
// batches described by schema, or an error giving the reason it cannot.
// Only single-segment fields of a primitive schema kind are supported.
func IsVectorizable(e Expr, schema *arbor.Schema) error {
	if schema == nil {
		return fmt.Errorf("no schema")
	}
	return vectorizable(e, schema)
}

func vectorizable(e Expr, schema *arbor.Schema) error {
	switch e := e.(type) {
	case *Literal:
		if e.Value.Kind() == arbor.KindArray || e.Value.Kind() == arbor.KindObject {
			return fmt.Errorf("literal %s is not a scalar", e)
		}
		return nil
	case *Field:
		if len(e.Path) != 1 {
			return fmt.Errorf("path %s is not a top-level field", e.Path)
		}
		sf, ok := schema.Lookup(e.Path[0])
		if !ok {
			return fmt.Errorf("field %s is not in the schema", e.Path)
		}
		if !sf.Kind.IsPrimitive() {
			return fmt.Errorf("field %s has non-primitive kind %s", e.Path, sf.Kind)
		}
		return nil
	case *Binary:
		switch e.Op {
		case "==", "!=", "<", "<=", ">", ">=", "+", "-", "*", "/", "%", "and", "or":
		default:
			return fmt.Errorf("unknown operator %q", e.Op)
		}
		if err := vectorizable(e.LHS, schema); err != nil {
			return err
		}
		return vectorizable(e.RHS, schema)
	case *Unary:
		if e.Op != "!" && e.Op != "-" {
			return fmt.Errorf("unknown operator %q", e.Op)
		}
		return vectorizable(e.Operand, schema)
	case *Call:
		if _, err := lookupFunction(e.Name, len(e.Args)); err != nil {
			return err
		}
		for _, a := range e.Args {
			if err := vectorizable(a, schema); err != nil {
				return err
			}
		}
		return nil
	case *Named:
		return vectorizable(e.Expr, schema)
	case *PassBoth:
		if err := vectorizable(e.First, schema); err != nil {
			return err
		}
		return vectorizable(e.Second, schema)
	}
	return fmt.Errorf("%s is not vectorizable", e)
}

// EvalColumnar evaluates e over the slots of batch selected by sel.  Each
// selected slot of the result equals Eval of e on the corresponding
// document.  Unselected slots are Null.  Logical operators evaluate their
// right operand only on the slots the left operand does not decide, so
// errors arise from exactly the slots per-document evaluation would visit.
func EvalColumnar(e Expr, batch *vector.Batch, sel vector.Mask) (*vector.Column, error) {
	switch e := e.(type) {
	case *Literal:
		return vector.Const(e.Value, batch.Len()), nil
	case *Field:
		if len(e.Path) != 1 {
			return nil, arbor.E(arbor.InvalidOperation, "path %s is not vectorizable", e.Path)
		}
		return batch.Column(e.Path[0]).Retain(), nil
	case *Binary:
		if e.Op == "and" || e.Op == "or" {
			return evalLogicColumnar(e, batch, sel)
		}
		lhs, err := EvalColumnar(e.LHS, batch, sel)
		if err != nil {
			return nil, err
		}
		rhs, err := EvalColumnar(e.RHS, batch, sel)
		if err != nil {
			return nil, err
		}
		return binaryColumnar(e.Op, lhs, rhs, sel)
	case *Unary:
		operand, err := EvalColumnar(e.Operand, batch, sel)
		if err != nil {
			return nil, err
		}
		return unaryColumnar(e.Op, operand, sel)
	case *Call:
		fn, err := lookupFunction(e.Name, len(e.Args))
		if err != nil {
			return nil, err
		}
		args := make([]*vector.Column, len(e.Args))
		for k, a := range e.Args {
			if args[k], err = EvalColumnar(a, batch, sel); err != nil {
				return nil, err
			}
		}
		return callColumnar(fn, args, sel)
	case *Named:
		return EvalColumnar(e.Expr, batch, sel)
	case *PassBoth:
		first, err := EvalColumnarPredicate(e.First, batch, sel)
		if err != nil {
			return nil, err
		}
		second, err := EvalColumnarPredicate(e.Second, batch, first)
		if err != nil {
			return nil, err
		}
		b := vector.NewBuilder(arbor.KindBool, batch.Len())
		for i := 0; i < batch.Len(); i++ {
			if sel.Has(i) {
				b.AppendBool(second.Has(i))
			} else {
				b.AppendNull()
			}
		}
		return b.Build(), nil
	}
	return nil, arbor.E(arbor.InvalidOperation, "%s is not vectorizable", e)
}

// EvalColumnarPredicate returns the selected slots for which e passes as a
// filter predicate.
func EvalColumnarPredicate(e Expr, batch *vector.Batch, sel vector.Mask) (vector.Mask, error) {
	c, err := EvalColumnar(e, batch, sel)
	if err != nil {
		return vector.Mask{}, err
	}
	defer c.Release()
	out := vector.NewMask(batch.Len())
	if c.Kind() == arbor.KindBool && !c.IsBoxed() {
		for _, i := range sel.Indices() {
			if !c.IsAbsent(i) && c.Bool(i) {
				out.Set(i)
			}
		}
		return out, nil
	}
	for _, i := range sel.Indices() {
		ok, err := predicate(c.Value(i))
		if err != nil {
			return vector.Mask{}, err
		}
		if ok {
			out.Set(i)
		}
	}
	return out, nil
}

// truthMasks splits the selected slots of c into true and unknown slots.
// The remaining selected slots are false.
func truthMasks(c *vector.Column, sel vector.Mask) (vector.Mask, vector.Mask, error) {
	trues, nulls := vector.NewMask(c.Len()), vector.NewMask(c.Len())
	for _, i := range sel.Indices() {
		t, err := truth(c.Value(i))
		if err != nil {
			return trues, nulls, err
		}
		switch t {
		case triTrue:
			trues.Set(i)
		case triNull:
			nulls.Set(i)
		}
	}
	return trues, nulls, nil
}

func triAt(trues, nulls vector.Mask, i int) tri {
	switch {
	case trues.Has(i):
		return triTrue
	case nulls.Has(i):
		return triNull
	}
	return triFalse
}

func evalLogicColumnar(e *Binary, batch *vector.Batch, sel vector.Mask) (*vector.Column, error) {
	lhs, err := EvalColumnar(e.LHS, batch, sel)
	if err != nil {
		return nil, err
	}
	ltrue, lnull, err := truthMasks(lhs, sel)
	lhs.Release()
	if err != nil {
		return nil, err
	}
	// The right operand is needed wherever the left is not decisive.
	rsel := ltrue.Or(lnull)
	if e.Op == "or" {
		rsel = sel.AndNot(ltrue)
	}
	rhs, err := EvalColumnar(e.RHS, batch, rsel)
	if err != nil {
		return nil, err
	}
	rtrue, rnull, err := truthMasks(rhs, rsel)
	rhs.Release()
	if err != nil {
		return nil, err
	}
	b := vector.NewBuilder(arbor.KindBool, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		if !sel.Has(i) {
			b.AppendNull()
			continue
		}
		l := triAt(ltrue, lnull, i)
		t := l
		if rsel.Has(i) {
			t = logic(e.Op, l, triAt(rtrue, rnull, i))
		}
		appendTri(b, t)
	}
	return b.Build(), nil
}

func appendTri(b *vector.Builder, t tri) {
	switch t {
	case triTrue:
		b.AppendBool(true)
	case triFalse:
		b.AppendBool(false)
	default:
		b.AppendNull()
	}
}

func isTypedNumber(c *vector.Column) bool {
	return !c.IsBoxed() && (c.Kind() == arbor.KindInt || c.Kind() == arbor.KindFloat)
}

func floatAt(c *vector.Column, i int) float64 {
	if c.Kind() == arbor.KindInt {
		return float64(c.Int(i))
	}
	return c.Float(i)
}

func binaryColumnar(op string, lhs, rhs *vector.Column, sel vector.Mask) (*vector.Column, error) {
	defer lhs.Release()
	defer rhs.Release()
	n := lhs.Len()
	if isTypedNumber(lhs) && isTypedNumber(rhs) && !(op == "%" && (lhs.Kind() != arbor.KindInt || rhs.Kind() != arbor.KindInt)) {
		return numericColumnar(op, lhs, rhs, sel), nil
	}
	b := vector.NewBuilder(arbor.KindMixed, n)
	for i := 0; i < n; i++ {
		if !sel.Has(i) {
			b.AppendNull()
			continue
		}
		v, err := binary(op, lhs.Value(i), rhs.Value(i))
		if err != nil {
			return nil, err
		}
		b.Append(v)
	}
	return b.Build(), nil
}

// numericColumnar runs op over two typed numeric columns with the same
// scalar helpers the per-document evaluator uses.
func numericColumnar(op string, lhs, rhs *vector.Column, sel vector.Mask) *vector.Column {
	n := lhs.Len()
	ints := lhs.Kind() == arbor.KindInt && rhs.Kind() == arbor.KindInt
	kind := arbor.KindFloat
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		kind = arbor.KindBool
	case "+", "-", "*", "%":
		if ints {
			kind = arbor.KindInt
		}
	}
	b := vector.NewBuilder(kind, n)
	for i := 0; i < n; i++ {
		if !sel.Has(i) || lhs.IsAbsent(i) || rhs.IsAbsent(i) {
			b.AppendNull()
			continue
		}
		switch op {
		case "==", "!=", "<", "<=", ">", ">=":
			var cmp int
			if ints {
				cmp = arbor.CompareInts(lhs.Int(i), rhs.Int(i))
			} else {
				cmp = arbor.CompareFloats(floatAt(lhs, i), floatAt(rhs, i))
			}
			switch op {
			case "==":
				b.AppendBool(cmp == 0)
			case "!=":
				b.AppendBool(cmp != 0)
			default:
				b.AppendBool(ordered(op, cmp))
			}
		case "/":
			b.AppendFloat(divFloats(floatAt(lhs, i), floatAt(rhs, i)))
		default:
			if ints {
				if v, ok := arithInts(op, lhs.Int(i), rhs.Int(i)); ok {
					b.AppendInt(v)
				} else {
					b.AppendNull()
				}
			} else {
				b.AppendFloat(arithFloats(op, floatAt(lhs, i), floatAt(rhs, i)))
			}
		}
	}
	return b.Build()
}

func unaryColumnar(op string, operand *vector.Column, sel vector.Mask) (*vector.Column, error) {
	defer operand.Release()
	n := operand.Len()
	if op == "-" && isTypedNumber(operand) {
		b := vector.NewBuilder(operand.Kind(), n)
		for i := 0; i < n; i++ {
			switch {
			case !sel.Has(i) || operand.IsAbsent(i):
				b.AppendNull()
			case operand.Kind() == arbor.KindInt:
				b.AppendInt(-operand.Int(i))
			default:
				b.AppendFloat(-operand.Float(i))
			}
		}
		return b.Build(), nil
	}
	kind := arbor.KindMixed
	if op == "!" {
		kind = arbor.KindBool
	}
	b := vector.NewBuilder(kind, n)
	for i := 0; i < n; i++ {
		if !sel.Has(i) {
			b.AppendNull()
			continue
		}
		v, err := unary(op, operand.Value(i))
		if err != nil {
			return nil, err
		}
		b.Append(v)
	}
	return b.Build(), nil
}

func callColumnar(fn *function, args []*vector.Column, sel vector.Mask) (*vector.Column, error) {
	defer func() {
		for _, a := range args {
			a.Release()
		}
	}()
	n := sel.Len()
	b := vector.NewBuilder(arbor.KindMixed, n)
	vals := make([]arbor.Value, len(args))
	for i := 0; i < n; i++ {
		if !sel.Has(i) {
			b.AppendNull()
			continue
		}
		for k, a := range args {
			vals[k] = a.Value(i)
		}
		v, err := fn.call(vals)
		if err != nil {
			return nil, err
		}
		b.Append(v)
	}
	return b.Build(), nil
}
