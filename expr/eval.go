package expr

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/field"
)

func (l *Literal) Eval(arbor.Value) (arbor.Value, error) {
	return l.Value, nil
}

func (f *Field) Eval(this arbor.Value) (arbor.Value, error) {
	return walk(this, f.Path), nil
}

// walk follows path from v, fanning out over array elements met before
// the end of the path.
func walk(v arbor.Value, path field.Path) arbor.Value {
	for k, name := range path {
		switch v.Kind() {
		case arbor.KindObject:
			v = v.Get(name)
		case arbor.KindArray:
			var out []arbor.Value
			for _, elem := range v.Array() {
				r := walk(elem, path[k:])
				if r.IsVector() {
					out = append(out, r.Array()...)
				} else {
					out = append(out, r)
				}
			}
			return arbor.NewVector(out)
		default:
			return arbor.Missing
		}
	}
	return v
}

func (*This) Eval(this arbor.Value) (arbor.Value, error) {
	return this, nil
}

func (b *Binary) Eval(this arbor.Value) (arbor.Value, error) {
	switch b.Op {
	case "and", "or":
		return b.evalLogic(this)
	}
	lhs, err := b.LHS.Eval(this)
	if err != nil {
		return arbor.Value{}, err
	}
	rhs, err := b.RHS.Eval(this)
	if err != nil {
		return arbor.Value{}, err
	}
	return binary(b.Op, lhs, rhs)
}

func (b *Binary) evalLogic(this arbor.Value) (arbor.Value, error) {
	lhs, err := b.LHS.Eval(this)
	if err != nil {
		return arbor.Value{}, err
	}
	l, err := truth(lhs)
	if err != nil {
		return arbor.Value{}, err
	}
	if l == decisive(b.Op) {
		return l.value(), nil
	}
	rhs, err := b.RHS.Eval(this)
	if err != nil {
		return arbor.Value{}, err
	}
	r, err := truth(rhs)
	if err != nil {
		return arbor.Value{}, err
	}
	return logic(b.Op, l, r).value(), nil
}

// tri is a three-valued truth value.
type tri uint8

const (
	triFalse tri = iota
	triTrue
	triNull
)

func (t tri) value() arbor.Value {
	switch t {
	case triFalse:
		return arbor.False
	case triTrue:
		return arbor.True
	}
	return arbor.Null
}

// truth converts an operand of a logical operator.  Null and Missing are
// unknown.
func truth(v arbor.Value) (tri, error) {
	switch {
	case v.IsVector():
		return triNull, arbor.E(arbor.Cardinality, "logical operand is a list: %s", v)
	case v.IsAbsent():
		return triNull, nil
	case v.Kind() == arbor.KindBool:
		if v.Bool() {
			return triTrue, nil
		}
		return triFalse, nil
	}
	return triNull, arbor.E(arbor.TypeMismatch, "logical operand is not a bool: %s", v)
}

// decisive is the left operand value that determines the result of op
// without evaluating the right operand.
func decisive(op string) tri {
	if op == "and" {
		return triFalse
	}
	return triTrue
}

func logic(op string, l, r tri) tri {
	d := decisive(op)
	switch {
	case l == d || r == d:
		return d
	case l == triNull || r == triNull:
		return triNull
	}
	return l
}

func binary(op string, lhs, rhs arbor.Value) (arbor.Value, error) {
	switch op {
	case "==", "!=":
		if lhs.IsAbsent() || rhs.IsAbsent() {
			return arbor.Null, nil
		}
		eq := compare(lhs, rhs) == 0
		return arbor.NewBool(eq == (op == "==")), nil
	case "<", "<=", ">", ">=":
		if lhs.IsVector() || rhs.IsVector() {
			return arbor.Value{}, arbor.E(arbor.Cardinality, "comparison operand is a list")
		}
		if lhs.IsAbsent() || rhs.IsAbsent() {
			return arbor.Null, nil
		}
		return arbor.NewBool(ordered(op, compare(lhs, rhs))), nil
	case "+", "-", "*", "/", "%":
		return arith(op, lhs, rhs)
	}
	return arbor.Value{}, arbor.E(arbor.InvalidOperation, "unknown binary operator %q", op)
}

// compare orders numbers numerically and other values by the total order.
func compare(a, b arbor.Value) int {
	switch {
	case a.Kind() == arbor.KindInt && b.Kind() == arbor.KindInt:
		return arbor.CompareInts(a.Int(), b.Int())
	case a.IsNumber() && b.IsNumber():
		return arbor.CompareFloats(a.AsFloat(), b.AsFloat())
	}
	return arbor.Compare(a, b)
}

func ordered(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	panic("expr: not an ordering operator: " + op)
}

func arith(op string, lhs, rhs arbor.Value) (arbor.Value, error) {
	if lhs.IsVector() || rhs.IsVector() {
		return arbor.Value{}, arbor.E(arbor.Cardinality, "arithmetic operand is a list")
	}
	if lhs.IsAbsent() || rhs.IsAbsent() {
		return arbor.Null, nil
	}
	if !lhs.IsNumber() || !rhs.IsNumber() {
		return arbor.Value{}, arbor.E(arbor.TypeMismatch, "%s %s %s: operands must be numbers", lhs, op, rhs)
	}
	if op == "/" {
		return arbor.NewFloat(divFloats(lhs.AsFloat(), rhs.AsFloat())), nil
	}
	if lhs.Kind() == arbor.KindInt && rhs.Kind() == arbor.KindInt {
		i, ok := arithInts(op, lhs.Int(), rhs.Int())
		if !ok {
			return arbor.Null, nil
		}
		return arbor.NewInt(i), nil
	}
	if op == "%" {
		return arbor.Value{}, arbor.E(arbor.TypeMismatch, "%s %% %s: operands must be ints", lhs, rhs)
	}
	return arbor.NewFloat(arithFloats(op, lhs.AsFloat(), rhs.AsFloat())), nil
}

// arithInts wraps on overflow.  It returns false for a zero modulus.
func arithInts(op string, a, b int64) (int64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "%":
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}
	panic("expr: not an int operator: " + op)
}

func arithFloats(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	}
	panic("expr: not a float operator: " + op)
}

func divFloats(a, b float64) float64 {
	return a / b
}

func (u *Unary) Eval(this arbor.Value) (arbor.Value, error) {
	v, err := u.Operand.Eval(this)
	if err != nil {
		return arbor.Value{}, err
	}
	return unary(u.Op, v)
}

func unary(op string, v arbor.Value) (arbor.Value, error) {
	switch op {
	case "!":
		t, err := truth(v)
		if err != nil {
			return arbor.Value{}, err
		}
		switch t {
		case triTrue:
			return arbor.False, nil
		case triFalse:
			return arbor.True, nil
		}
		return arbor.Null, nil
	case "-":
		switch {
		case v.IsVector():
			return arbor.Value{}, arbor.E(arbor.Cardinality, "negation of a list")
		case v.IsAbsent():
			return arbor.Null, nil
		case v.Kind() == arbor.KindInt:
			return arbor.NewInt(-v.Int()), nil
		case v.Kind() == arbor.KindFloat:
			return arbor.NewFloat(-v.Float()), nil
		}
		return arbor.Value{}, arbor.E(arbor.TypeMismatch, "cannot negate %s", v)
	}
	return arbor.Value{}, arbor.E(arbor.InvalidOperation, "unknown unary operator %q", op)
}

func (c *Call) Eval(this arbor.Value) (arbor.Value, error) {
	fn, err := lookupFunction(c.Name, len(c.Args))
	if err != nil {
		return arbor.Value{}, err
	}
	args := make([]arbor.Value, len(c.Args))
	for k, a := range c.Args {
		if args[k], err = a.Eval(this); err != nil {
			return arbor.Value{}, err
		}
	}
	return fn.call(args)
}

func (a *Agg) Eval(arbor.Value) (arbor.Value, error) {
	return arbor.Value{}, arbor.E(arbor.InvalidOperation, "aggregate %s used outside of an aggregation", a)
}

func (n *Named) Eval(this arbor.Value) (arbor.Value, error) {
	return n.Expr.Eval(this)
}

func (p *PassBoth) Eval(this arbor.Value) (arbor.Value, error) {
	ok, err := EvalPredicate(p.First, this)
	if err != nil || !ok {
		return arbor.False, err
	}
	ok, err = EvalPredicate(p.Second, this)
	return arbor.NewBool(ok), err
}

// Eval evaluates e against a document.
func Eval(e Expr, this arbor.Value) (arbor.Value, error) {
	return e.Eval(this)
}

// EvalPredicate evaluates e as a filter predicate.  Null and Missing do not
// pass.  A list result is a Cardinality error and any other non-bool
// result is a TypeMismatch.
func EvalPredicate(e Expr, this arbor.Value) (bool, error) {
	v, err := e.Eval(this)
	if err != nil {
		return false, err
	}
	return predicate(v)
}

func predicate(v arbor.Value) (bool, error) {
	switch {
	case v.IsVector():
		return false, arbor.E(arbor.Cardinality, "predicate produced a list: %s", v)
	case v.IsAbsent():
		return false, nil
	case v.Kind() == arbor.KindBool:
		return v.Bool(), nil
	}
	return false, arbor.E(arbor.TypeMismatch, "predicate produced a non-bool value: %s", v)
}
