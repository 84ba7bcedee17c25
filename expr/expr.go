// Package expr implements the expression trees evaluated by the executor
// against single documents and, for a vectorizable subset, against
// columnar batches.
//
// Expressions are immutable once built.  Plan rewrites move whole
// expressions between plan nodes but never edit them.
package expr

import (
	"fmt"
	"strings"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/field"
)

type Expr interface {
	Eval(this arbor.Value) (arbor.Value, error)
	String() string
}

var (
	_ Expr = (*Literal)(nil)
	_ Expr = (*Field)(nil)
	_ Expr = (*This)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*Unary)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*Agg)(nil)
	_ Expr = (*Named)(nil)
	_ Expr = (*PassBoth)(nil)
)

type Literal struct {
	Value arbor.Value
}

// Field reads a path from the document.  A path that runs through an
// array continues into each element and yields a vector of the results.
type Field struct {
	Path field.Path
}

// This is the whole document.
type This struct{}

type Binary struct {
	Op  string
	LHS Expr
	RHS Expr
}

type Unary struct {
	Op      string
	Operand Expr
}

type Call struct {
	Name string
	Args []Expr
}

// Agg is an aggregate function call.  It is only meaningful in an
// aggregation and fails if evaluated against a single document.
type Agg struct {
	Name string
	Arg  Expr
}

// Named attaches an output field name to an expression.
type Named struct {
	Name string
	Expr Expr
}

// PassBoth is the conjunction of two predicates that evaluates Second only
// for documents that pass First.  It is the result of fusing two adjacent
// filters.
type PassBoth struct {
	First  Expr
	Second Expr
}

func Lit(v arbor.Value) *Literal { return &Literal{Value: v} }
func Int(i int64) *Literal       { return Lit(arbor.NewInt(i)) }
func Float(f float64) *Literal   { return Lit(arbor.NewFloat(f)) }
func String(s string) *Literal   { return Lit(arbor.NewString(s)) }
func Bool(b bool) *Literal       { return Lit(arbor.NewBool(b)) }
func Null() *Literal             { return Lit(arbor.Null) }

// Path returns a Field expression for a dotted path.
func Path(dotted string) *Field {
	return &Field{Path: field.Dotted(dotted)}
}

func Eq(l, r Expr) *Binary  { return &Binary{"==", l, r} }
func Ne(l, r Expr) *Binary  { return &Binary{"!=", l, r} }
func Lt(l, r Expr) *Binary  { return &Binary{"<", l, r} }
func Le(l, r Expr) *Binary  { return &Binary{"<=", l, r} }
func Gt(l, r Expr) *Binary  { return &Binary{">", l, r} }
func Ge(l, r Expr) *Binary  { return &Binary{">=", l, r} }
func Add(l, r Expr) *Binary { return &Binary{"+", l, r} }
func Sub(l, r Expr) *Binary { return &Binary{"-", l, r} }
func Mul(l, r Expr) *Binary { return &Binary{"*", l, r} }
func Div(l, r Expr) *Binary { return &Binary{"/", l, r} }
func Mod(l, r Expr) *Binary { return &Binary{"%", l, r} }
func And(l, r Expr) *Binary { return &Binary{"and", l, r} }
func Or(l, r Expr) *Binary  { return &Binary{"or", l, r} }
func Not(e Expr) *Unary     { return &Unary{"!", e} }
func Neg(e Expr) *Unary     { return &Unary{"-", e} }

func Func(name string, args ...Expr) *Call {
	return &Call{Name: name, Args: args}
}

func As(name string, e Expr) *Named {
	return &Named{Name: name, Expr: e}
}

func Sum(e Expr) *Agg   { return &Agg{"sum", e} }
func Count(e Expr) *Agg { return &Agg{"count", e} }
func Mean(e Expr) *Agg  { return &Agg{"mean", e} }
func Min(e Expr) *Agg   { return &Agg{"min", e} }
func Max(e Expr) *Agg   { return &Agg{"max", e} }
func Any(e Expr) *Agg   { return &Agg{"any", e} }
func All(e Expr) *Agg   { return &Agg{"all", e} }
func First(e Expr) *Agg { return &Agg{"first", e} }
func Last(e Expr) *Agg  { return &Agg{"last", e} }

func (l *Literal) String() string {
	return l.Value.String()
}

func (f *Field) String() string {
	return f.Path.String()
}

func (*This) String() string {
	return "this"
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.LHS, b.Op, b.RHS)
}

func (u *Unary) String() string {
	return u.Op + u.Operand.String()
}

func (c *Call) String() string {
	args := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ","))
}

func (a *Agg) String() string {
	if a.Arg == nil {
		return a.Name + "()"
	}
	return fmt.Sprintf("%s(%s)", a.Name, a.Arg)
}

func (n *Named) String() string {
	return fmt.Sprintf("%s:=%s", n.Name, n.Expr)
}

func (p *PassBoth) String() string {
	return fmt.Sprintf("(%s && %s)", p.First, p.Second)
}

// OutputName is the field name under which a projected expression appears
// in its output object.
func OutputName(e Expr) string {
	switch e := e.(type) {
	case *Named:
		return e.Name
	case *Field:
		if len(e.Path) > 0 {
			return e.Path.Leaf()
		}
	case *Agg:
		return e.Name
	}
	return e.String()
}
