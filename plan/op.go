package plan

import (
	"fmt"
	"strings"

	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/order"
	"github.com/brimdata/arbor/source"
)

type Op interface {
	OpNode()
	String() string
}

// Assignment binds an output field name to an expression.
type Assignment struct {
	Name string
	Expr expr.Expr
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s:=%s", a.Name, a.Expr)
}

type JoinType int

const (
	Inner JoinType = iota
	Left
	Right
	Full
)

func (j JoinType) String() string {
	switch j {
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Right:
		return "right"
	case Full:
		return "full"
	}
	return fmt.Sprintf("join(%d)", int(j))
}

func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToLower(s) {
	case "inner", "":
		return Inner, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "full", "outer":
		return Full, nil
	}
	return Inner, fmt.Errorf("unknown join type: %q", s)
}

type (
	Source struct {
		Source source.Source
	}
	Filter struct {
		Pred expr.Expr
	}
	// Select replaces each tree with an object holding one field per
	// expression, named by expr.OutputName.
	Select struct {
		Exprs []expr.Expr
	}
	// AddField sets fields of each tree.  Every expression reads the
	// input tree.
	AddField struct {
		Fields []Assignment
	}
	// Aggregate reduces the trees to one tree per distinct key tuple, or
	// to a single tree when there are no keys.
	Aggregate struct {
		Keys []Assignment
		Aggs []Assignment
	}
	Head struct {
		N int
	}
	Tail struct {
		N int
	}
	Sort struct {
		Keys order.SortKeys
	}
	// Explode replaces each tree whose value at Path is an array with one
	// tree per element, each holding the element at Path.
	Explode struct {
		Path field.Path
	}
	Join struct {
		Right   source.Source
		LeftOn  []expr.Expr
		RightOn []expr.Expr
		Type    JoinType
	}
)

func (*Source) OpNode()    {}
func (*Filter) OpNode()    {}
func (*Select) OpNode()    {}
func (*AddField) OpNode()  {}
func (*Aggregate) OpNode() {}
func (*Head) OpNode()      {}
func (*Tail) OpNode()      {}
func (*Sort) OpNode()      {}
func (*Explode) OpNode()   {}
func (*Join) OpNode()      {}

func (s *Source) String() string {
	return "Source " + s.Source.String()
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter %s", f.Pred)
}

func (s *Select) String() string {
	return "Select " + joinExprs(s.Exprs)
}

func (a *AddField) String() string {
	return "AddField " + joinAssignments(a.Fields)
}

func (a *Aggregate) String() string {
	s := "Aggregate " + joinAssignments(a.Aggs)
	if len(a.Keys) > 0 {
		s += " by " + joinAssignments(a.Keys)
	}
	return s
}

func (h *Head) String() string {
	return fmt.Sprintf("Head %d", h.N)
}

func (t *Tail) String() string {
	return fmt.Sprintf("Tail %d", t.N)
}

func (s *Sort) String() string {
	return "Sort " + s.Keys.String()
}

func (e *Explode) String() string {
	return "Explode " + e.Path.String()
}

func (j *Join) String() string {
	return fmt.Sprintf("Join %s %s on %s = %s", j.Type, j.Right, joinExprs(j.LeftOn), joinExprs(j.RightOn))
}

func joinExprs(exprs []expr.Expr) string {
	var out []string
	for _, e := range exprs {
		out = append(out, e.String())
	}
	return strings.Join(out, ",")
}

func joinAssignments(as []Assignment) string {
	var out []string
	for _, a := range as {
		out = append(out, a.String())
	}
	return strings.Join(out, ",")
}

// Context says whether an operation looks at one tree at a time or at
// the whole forest.
type Context int

const (
	PerTree Context = iota
	Global
)

func (c Context) String() string {
	if c == PerTree {
		return "per-tree"
	}
	return "global"
}

// ContextOf infers an operation's context from its kind.
func ContextOf(op Op) Context {
	switch op.(type) {
	case *Filter, *Select, *AddField, *Explode:
		return PerTree
	}
	return Global
}
