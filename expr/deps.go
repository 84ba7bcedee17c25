package expr

import (
	"sort"
	"strings"
)

// Deps is the set of top-level document fields an expression reads.  The
// all-fields set is a sentinel for expressions whose reads are unknown.
type Deps struct {
	all   bool
	names map[string]struct{}
}

// AllFields is the sentinel dependency set.
var AllFields = Deps{all: true}

func (d Deps) IsAll() bool {
	return d.all
}

func (d Deps) Has(name string) bool {
	if d.all {
		return true
	}
	_, ok := d.names[name]
	return ok
}

// Names returns the field names in sorted order.  It is nil for AllFields.
func (d Deps) Names() []string {
	if d.all {
		return nil
	}
	names := make([]string, 0, len(d.names))
	for name := range d.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d Deps) String() string {
	if d.all {
		return "*"
	}
	return strings.Join(d.Names(), ",")
}

func (d Deps) union(o Deps) Deps {
	if d.all || o.all {
		return AllFields
	}
	out := Deps{names: make(map[string]struct{}, len(d.names)+len(o.names))}
	for name := range d.names {
		out.names[name] = struct{}{}
	}
	for name := range o.names {
		out.names[name] = struct{}{}
	}
	return out
}

// DepsOf computes the fields e reads.  An expression type it does not
// recognize depends on all fields.
func DepsOf(e Expr) Deps {
	switch e := e.(type) {
	case nil:
		return Deps{}
	case *Literal:
		return Deps{}
	case *Field:
		if len(e.Path) == 0 {
			return AllFields
		}
		return Deps{names: map[string]struct{}{e.Path[0]: {}}}
	case *Binary:
		return DepsOf(e.LHS).union(DepsOf(e.RHS))
	case *Unary:
		return DepsOf(e.Operand)
	case *Call:
		d := Deps{}
		for _, a := range e.Args {
			d = d.union(DepsOf(a))
		}
		return d
	case *Agg:
		return DepsOf(e.Arg)
	case *Named:
		return DepsOf(e.Expr)
	case *PassBoth:
		return DepsOf(e.First).union(DepsOf(e.Second))
	}
	return AllFields
}
