package optimizer

import (
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/plan"
)

// FilterFusion merges two adjacent filters into one whose predicate
// evaluates the downstream predicate only for trees that pass the upstream
// one.
type FilterFusion struct{}

func (*FilterFusion) Name() string {
	return "filter-fusion"
}

func (*FilterFusion) Apply(p *plan.Plan) bool {
	pairs := p.FindAdjacentPairs(func(up, down *plan.Node) bool {
		_, ok1 := up.Op.(*plan.Filter)
		_, ok2 := down.Op.(*plan.Filter)
		return ok1 && ok2 && len(p.Consumers(up.ID)) == 1
	})
	if len(pairs) == 0 {
		return false
	}
	up, _ := p.Node(pairs[0][0])
	down, _ := p.Node(pairs[0][1])
	fused := &plan.Filter{Pred: &expr.PassBoth{
		First:  up.Op.(*plan.Filter).Pred,
		Second: down.Op.(*plan.Filter).Pred,
	}}
	if err := p.Remove(down.ID); err != nil {
		return false
	}
	if err := p.Replace(up.ID, fused); err != nil {
		panic(err)
	}
	return true
}

// PredicatePushdown moves a filter ahead of its upstream neighbor when that
// cannot change the result.  Every field the predicate reads must be in
// the source schema, so a source with no schema blocks pushdown.  A filter
// moves past
//
//	Select    when the select passes each of those fields through as is
//	AddField  when it assigns none of those fields
//	Sort      always
//
// and never past any other operation.
type PredicatePushdown struct{}

func (*PredicatePushdown) Name() string {
	return "predicate-pushdown"
}

func (*PredicatePushdown) Apply(p *plan.Plan) bool {
	schema := p.Source().Schema()
	if schema == nil {
		return false
	}
	pairs := p.FindAdjacentPairs(func(up, down *plan.Node) bool {
		filter, ok := down.Op.(*plan.Filter)
		if !ok {
			return false
		}
		deps := expr.DepsOf(filter.Pred)
		if deps.IsAll() {
			return false
		}
		names := deps.Names()
		for _, name := range names {
			if !schema.Has(name) {
				return false
			}
		}
		return canPass(up.Op, names)
	})
	for _, pair := range pairs {
		if p.SwapAdjacent(pair[0], pair[1]) == nil {
			return true
		}
	}
	return false
}

func canPass(op plan.Op, names []string) bool {
	switch op := op.(type) {
	case *plan.Sort:
		return true
	case *plan.Select:
		for _, name := range names {
			if !passesThrough(op, name) {
				return false
			}
		}
		return true
	case *plan.AddField:
		for _, a := range op.Fields {
			for _, name := range names {
				if field.Dotted(a.Name).Root() == name {
					return false
				}
			}
		}
		return true
	}
	return false
}

// passesThrough is true when the output field name of s is the input
// field of the same name.  A name produced by more than one expression
// never passes, since a Missing result from one lets another supply it.
func passesThrough(s *plan.Select, name string) bool {
	var only expr.Expr
	for _, e := range s.Exprs {
		if expr.OutputName(e) == name {
			if only != nil {
				return false
			}
			only = e
		}
	}
	if n, ok := only.(*expr.Named); ok {
		only = n.Expr
	}
	f, ok := only.(*expr.Field)
	return ok && len(f.Path) == 1 && f.Path[0] == name
}
