package runtime

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"go.uber.org/zap"
)

// Materialize executes the chain of p node by node into an in-memory
// forest.  A Filter immediately followed by a Head runs as FilterHead.
func Materialize(rctx *Context, p *plan.Plan) (*store.Forest, error) {
	nodes := p.Nodes()
	src, ok := nodes[0].Op.(*plan.Source)
	if !ok {
		return nil, arbor.E(arbor.InvalidOperation, "plan does not start with a source")
	}
	var cur source.Source = src.Source
	var owned *store.Forest
	release := func() {
		if owned != nil {
			owned.Release()
			owned = nil
		}
	}
	for k := 1; k < len(nodes); k++ {
		op := nodes[k].Op
		var next *store.Forest
		var err error
		if f, ok := op.(*plan.Filter); ok && k+1 < len(nodes) {
			if h, ok := nodes[k+1].Op.(*plan.Head); ok {
				rctx.logger().Debug("Fusing filter and head", zap.Int("filter", nodes[k].ID), zap.Int("head", nodes[k+1].ID))
				var indices []int
				if indices, err = FilterHead(rctx, cur, f.Pred, h.N); err == nil {
					next, err = take(rctx, cur, indices, true)
				}
				k++
				if err != nil {
					release()
					return nil, err
				}
				release()
				owned, cur = next, source.NewMemory(next)
				continue
			}
		}
		next, err = apply(rctx, cur, op)
		release()
		if err != nil {
			return nil, err
		}
		owned, cur = next, source.NewMemory(next)
	}
	if owned != nil {
		return owned, nil
	}
	return source.Collect(rctx, cur)
}

func apply(rctx *Context, src source.Source, op plan.Op) (*store.Forest, error) {
	switch op := op.(type) {
	case *plan.Filter:
		indices, err := Filter(rctx, src, op.Pred)
		if err != nil {
			return nil, err
		}
		return take(rctx, src, indices, true)
	case *plan.Select:
		return build(Select(rctx, src, op.Exprs))
	case *plan.AddField:
		return build(AddFields(rctx, src, op.Fields))
	case *plan.Aggregate:
		if len(op.Keys) > 0 {
			return build(GroupBy(rctx, src, op.Keys, op.Aggs))
		}
		v, err := Aggregate(rctx, src, op.Aggs)
		if err != nil {
			return nil, err
		}
		return store.New([]arbor.Value{v})
	case *plan.Head:
		return take(rctx, src, Head(rctx, src, op.N), true)
	case *plan.Tail:
		return take(rctx, src, Tail(rctx, src, op.N), true)
	case *plan.Sort:
		indices, err := Sort(rctx, src, op.Keys)
		if err != nil {
			return nil, err
		}
		return take(rctx, src, indices, false)
	case *plan.Explode:
		return build(Explode(rctx, src, op.Path))
	case *plan.Join:
		return Join(rctx, src, op.Right, op.LeftOn, op.RightOn, op.Type)
	}
	return nil, arbor.E(arbor.InvalidOperation, "cannot execute %s", op)
}

func build(vals []arbor.Value, err error) (*store.Forest, error) {
	if err != nil {
		return nil, err
	}
	return store.New(vals)
}

// take returns a forest of the trees of src at indices.  For an in-memory
// source it is a view.  Otherwise increasing indices are gathered in one
// pass that stops decoding after the last index.
func take(rctx *Context, src source.Source, indices []int, increasing bool) (*store.Forest, error) {
	if m, ok := src.(*source.Memory); ok {
		return m.Forest().Select(indices)
	}
	if !increasing {
		all, err := source.Collect(rctx, src)
		if err != nil {
			return nil, err
		}
		defer all.Release()
		return all.Select(indices)
	}
	b := store.NewBuilder()
	if len(indices) == 0 {
		return b.Build(), nil
	}
	var pos int
	err := src.ForEachTree(rctx, func(batch *store.Forest, local, global int) source.Signal {
		if global == indices[pos] {
			b.AppendTree(batch, local)
			pos++
			if pos == len(indices) {
				return source.Break
			}
		}
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}
