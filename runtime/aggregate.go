package runtime

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/expr/agg"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"github.com/brimdata/arbor/vector"
)

type reducer struct {
	name string
	arg  expr.Expr
	fn   agg.Function
}

func newReducers(aggs []plan.Assignment) ([]reducer, error) {
	out := make([]reducer, len(aggs))
	for k, a := range aggs {
		call, ok := a.Expr.(*expr.Agg)
		if !ok {
			return nil, arbor.E(arbor.InvalidOperation, "%s is not an aggregate function", a.Expr)
		}
		fn, err := agg.New(call.Name)
		if err != nil {
			return nil, err
		}
		out[k] = reducer{name: a.Name, arg: call.Arg, fn: fn}
	}
	return out, nil
}

func (r *reducer) consume(tree arbor.Value) error {
	v := tree
	if r.arg != nil {
		var err error
		if v, err = expr.Eval(r.arg, tree); err != nil {
			return err
		}
	}
	return r.fn.Consume(v)
}

func results(keys []arbor.Field, reducers []reducer) (arbor.Value, error) {
	fields := keys
	for _, r := range reducers {
		v, err := r.fn.Result()
		if err != nil {
			return arbor.Null, err
		}
		fields = append(fields, arbor.Field{Name: r.name, Value: v})
	}
	return arbor.NewObject(fields), nil
}

// Aggregate reduces all trees of src to one object holding a field per
// aggregate.
func Aggregate(rctx *Context, src source.Source, aggs []plan.Assignment) (arbor.Value, error) {
	reducers, err := newReducers(aggs)
	if err != nil {
		return arbor.Null, err
	}
	exprs := make([]expr.Expr, len(aggs))
	for k, a := range aggs {
		exprs[k] = a.Expr
	}
	schema := src.Schema()
	backend := Choose(OpAggregate, exprs, schema, rctx.Mode)
	rctx.record(OpAggregate, backend)
	if backend == BackendVectorized {
		err = aggregateColumnar(rctx, src, reducers, schema)
	} else {
		err = aggregateTrees(rctx, src, reducers)
	}
	if err != nil {
		return arbor.Null, err
	}
	return results(nil, reducers)
}

func aggregateTrees(rctx *Context, src source.Source, reducers []reducer) error {
	var err error
	iterErr := src.ForEachTree(rctx, func(batch *store.Forest, local, _ int) source.Signal {
		tree := batch.Tree(local)
		for k := range reducers {
			if err = reducers[k].consume(tree); err != nil {
				return source.Break
			}
		}
		return source.Continue
	})
	if err != nil {
		return err
	}
	return iterErr
}

func aggregateColumnar(rctx *Context, src source.Source, reducers []reducer, schema *arbor.Schema) error {
	var names []string
	for _, r := range reducers {
		if r.arg != nil {
			names = append(names, expr.DepsOf(r.arg).Names()...)
		}
	}
	var err error
	iterErr := src.ForEachBatch(rctx, func(batch *store.Forest, _, _ int) source.Signal {
		vb := vector.Load(batch, names, schema)
		defer vb.Release()
		full := vector.Full(batch.Len())
		for k := range reducers {
			r := &reducers[k]
			if r.arg == nil {
				err = r.fn.ConsumeColumn(nil, full)
			} else {
				var c *vector.Column
				if c, err = expr.EvalColumnar(r.arg, vb, full); err == nil {
					err = r.fn.ConsumeColumn(c, full)
					c.Release()
				}
			}
			if err != nil {
				return source.Break
			}
		}
		return source.Continue
	})
	if err != nil {
		return err
	}
	return iterErr
}

type group struct {
	key      []arbor.Value
	reducers []reducer
}

// GroupBy reduces the trees of src to one object per distinct tuple of
// key values, in order of first appearance.  Keys compare under the total
// order, so Null and Missing keys form separate groups.  A Missing key is
// omitted from its group's object.
func GroupBy(rctx *Context, src source.Source, keys, aggs []plan.Assignment) ([]arbor.Value, error) {
	if _, err := newReducers(aggs); err != nil {
		return nil, err
	}
	rctx.record(OpGroupBy, BackendSequential)
	table := make(map[uint64][]*group)
	var groups []*group
	var err error
	iterErr := src.ForEachTree(rctx, func(batch *store.Forest, local, _ int) source.Signal {
		tree := batch.Tree(local)
		var key []arbor.Value
		if key, err = evalKey(keys, tree); err != nil {
			return source.Break
		}
		h := arbor.HashValues(key)
		var g *group
		for _, candidate := range table[h] {
			if arbor.CompareValues(candidate.key, key) == 0 {
				g = candidate
				break
			}
		}
		if g == nil {
			g = &group{key: key}
			g.reducers, _ = newReducers(aggs)
			table[h] = append(table[h], g)
			groups = append(groups, g)
		}
		for k := range g.reducers {
			if err = g.reducers[k].consume(tree); err != nil {
				return source.Break
			}
		}
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	out := make([]arbor.Value, 0, len(groups))
	for _, g := range groups {
		fields := make([]arbor.Field, len(keys), len(keys)+len(aggs))
		for k, a := range keys {
			fields[k] = arbor.Field{Name: a.Name, Value: g.key[k]}
		}
		v, err := results(fields, g.reducers)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalKey evaluates a tuple of key expressions.  A key must be a single
// value.
func evalKey(keys []plan.Assignment, tree arbor.Value) ([]arbor.Value, error) {
	out := make([]arbor.Value, len(keys))
	for k, a := range keys {
		v, err := expr.Eval(a.Expr, tree)
		if err != nil {
			return nil, err
		}
		if v.IsVector() {
			return nil, arbor.E(arbor.Cardinality, "key %s produced a list: %s", a.Name, v)
		}
		out[k] = v
	}
	return out, nil
}
