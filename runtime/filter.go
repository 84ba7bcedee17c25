package runtime

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"github.com/brimdata/arbor/vector"
)

// Filter returns the global indices of the trees of src for which pred
// passes, in increasing order.
func Filter(rctx *Context, src source.Source, pred expr.Expr) ([]int, error) {
	return filter(rctx, OpFilter, src, pred, -1)
}

// FilterHead is Filter limited to the first n matches.  No batch is
// decoded once n matches are found.
func FilterHead(rctx *Context, src source.Source, pred expr.Expr, n int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}
	return filter(rctx, OpFilterHead, src, pred, n)
}

// FindOneIndex returns the global index of the first tree for which pred
// passes.  No batch is decoded after the one holding the match.
func FindOneIndex(rctx *Context, src source.Source, pred expr.Expr) (int, bool, error) {
	indices, err := filter(rctx, OpFindOne, src, pred, 1)
	if err != nil || len(indices) == 0 {
		return 0, false, err
	}
	return indices[0], true, nil
}

// FindOne materializes the first tree for which pred passes.
func FindOne(rctx *Context, src source.Source, pred expr.Expr) (arbor.Value, bool, error) {
	i, ok, err := FindOneIndex(rctx, src, pred)
	if err != nil || !ok {
		return arbor.Null, false, err
	}
	v, err := src.GetTree(rctx, i)
	if err != nil {
		return arbor.Null, false, err
	}
	return v, true, nil
}

// Any reports whether pred passes for some tree.
func Any(rctx *Context, src source.Source, pred expr.Expr) (bool, error) {
	_, ok, err := FindOneIndex(rctx, src, pred)
	return ok, err
}

// All reports whether no tree passes the negation of pred.  No tree is
// materialized.
func All(rctx *Context, src source.Source, pred expr.Expr) (bool, error) {
	_, ok, err := FindOneIndex(rctx, src, expr.Not(pred))
	return !ok, err
}

// filter collects matches batch by batch and stops once limit matches are
// found.  A negative limit collects all matches.
func filter(rctx *Context, kind OpKind, src source.Source, pred expr.Expr, limit int) ([]int, error) {
	schema := src.Schema()
	backend := Choose(kind, []expr.Expr{pred}, schema, rctx.Mode)
	rctx.record(kind, backend)
	var out []int
	var err error
	iterErr := src.ForEachBatch(rctx, func(batch *store.Forest, _, offset int) source.Signal {
		var local []int
		local, err = filterBatch(rctx, backend, pred, schema, batch, limit-len(out))
		if err != nil && limit >= 0 && backend != BackendSequential {
			// The failing tree may lie past the last match wanted, where
			// a sequential scan never looks.
			local, err = filterBatch(rctx, BackendSequential, pred, schema, batch, limit-len(out))
		}
		if err != nil {
			return source.Break
		}
		for _, k := range local {
			out = append(out, offset+k)
		}
		if limit >= 0 && len(out) >= limit {
			return source.Break
		}
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// filterBatch returns the batch-local indices of the matching trees.  The
// sequential backend stops after limit matches when limit is positive.
func filterBatch(rctx *Context, backend Backend, pred expr.Expr, schema *arbor.Schema, batch *store.Forest, limit int) ([]int, error) {
	n := batch.Len()
	switch backend {
	case BackendVectorized:
		vb := vector.Load(batch, expr.DepsOf(pred).Names(), schema)
		defer vb.Release()
		mask, err := expr.EvalColumnarPredicate(pred, vb, vector.Full(n))
		if err != nil {
			return nil, err
		}
		return mask.Indices(), nil
	case BackendParallel:
		pass, err := source.ParMap(rctx, source.NewMemory(batch), rctx.workers(), func(batch *store.Forest, local, _ int) (bool, error) {
			return expr.EvalPredicate(pred, batch.Tree(local))
		})
		if err != nil {
			return nil, err
		}
		var out []int
		for k, ok := range pass {
			if ok {
				out = append(out, k)
			}
		}
		return out, nil
	}
	var out []int
	for k := 0; k < n; k++ {
		ok, err := expr.EvalPredicate(pred, batch.Tree(k))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, k)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
