package runtime

import (
	"sort"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/order"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
)

// Sort returns the global indices of the trees of src ordered by keys under
// the total order.  The sort is stable.
func Sort(rctx *Context, src source.Source, keys order.SortKeys) ([]int, error) {
	rctx.record(OpSort, BackendSequential)
	getters := make([]*expr.Field, len(keys))
	for k, key := range keys {
		getters[k] = &expr.Field{Path: key.Key}
	}
	n := src.TreeCount()
	tuples := make([][]arbor.Value, 0, n)
	var err error
	iterErr := src.ForEachTree(rctx, func(batch *store.Forest, local, _ int) source.Signal {
		tree := batch.Tree(local)
		tuple := make([]arbor.Value, len(getters))
		for k, g := range getters {
			v, evalErr := g.Eval(tree)
			if evalErr != nil {
				err = evalErr
				return source.Break
			}
			if v.IsVector() {
				err = arbor.E(arbor.Cardinality, "sort key %s produced a list: %s", keys[k].Key, v)
				return source.Break
			}
			tuple[k] = v
		}
		tuples = append(tuples, tuple)
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	indices := make([]int, len(tuples))
	for k := range indices {
		indices[k] = k
	}
	sort.SliceStable(indices, func(i, j int) bool {
		a, b := tuples[indices[i]], tuples[indices[j]]
		for k, key := range keys {
			c := arbor.Compare(a[k], b[k])
			if c == 0 {
				continue
			}
			if key.Order == order.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return indices, nil
}

// Head returns the indices of the first n trees.
func Head(rctx *Context, src source.Source, n int) []int {
	rctx.record(OpHead, BackendSequential)
	return span(0, clamp(n, src.TreeCount()))
}

// Tail returns the indices of the last n trees.
func Tail(rctx *Context, src source.Source, n int) []int {
	rctx.record(OpTail, BackendSequential)
	total := src.TreeCount()
	return span(total-clamp(n, total), total)
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func span(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for k := lo; k < hi; k++ {
		out = append(out, k)
	}
	return out
}
