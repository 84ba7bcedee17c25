package runtime

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
)

type keyed struct {
	tree arbor.Value
	key  []arbor.Value
	// ok is false when some key is Null or Missing.  Such a row never
	// matches.
	ok bool
}

type hashTable struct {
	rows    []keyed
	buckets map[uint64][]int
	matched []bool
}

func newHashTable(rows []keyed) *hashTable {
	t := &hashTable{rows: rows, buckets: make(map[uint64][]int), matched: make([]bool, len(rows))}
	for k, r := range rows {
		if r.ok {
			h := arbor.HashValues(r.key)
			t.buckets[h] = append(t.buckets[h], k)
		}
	}
	return t
}

// probe returns the indices of the rows whose key equals key, in row
// order, and marks them matched.
func (t *hashTable) probe(key []arbor.Value) []int {
	var out []int
	for _, k := range t.buckets[arbor.HashValues(key)] {
		if arbor.CompareValues(t.rows[k].key, key) == 0 {
			out = append(out, k)
			t.matched[k] = true
		}
	}
	return out
}

// Join hash-joins left and right on equal key tuples and returns one tree
// {left, right} per pair.  An unmatched row of an outer side is paired with
// null.  A row with a Null or Missing key matches nothing.  Inner and left
// joins follow left order, right joins follow right order, and full joins
// follow left order followed by the unmatched right rows.
func Join(rctx *Context, left, right source.Source, leftOn, rightOn []expr.Expr, typ plan.JoinType) (*store.Forest, error) {
	rctx.record(OpJoin, BackendSequential)
	if len(leftOn) != len(rightOn) || len(leftOn) == 0 {
		return nil, arbor.E(arbor.InvalidOperation, "join needs the same positive number of keys on each side, got %d and %d", len(leftOn), len(rightOn))
	}
	lrows, err := keyRows(rctx, left, leftOn)
	if err != nil {
		return nil, err
	}
	rrows, err := keyRows(rctx, right, rightOn)
	if err != nil {
		return nil, err
	}
	probeRows, build := lrows, rrows
	if typ == plan.Right {
		probeRows, build = rrows, lrows
	}
	table := newHashTable(build)
	b := store.NewBuilder()
	emit := func(l, r arbor.Value) error {
		return b.Append(arbor.NewObject([]arbor.Field{{Name: "left", Value: l}, {Name: "right", Value: r}}))
	}
	for _, row := range probeRows {
		var matches []int
		if row.ok {
			matches = table.probe(row.key)
		}
		for _, k := range matches {
			l, r := row.tree, table.rows[k].tree
			if typ == plan.Right {
				l, r = r, l
			}
			if err := emit(l, r); err != nil {
				return nil, err
			}
		}
		if len(matches) > 0 {
			continue
		}
		switch typ {
		case plan.Left, plan.Full:
			err = emit(row.tree, arbor.Null)
		case plan.Right:
			err = emit(arbor.Null, row.tree)
		}
		if err != nil {
			return nil, err
		}
	}
	if typ == plan.Full {
		for k, r := range table.rows {
			if !table.matched[k] {
				if err := emit(arbor.Null, r.tree); err != nil {
					return nil, err
				}
			}
		}
	}
	return b.Build(), nil
}

func keyRows(rctx *Context, src source.Source, on []expr.Expr) ([]keyed, error) {
	rows := make([]keyed, 0, src.TreeCount())
	var err error
	iterErr := src.ForEachTree(rctx, func(batch *store.Forest, local, _ int) source.Signal {
		tree := batch.Tree(local)
		row := keyed{tree: tree, key: make([]arbor.Value, len(on)), ok: true}
		for k, e := range on {
			var v arbor.Value
			if v, err = expr.Eval(e, tree); err != nil {
				return source.Break
			}
			if v.IsVector() {
				err = arbor.E(arbor.Cardinality, "join key %s produced a list: %s", e, v)
				return source.Break
			}
			if v.IsAbsent() {
				row.ok = false
			}
			row.key[k] = v
		}
		rows = append(rows, row)
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return rows, nil
}
