// Package source provides a uniform interface to a sequence of trees held
// either in one in-memory forest or in the batches of a persisted
// container.
//
// Iteration is callback based.  A batch handed to a callback is valid only
// until the callback returns, so callers keep indices or owned values
// (see store.Forest.Tree), never the batch itself.
package source

import (
	"context"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/store"
)

// Signal tells an iteration whether to go on.
type Signal int

const (
	Continue Signal = iota
	Break
)

// TreeFunc visits tree local of batch, which is tree global of the source.
type TreeFunc func(batch *store.Forest, local, global int) Signal

// BatchFunc visits batch number index whose first tree is tree offset of
// the source.
type BatchFunc func(batch *store.Forest, index, offset int) Signal

type Source interface {
	TreeCount() int
	BatchCount() int
	// Schema returns the schema of the source's trees or nil if none is
	// known.  It performs no I/O.
	Schema() *arbor.Schema
	// ForEachTree visits trees in order.  Once fn returns Break, no
	// further tree is visited and no further batch is decoded.
	ForEachTree(context.Context, TreeFunc) error
	ForEachBatch(context.Context, BatchFunc) error
	// GetTree materializes a single tree.
	GetTree(context.Context, int) (arbor.Value, error)
	String() string
}

// ForEachTree visits the trees of src batch by batch.  It serves sources
// whose natural unit of iteration is the batch.
func ForEachTree(ctx context.Context, src Source, fn TreeFunc) error {
	return src.ForEachBatch(ctx, func(batch *store.Forest, _, offset int) Signal {
		n := batch.Len()
		for k := 0; k < n; k++ {
			if fn(batch, k, offset+k) == Break {
				return Break
			}
		}
		return Continue
	})
}

func outOfRange(i, n int) error {
	return arbor.E(arbor.InvalidOperation, "tree index %d out of range [0,%d)", i, n)
}
