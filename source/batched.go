package source

import (
	"context"
	"fmt"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/store"
)

// Batched is a source over the batches of a persisted container.  Batches
// are loaded on demand and released once the callback that received them
// returns.
type Batched struct {
	container *lake.Container
}

var _ Source = (*Batched)(nil)

func NewBatched(c *lake.Container) *Batched {
	return &Batched{container: c}
}

func (b *Batched) Container() *lake.Container {
	return b.container
}

func (b *Batched) TreeCount() int {
	return b.container.Count()
}

func (b *Batched) BatchCount() int {
	return b.container.BatchCount()
}

// Schema comes from the container metadata.
func (b *Batched) Schema() *arbor.Schema {
	return b.container.Schema()
}

func (b *Batched) ForEachTree(ctx context.Context, fn TreeFunc) error {
	return ForEachTree(ctx, b, fn)
}

func (b *Batched) ForEachBatch(ctx context.Context, fn BatchFunc) error {
	for i := 0; i < b.container.BatchCount(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := b.container.Load(ctx, i)
		if err != nil {
			return err
		}
		sig := fn(batch, i, b.container.Offset(i))
		batch.Release()
		if sig == Break {
			return nil
		}
	}
	return nil
}

func (b *Batched) GetTree(ctx context.Context, i int) (arbor.Value, error) {
	batch, local, ok := b.container.Locate(i)
	if !ok {
		return arbor.Null, outOfRange(i, b.container.Count())
	}
	f, err := b.container.Load(ctx, batch)
	if err != nil {
		return arbor.Null, err
	}
	defer f.Release()
	return f.Tree(local), nil
}

func (b *Batched) String() string {
	return fmt.Sprintf("lake(%s, %d trees in %d batches)", b.container.URI(), b.container.Count(), b.container.BatchCount())
}

// Collect copies every tree of src into one in-memory forest.
func Collect(ctx context.Context, src Source) (*store.Forest, error) {
	if m, ok := src.(*Memory); ok {
		return m.forest.Clone(), nil
	}
	b := store.NewBuilder()
	err := src.ForEachBatch(ctx, func(batch *store.Forest, _, _ int) Signal {
		for k := 0; k < batch.Len(); k++ {
			b.AppendTree(batch, k)
		}
		return Continue
	})
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}
