package source

import (
	"context"
	"fmt"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/store"
)

// Memory is a source over a single in-memory forest, which it presents as
// one batch.
type Memory struct {
	forest *store.Forest
}

var _ Source = (*Memory)(nil)

func NewMemory(f *store.Forest) *Memory {
	return &Memory{forest: f}
}

// FromValues builds a forest from vals and wraps it in a Memory source.
func FromValues(vals []arbor.Value) (*Memory, error) {
	f, err := store.New(vals)
	if err != nil {
		return nil, err
	}
	return NewMemory(f), nil
}

func (m *Memory) Forest() *store.Forest {
	return m.forest
}

func (m *Memory) TreeCount() int {
	return m.forest.Len()
}

func (m *Memory) BatchCount() int {
	return 1
}

func (m *Memory) Schema() *arbor.Schema {
	return m.forest.Schema()
}

func (m *Memory) ForEachTree(ctx context.Context, fn TreeFunc) error {
	n := m.forest.Len()
	for k := 0; k < n; k++ {
		if k%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if fn(m.forest, k, k) == Break {
			return nil
		}
	}
	return nil
}

func (m *Memory) ForEachBatch(ctx context.Context, fn BatchFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn(m.forest, 0, 0)
	return nil
}

func (m *Memory) GetTree(_ context.Context, i int) (arbor.Value, error) {
	if i < 0 || i >= m.forest.Len() {
		return arbor.Null, outOfRange(i, m.forest.Len())
	}
	return m.forest.Tree(i), nil
}

func (m *Memory) String() string {
	return fmt.Sprintf("memory(%d trees)", m.forest.Len())
}
