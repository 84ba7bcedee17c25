package vector

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/store"
)

// Batch is a set of equal-length columns keyed by top-level field name.
type Batch struct {
	n    int
	cols map[string]*Column
}

func NewBatch(n int) *Batch {
	return &Batch{n: n, cols: make(map[string]*Column)}
}

func (b *Batch) Len() int {
	return b.n
}

// Column returns the named column or, if the batch has no such column, a
// column of Missing.
func (b *Batch) Column(name string) *Column {
	if c, ok := b.cols[name]; ok {
		return c
	}
	c := Const(arbor.Missing, b.n)
	b.cols[name] = c
	return c
}

func (b *Batch) Has(name string) bool {
	_, ok := b.cols[name]
	return ok
}

func (b *Batch) Add(name string, c *Column) {
	if old, ok := b.cols[name]; ok {
		old.Release()
	}
	b.cols[name] = c
}

func (b *Batch) Release() {
	for _, c := range b.cols {
		c.Release()
	}
	b.cols = nil
}

// Load builds a column for each named top-level field of the trees of f
// by reading the forest's value pools directly.  The column kind comes
// from schema; fields the schema lacks or marks as mixed are boxed.
func Load(f *store.Forest, names []string, schema *arbor.Schema) *Batch {
	n := f.Len()
	batch := NewBatch(n)
	for _, name := range names {
		if batch.Has(name) {
			continue
		}
		kind := arbor.KindMixed
		if sf, ok := schema.Lookup(name); ok && sf.Kind.IsPrimitive() {
			kind = sf.Kind
		}
		batch.cols[name] = loadColumn(f, name, kind)
	}
	return batch
}

func loadColumn(f *store.Forest, name string, kind arbor.Kind) *Column {
	n := f.Len()
	b := NewBuilder(kind, n)
	id, ok := f.NameID(name)
	if !ok {
		for k := 0; k < n; k++ {
			b.AppendMissing()
		}
		return b.Build()
	}
	for k := 0; k < n; k++ {
		node, ok := f.LookupID(f.Root(k), id)
		if !ok {
			b.AppendMissing()
			continue
		}
		switch nk := f.Kind(node); {
		case nk == arbor.KindNull:
			b.AppendNull()
		case nk != kind:
			b.Append(f.Value(node))
		case nk == arbor.KindInt:
			b.AppendInt(f.Int(node))
		case nk == arbor.KindFloat:
			b.AppendFloat(f.Float(node))
		case nk == arbor.KindBool:
			b.AppendBool(f.Bool(node))
		case nk == arbor.KindString:
			b.AppendString(f.String(node))
		}
	}
	return b.Build()
}
