package store

import (
	"github.com/brimdata/arbor"
)

// writer appends trees to a set of uniquely owned component slices.
type writer struct {
	nodes    []node
	children []Node
	strs     *interner
	ints     []int64
	floats   []float64
}

func (w *writer) append(v arbor.Value, name uint32) Node {
	id := Node(len(w.nodes))
	nd := node{kind: v.Kind(), name: name}
	switch v.Kind() {
	case arbor.KindMissing:
		// Arrays cannot hold Missing so it is stored as null.
		nd.kind = arbor.KindNull
	case arbor.KindBool:
		if v.Bool() {
			nd.off = 1
		}
	case arbor.KindInt:
		nd.off = uint32(len(w.ints))
		w.ints = append(w.ints, v.Int())
	case arbor.KindFloat:
		nd.off = uint32(len(w.floats))
		w.floats = append(w.floats, v.Float())
	case arbor.KindString:
		nd.off = w.strs.intern(v.Str())
	case arbor.KindArray:
		w.nodes = append(w.nodes, nd)
		elems := v.Array()
		kids := make([]Node, len(elems))
		for k, elem := range elems {
			kids[k] = w.append(elem, noName)
		}
		w.nodes[id].off = uint32(len(w.children))
		w.nodes[id].n = uint32(len(kids))
		w.children = append(w.children, kids...)
		return id
	case arbor.KindObject:
		w.nodes = append(w.nodes, nd)
		fields := v.Fields()
		kids := make([]Node, 0, len(fields))
		for _, f := range fields {
			if f.Value.IsMissing() {
				continue
			}
			kids = append(kids, w.append(f.Value, w.strs.intern(f.Name)))
		}
		w.nodes[id].off = uint32(len(w.children))
		w.nodes[id].n = uint32(len(kids))
		w.children = append(w.children, kids...)
		return id
	}
	w.nodes = append(w.nodes, nd)
	return id
}

// Builder constructs a Forest.  A Builder must be used by a single
// goroutine.
type Builder struct {
	w     writer
	roots []Node
}

func NewBuilder() *Builder {
	return &Builder{w: writer{strs: newInterner()}}
}

// Append adds v as a new tree.  A top-level Missing is rejected.
func (b *Builder) Append(v arbor.Value) error {
	if v.IsMissing() {
		return arbor.E(arbor.InvalidOperation, "cannot store a missing value as a tree")
	}
	b.roots = append(b.roots, b.w.append(v, noName))
	return nil
}

// AppendTree copies tree i of f.
func (b *Builder) AppendTree(f *Forest, i int) {
	b.roots = append(b.roots, b.w.append(f.Tree(i), noName))
}

func (b *Builder) Len() int {
	return len(b.roots)
}

// Build returns the forest and resets the builder.
func (b *Builder) Build() *Forest {
	f := &Forest{
		nodes:    newShared(b.w.nodes),
		children: newShared(b.w.children),
		strs:     newShared(b.w.strs),
		ints:     newShared(b.w.ints),
		floats:   newShared(b.w.floats),
		roots:    b.roots,
	}
	f.computeSchema()
	*b = *NewBuilder()
	return f
}

// New builds a forest from values.
func New(vals []arbor.Value) (*Forest, error) {
	b := NewBuilder()
	for _, v := range vals {
		if err := b.Append(v); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// MustNew is like New but panics on error.
func MustNew(vals ...arbor.Value) *Forest {
	f, err := New(vals)
	if err != nil {
		panic(err)
	}
	return f
}

// FromJSON builds a forest from JSON documents.
func FromJSON(docs ...string) (*Forest, error) {
	b := NewBuilder()
	for _, doc := range docs {
		v, err := arbor.ParseJSON([]byte(doc))
		if err != nil {
			return nil, err
		}
		if err := b.Append(v); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Empty returns a forest with no trees.
func Empty() *Forest {
	return NewBuilder().Build()
}
