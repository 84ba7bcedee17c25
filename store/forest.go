// Package store implements the shared columnar storage of a forest of
// tree-structured documents.
//
// A Forest keeps its nodes in a flat node table.  Object and array nodes
// reference a contiguous run of the child table; scalar nodes reference a
// slot in one of the typed value pools (ints, floats) or the string
// interner.  Each of these five components sits behind a reference-counted
// handle so that cloning a forest or taking a view of it (slice, select,
// head, tail) never copies columnar data.  Only the list of root nodes is
// owned by each forest value.  A write first clones the smallest set of
// components it touches when they are shared (copy on write), leaving the
// other sharers unaffected.
//
// A Forest may be read from any number of goroutines.  Writes (Set, Push,
// Remove) must be confined to a single goroutine that owns the value.
package store

import (
	"fmt"

	"github.com/brimdata/arbor"
	"golang.org/x/exp/slices"
)

// Node identifies a node in a forest's node table.
type Node uint32

const noName = ^uint32(0)

type node struct {
	kind arbor.Kind
	// name is the interned field name when the node is an object field.
	name uint32
	// off is the pool slot of a scalar, the bool value, or the first
	// child table entry of a container.
	off uint32
	// n is the number of children of a container.
	n uint32
}

// Component names one of the shared columnar components of a forest.
type Component int

const (
	NodeTable Component = iota
	ChildTable
	Strings
	Ints
	Floats
)

func (c Component) String() string {
	switch c {
	case NodeTable:
		return "nodes"
	case ChildTable:
		return "children"
	case Strings:
		return "strings"
	case Ints:
		return "ints"
	case Floats:
		return "floats"
	}
	return fmt.Sprintf("component(%d)", int(c))
}

type Forest struct {
	nodes    *shared[[]node]
	children *shared[[]Node]
	strs     *shared[*interner]
	ints     *shared[[]int64]
	floats   *shared[[]float64]
	roots    []Node
	schema   *arbor.Schema
}

// Clone returns a forest sharing every columnar component with f.  Only
// reference counts and the root list are copied.
func (f *Forest) Clone() *Forest {
	return f.view(slices.Clone(f.roots))
}

func (f *Forest) view(roots []Node) *Forest {
	return &Forest{
		nodes:    f.nodes.ref(),
		children: f.children.ref(),
		strs:     f.strs.ref(),
		ints:     f.ints.ref(),
		floats:   f.floats.ref(),
		roots:    roots,
		schema:   f.schema,
	}
}

// Release drops f's references to its components.  f must not be used
// afterward.
func (f *Forest) Release() {
	if f.nodes == nil {
		return
	}
	f.nodes.unref()
	f.children.unref()
	f.strs.unref()
	f.ints.unref()
	f.floats.unref()
	*f = Forest{}
}

// Len returns the number of trees in the forest.
func (f *Forest) Len() int {
	return len(f.roots)
}

// Schema describes the top-level fields of the trees.  For views it
// describes the parent's trees, which is a safe over-approximation.
func (f *Forest) Schema() *arbor.Schema {
	return f.schema
}

// RefCount reports how many forests hold component c.
func (f *Forest) RefCount(c Component) int {
	switch c {
	case NodeTable:
		return int(f.nodes.refs.Load())
	case ChildTable:
		return int(f.children.refs.Load())
	case Strings:
		return int(f.strs.refs.Load())
	case Ints:
		return int(f.ints.refs.Load())
	case Floats:
		return int(f.floats.refs.Load())
	}
	return 0
}

// SharesWith is true when f and other hold the same instance of c.
func (f *Forest) SharesWith(other *Forest, c Component) bool {
	switch c {
	case NodeTable:
		return f.nodes == other.nodes
	case ChildTable:
		return f.children == other.children
	case Strings:
		return f.strs == other.strs
	case Ints:
		return f.ints == other.ints
	case Floats:
		return f.floats == other.floats
	}
	return false
}

// Slice returns a view of trees [lo, hi).
func (f *Forest) Slice(lo, hi int) *Forest {
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.roots) {
		hi = len(f.roots)
	}
	if lo > hi {
		lo = hi
	}
	return f.view(slices.Clone(f.roots[lo:hi]))
}

// Select returns a view holding the trees at the given indices in the
// given order.  Indices may repeat.
func (f *Forest) Select(indices []int) (*Forest, error) {
	roots := make([]Node, len(indices))
	for k, i := range indices {
		if i < 0 || i >= len(f.roots) {
			return nil, arbor.E(arbor.InvalidOperation, "tree index %d out of range [0,%d)", i, len(f.roots))
		}
		roots[k] = f.roots[i]
	}
	return f.view(roots), nil
}

// Head returns a view of the first n trees.
func (f *Forest) Head(n int) *Forest {
	return f.Slice(0, n)
}

// Tail returns a view of the last n trees.
func (f *Forest) Tail(n int) *Forest {
	return f.Slice(len(f.roots)-n, len(f.roots))
}

// Root returns the root node of tree i.
func (f *Forest) Root(i int) Node {
	return f.roots[i]
}

func (f *Forest) node(n Node) node {
	return f.nodes.val[n]
}

func (f *Forest) Kind(n Node) arbor.Kind {
	return f.nodes.val[n].kind
}

func (f *Forest) Bool(n Node) bool {
	return f.nodes.val[n].off != 0
}

func (f *Forest) Int(n Node) int64 {
	return f.ints.val[f.nodes.val[n].off]
}

func (f *Forest) Float(n Node) float64 {
	return f.floats.val[f.nodes.val[n].off]
}

func (f *Forest) String(n Node) string {
	return f.strs.val.get(f.nodes.val[n].off)
}

// Name returns the field name of an object field node or "".
func (f *Forest) Name(n Node) string {
	id := f.nodes.val[n].name
	if id == noName {
		return ""
	}
	return f.strs.val.get(id)
}

// Children returns the child nodes of an object or array node.  The caller
// must not modify the returned slice.
func (f *Forest) Children(n Node) []Node {
	nd := f.nodes.val[n]
	if nd.kind != arbor.KindObject && nd.kind != arbor.KindArray {
		return nil
	}
	return f.children.val[nd.off : nd.off+nd.n]
}

// NameID returns the interned id of a field name, which may be used with
// LookupID to avoid repeated string comparisons.
func (f *Forest) NameID(name string) (uint32, bool) {
	return f.strs.val.lookup(name)
}

// LookupID returns the child of object node n whose name has the
// interned id.
func (f *Forest) LookupID(n Node, id uint32) (Node, bool) {
	nd := f.nodes.val[n]
	if nd.kind != arbor.KindObject {
		return 0, false
	}
	for _, c := range f.children.val[nd.off : nd.off+nd.n] {
		if f.nodes.val[c].name == id {
			return c, true
		}
	}
	return 0, false
}

// Lookup returns the named field of object node n.
func (f *Forest) Lookup(n Node, name string) (Node, bool) {
	id, ok := f.NameID(name)
	if !ok {
		return 0, false
	}
	return f.LookupID(n, id)
}

// Tree materializes tree i as an owned value that remains valid after the
// forest is released.
func (f *Forest) Tree(i int) arbor.Value {
	return f.Value(f.roots[i])
}

// Trees materializes every tree.
func (f *Forest) Trees() []arbor.Value {
	out := make([]arbor.Value, len(f.roots))
	for i := range f.roots {
		out[i] = f.Tree(i)
	}
	return out
}

// Value materializes the subtree rooted at n.
func (f *Forest) Value(n Node) arbor.Value {
	nd := f.nodes.val[n]
	switch nd.kind {
	case arbor.KindNull:
		return arbor.Null
	case arbor.KindBool:
		return arbor.NewBool(nd.off != 0)
	case arbor.KindInt:
		return arbor.NewInt(f.ints.val[nd.off])
	case arbor.KindFloat:
		return arbor.NewFloat(f.floats.val[nd.off])
	case arbor.KindString:
		return arbor.NewString(f.strs.val.get(nd.off))
	case arbor.KindArray:
		children := f.children.val[nd.off : nd.off+nd.n]
		elems := make([]arbor.Value, len(children))
		for k, c := range children {
			elems[k] = f.Value(c)
		}
		return arbor.NewArray(elems)
	case arbor.KindObject:
		children := f.children.val[nd.off : nd.off+nd.n]
		fields := make([]arbor.Field, len(children))
		for k, c := range children {
			fields[k] = arbor.Field{Name: f.strs.val.get(f.nodes.val[c].name), Value: f.Value(c)}
		}
		return arbor.NewObject(fields)
	}
	panic(fmt.Sprintf("store: bad node kind %s", nd.kind))
}

func (f *Forest) computeSchema() {
	sb := arbor.NewSchemaBuilder()
	for _, root := range f.roots {
		if f.nodes.val[root].kind == arbor.KindObject {
			for _, c := range f.Children(root) {
				sb.Observe(f.Name(c), f.nodes.val[c].kind)
			}
		}
		sb.Next()
	}
	f.schema = sb.Schema()
}
