package store

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/field"
	"golang.org/x/exp/slices"
)

// Set replaces the scalar at path within tree i.  Only the components the
// write touches are cloned when shared: replacing an int with an int
// touches the int pool alone, replacing a float touches the float pool,
// and any other replacement touches the node table plus the pool holding
// the new value.
func (f *Forest) Set(i int, path field.Path, v arbor.Value) error {
	if i < 0 || i >= len(f.roots) {
		return arbor.E(arbor.InvalidOperation, "tree index %d out of range [0,%d)", i, len(f.roots))
	}
	switch v.Kind() {
	case arbor.KindNull, arbor.KindBool, arbor.KindInt, arbor.KindFloat, arbor.KindString:
	default:
		return arbor.E(arbor.InvalidOperation, "cannot set %s to a %s value", path, v.Kind())
	}
	if f.aliased(i) {
		f.roots[i] = f.write(f.Tree(i))
	}
	n := f.roots[i]
	for _, name := range path {
		var ok bool
		if n, ok = f.Lookup(n, name); !ok {
			return arbor.E(arbor.NotFound, "no such field: %s", path)
		}
	}
	old := f.nodes.val[n]
	switch old.kind {
	case arbor.KindArray, arbor.KindObject:
		return arbor.E(arbor.InvalidOperation, "cannot set non-scalar field %s", path)
	case arbor.KindInt:
		if v.Kind() == arbor.KindInt {
			own(&f.ints, cloneSlice[int64]).val[old.off] = v.Int()
			return nil
		}
	case arbor.KindFloat:
		if v.Kind() == arbor.KindFloat {
			own(&f.floats, cloneSlice[float64]).val[old.off] = v.Float()
			return nil
		}
	}
	nd := node{kind: v.Kind(), name: old.name}
	switch v.Kind() {
	case arbor.KindBool:
		if v.Bool() {
			nd.off = 1
		}
	case arbor.KindInt:
		ints := own(&f.ints, cloneSlice[int64])
		nd.off = uint32(len(ints.val))
		ints.val = append(ints.val, v.Int())
	case arbor.KindFloat:
		floats := own(&f.floats, cloneSlice[float64])
		nd.off = uint32(len(floats.val))
		floats.val = append(floats.val, v.Float())
	case arbor.KindString:
		nd.off = own(&f.strs, (*interner).clone).val.intern(v.Str())
	}
	own(&f.nodes, cloneSlice[node]).val[n] = nd
	f.computeSchema()
	return nil
}

// aliased is true when the root of tree i is also the root of another
// tree, as happens with a Select view that repeats an index.
func (f *Forest) aliased(i int) bool {
	for k, r := range f.roots {
		if k != i && r == f.roots[i] {
			return true
		}
	}
	return false
}

// Push appends v as a new tree.
func (f *Forest) Push(v arbor.Value) error {
	if v.IsMissing() {
		return arbor.E(arbor.InvalidOperation, "cannot store a missing value as a tree")
	}
	f.roots = append(f.roots, f.write(v))
	f.computeSchema()
	return nil
}

// Remove drops tree i.  Only the root list changes.
func (f *Forest) Remove(i int) error {
	if i < 0 || i >= len(f.roots) {
		return arbor.E(arbor.InvalidOperation, "tree index %d out of range [0,%d)", i, len(f.roots))
	}
	f.roots = slices.Delete(f.roots, i, i+1)
	return nil
}

// write appends the nodes of v, owning only the components v needs.
func (f *Forest) write(v arbor.Value) Node {
	var u usage
	u.scan(v)
	nodes := own(&f.nodes, cloneSlice[node])
	w := writer{
		nodes:    nodes.val,
		children: f.children.val,
		strs:     f.strs.val,
		ints:     f.ints.val,
		floats:   f.floats.val,
	}
	var children *shared[[]Node]
	var ints *shared[[]int64]
	var floats *shared[[]float64]
	if u.containers {
		children = own(&f.children, cloneSlice[Node])
		w.children = children.val
	}
	if u.strings {
		w.strs = own(&f.strs, (*interner).clone).val
	}
	if u.ints {
		ints = own(&f.ints, cloneSlice[int64])
		w.ints = ints.val
	}
	if u.floats {
		floats = own(&f.floats, cloneSlice[float64])
		w.floats = floats.val
	}
	root := w.append(v, noName)
	nodes.val = w.nodes
	if children != nil {
		children.val = w.children
	}
	if ints != nil {
		ints.val = w.ints
	}
	if floats != nil {
		floats.val = w.floats
	}
	return root
}

type usage struct {
	containers bool
	strings    bool
	ints       bool
	floats     bool
}

func (u *usage) scan(v arbor.Value) {
	switch v.Kind() {
	case arbor.KindInt:
		u.ints = true
	case arbor.KindFloat:
		u.floats = true
	case arbor.KindString:
		u.strings = true
	case arbor.KindArray:
		u.containers = true
		for _, elem := range v.Array() {
			u.scan(elem)
		}
	case arbor.KindObject:
		u.containers = true
		if v.Len() > 0 {
			u.strings = true
		}
		for _, f := range v.Fields() {
			u.scan(f.Value)
		}
	}
}
