package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/brimdata/arbor"
)

const (
	magic   = "ARBF"
	version = 1
)

var ErrCorrupt = errors.New("corrupt forest encoding")

// MarshalBinary encodes the forest's components and root list.  Views
// encode the full components of their parent; use Compact first to
// encode only the reachable trees.
func (f *Forest) MarshalBinary() ([]byte, error) {
	nodes, children, strs := f.nodes.val, f.children.val, f.strs.val
	b := make([]byte, 0, len(magic)+1+len(nodes)*4+len(children)+8*len(f.floats.val)+4*len(f.ints.val))
	b = append(b, magic...)
	b = append(b, version)
	for _, n := range []int{len(nodes), len(children), strs.len(), len(f.ints.val), len(f.floats.val), len(f.roots)} {
		b = binary.AppendUvarint(b, uint64(n))
	}
	for _, nd := range nodes {
		b = append(b, byte(nd.kind))
		b = binary.AppendUvarint(b, uint64(nd.name+1))
		b = binary.AppendUvarint(b, uint64(nd.off))
		b = binary.AppendUvarint(b, uint64(nd.n))
	}
	for _, c := range children {
		b = binary.AppendUvarint(b, uint64(c))
	}
	for _, s := range strs.strs {
		b = binary.AppendUvarint(b, uint64(len(s)))
		b = append(b, s...)
	}
	for _, i := range f.ints.val {
		b = binary.AppendVarint(b, i)
	}
	for _, x := range f.floats.val {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(x))
	}
	for _, r := range f.roots {
		b = binary.AppendUvarint(b, uint64(r))
	}
	return b, nil
}

// Compact returns a forest holding copies of f's trees in fresh,
// unshared components with no unreachable nodes.
func (f *Forest) Compact() *Forest {
	b := NewBuilder()
	for i := range f.roots {
		b.AppendTree(f, i)
	}
	return b.Build()
}

// Unmarshal decodes a forest produced by MarshalBinary.
func Unmarshal(b []byte) (*Forest, error) {
	if len(b) < len(magic)+1 || string(b[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if b[len(magic)] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, b[len(magic)])
	}
	r := bytes.NewReader(b[len(magic)+1:])
	var counts [6]int
	for k := range counts {
		n, err := binary.ReadUvarint(r)
		if err != nil || n > uint64(len(b)) {
			return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
		}
		counts[k] = int(n)
	}
	nnodes, nchildren, nstrs, nints, nfloats, nroots := counts[0], counts[1], counts[2], counts[3], counts[4], counts[5]
	nodes := make([]node, nnodes)
	for k := range nodes {
		kind, err := r.ReadByte()
		if err != nil {
			return nil, corrupt(err)
		}
		var vals [3]uint64
		for j := range vals {
			if vals[j], err = binary.ReadUvarint(r); err != nil {
				return nil, corrupt(err)
			}
		}
		nodes[k] = node{kind: arbor.Kind(kind), name: uint32(vals[0]) - 1, off: uint32(vals[1]), n: uint32(vals[2])}
	}
	children := make([]Node, nchildren)
	for k := range children {
		c, err := binary.ReadUvarint(r)
		if err != nil || c >= uint64(nnodes) {
			return nil, corrupt(err)
		}
		children[k] = Node(c)
	}
	strs := newInterner()
	for k := 0; k < nstrs; k++ {
		n, err := binary.ReadUvarint(r)
		if err != nil || n > uint64(r.Len()) {
			return nil, corrupt(err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, corrupt(err)
		}
		strs.strs = append(strs.strs, string(buf))
		strs.index[string(buf)] = uint32(k)
	}
	ints := make([]int64, nints)
	for k := range ints {
		i, err := binary.ReadVarint(r)
		if err != nil {
			return nil, corrupt(err)
		}
		ints[k] = i
	}
	floats := make([]float64, nfloats)
	var scratch [8]byte
	for k := range floats {
		if _, err := io.ReadFull(r, scratch[:]); err != nil {
			return nil, corrupt(err)
		}
		floats[k] = math.Float64frombits(binary.LittleEndian.Uint64(scratch[:]))
	}
	roots := make([]Node, nroots)
	for k := range roots {
		n, err := binary.ReadUvarint(r)
		if err != nil || n >= uint64(nnodes) {
			return nil, corrupt(err)
		}
		roots[k] = Node(n)
	}
	if err := validate(nodes, nchildren, nstrs, nints, nfloats); err != nil {
		return nil, err
	}
	f := &Forest{
		nodes:    newShared(nodes),
		children: newShared(children),
		strs:     newShared(strs),
		ints:     newShared(ints),
		floats:   newShared(floats),
		roots:    roots,
	}
	f.computeSchema()
	return f, nil
}

func validate(nodes []node, nchildren, nstrs, nints, nfloats int) error {
	for _, nd := range nodes {
		if nd.name != noName && int(nd.name) >= nstrs {
			return fmt.Errorf("%w: field name out of range", ErrCorrupt)
		}
		var limit int
		switch nd.kind {
		case arbor.KindNull, arbor.KindBool:
			continue
		case arbor.KindInt:
			limit = nints
		case arbor.KindFloat:
			limit = nfloats
		case arbor.KindString:
			limit = nstrs
		case arbor.KindArray, arbor.KindObject:
			if int(nd.off)+int(nd.n) > nchildren {
				return fmt.Errorf("%w: child run out of range", ErrCorrupt)
			}
			continue
		default:
			return fmt.Errorf("%w: bad node kind %d", ErrCorrupt, nd.kind)
		}
		if int(nd.off) >= limit {
			return fmt.Errorf("%w: %s slot out of range", ErrCorrupt, nd.kind)
		}
	}
	return nil
}

func corrupt(err error) error {
	if err == nil {
		return ErrCorrupt
	}
	return fmt.Errorf("%w: %s", ErrCorrupt, err)
}
