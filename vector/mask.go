package vector

import (
	"math/bits"
)

// Mask is a fixed-length bitmap over the slots of a batch.  It is used both
// for per-slot flags (e.g., Missing) and as a selection vector.
type Mask struct {
	n    int
	bits []uint64
}

func NewMask(n int) Mask {
	return Mask{n: n, bits: make([]uint64, (n+63)/64)}
}

// Full returns a mask of length n with every slot set.
func Full(n int) Mask {
	m := NewMask(n)
	for k := range m.bits {
		m.bits[k] = ^uint64(0)
	}
	m.trim()
	return m
}

func (m *Mask) trim() {
	if r := m.n % 64; r != 0 {
		m.bits[len(m.bits)-1] &= (1 << r) - 1
	}
}

func (m Mask) Len() int {
	return m.n
}

func (m Mask) Has(i int) bool {
	if m.bits == nil {
		return false
	}
	return m.bits[i>>6]&(1<<(i&63)) != 0
}

func (m Mask) Set(i int) {
	m.bits[i>>6] |= 1 << (i & 63)
}

func (m Mask) Clear(i int) {
	m.bits[i>>6] &^= 1 << (i & 63)
}

func (m Mask) Clone() Mask {
	out := NewMask(m.n)
	copy(out.bits, m.bits)
	return out
}

// And returns the intersection of m and o.  A nil-backed mask of o is
// treated as empty.
func (m Mask) And(o Mask) Mask {
	out := NewMask(m.n)
	for k := range out.bits {
		if k < len(o.bits) {
			out.bits[k] = m.bits[k] & o.bits[k]
		}
	}
	return out
}

// AndNot returns the slots set in m but not in o.
func (m Mask) AndNot(o Mask) Mask {
	out := m.Clone()
	for k := range out.bits {
		if k < len(o.bits) {
			out.bits[k] &^= o.bits[k]
		}
	}
	return out
}

func (m Mask) Or(o Mask) Mask {
	out := m.Clone()
	for k := range out.bits {
		if k < len(o.bits) {
			out.bits[k] |= o.bits[k]
		}
	}
	return out
}

// Count returns the number of set slots.
func (m Mask) Count() int {
	var n int
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

func (m Mask) Any() bool {
	for _, w := range m.bits {
		if w != 0 {
			return true
		}
	}
	return false
}

// Indices returns the set slots in increasing order.
func (m Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	for k, w := range m.bits {
		for w != 0 {
			out = append(out, k*64+bits.TrailingZeros64(w))
			w &= w - 1
		}
	}
	return out
}
