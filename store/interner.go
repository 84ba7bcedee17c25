package store

import (
	"golang.org/x/exp/maps"
)

// interner maps each distinct string, including field names, to a dense id.
type interner struct {
	strs  []string
	index map[string]uint32
}

func newInterner() *interner {
	return &interner{index: make(map[string]uint32)}
}

func (i *interner) clone() *interner {
	return &interner{
		strs:  cloneSlice(i.strs),
		index: maps.Clone(i.index),
	}
}

func (i *interner) intern(s string) uint32 {
	if id, ok := i.index[s]; ok {
		return id
	}
	id := uint32(len(i.strs))
	i.strs = append(i.strs, s)
	i.index[s] = id
	return id
}

func (i *interner) lookup(s string) (uint32, bool) {
	id, ok := i.index[s]
	return id, ok
}

func (i *interner) get(id uint32) string {
	return i.strs[id]
}

func (i *interner) len() int {
	return len(i.strs)
}
