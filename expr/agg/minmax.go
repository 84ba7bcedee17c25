package agg

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/vector"
)

// MinMax keeps the least (min) or greatest (max) value seen.  Numbers
// compare numerically and other values by the total order.  Ties keep the
// earlier value.
type MinMax struct {
	less bool
	seen bool
	val  arbor.Value
}

var _ Function = (*MinMax)(nil)

func (m *MinMax) name() string {
	if m.less {
		return "min"
	}
	return "max"
}

func (m *MinMax) Consume(v arbor.Value) error {
	if v.IsAbsent() {
		return nil
	}
	if v.IsVector() {
		return arbor.E(arbor.Cardinality, "%s: argument is a list", m.name())
	}
	m.update(v)
	return nil
}

func (m *MinMax) update(v arbor.Value) {
	if !m.seen {
		m.seen, m.val = true, v
		return
	}
	cmp := compare(v, m.val)
	if (m.less && cmp < 0) || (!m.less && cmp > 0) {
		m.val = v
	}
}

func compare(a, b arbor.Value) int {
	switch {
	case a.Kind() == arbor.KindInt && b.Kind() == arbor.KindInt:
		return arbor.CompareInts(a.Int(), b.Int())
	case a.IsNumber() && b.IsNumber():
		return arbor.CompareFloats(a.AsFloat(), b.AsFloat())
	}
	return arbor.Compare(a, b)
}

func (m *MinMax) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	if c.IsBoxed() || c.Kind() != arbor.KindInt || (m.seen && m.val.Kind() != arbor.KindInt) {
		return consumeBoxed(m, c, sel)
	}
	// Int columns reduce without boxing each slot when every comparison
	// would be between ints.
	var best int64
	var found bool
	for _, i := range sel.Indices() {
		if c.IsAbsent(i) {
			continue
		}
		v := c.Int(i)
		if !found || (m.less && v < best) || (!m.less && v > best) {
			best, found = v, true
		}
	}
	if found {
		m.update(arbor.NewInt(best))
	}
	return nil
}

func (m *MinMax) Result() (arbor.Value, error) {
	if !m.seen {
		return arbor.Value{}, arbor.E(arbor.EmptyAggregation, "%s of no values", m.name())
	}
	return m.val, nil
}
