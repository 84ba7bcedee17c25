package agg

import (
	"encoding/binary"

	"github.com/axiomhq/hyperloglog"
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/vector"
)

// DCount uses hyperloglog to approximate the count of distinct values.
// Null and Missing are not counted.
type DCount struct {
	scratch []byte
	sketch  *hyperloglog.Sketch
}

var _ Function = (*DCount)(nil)

func NewDCount() *DCount {
	return &DCount{
		scratch: make([]byte, 8),
		sketch:  hyperloglog.New(),
	}
}

func (d *DCount) Consume(v arbor.Value) error {
	if v.IsAbsent() {
		return nil
	}
	binary.LittleEndian.PutUint64(d.scratch, arbor.Hash(v))
	d.sketch.Insert(d.scratch)
	return nil
}

func (d *DCount) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	return consumeBoxed(d, c, sel)
}

func (d *DCount) Result() (arbor.Value, error) {
	return arbor.NewInt(int64(d.sketch.Estimate())), nil
}
