// Package vector holds columnar batches of top-level document fields.
//
// Primitive columns are backed by Arrow arrays where Arrow's validity
// bitmap marks Null slots.  Missing slots (field absent from the document)
// are tracked in a separate mask so that Null and Missing stay distinct.
// A column whose values do not share one primitive kind falls back to a
// boxed slice of values.
package vector

import (
	"fmt"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/brimdata/arbor"
)

type Column struct {
	kind    arbor.Kind
	n       int
	arr     arrow.Array
	missing Mask
	boxed   []arbor.Value
}

// Kind returns the primitive kind of a typed column or KindMixed for a
// boxed column.
func (c *Column) Kind() arbor.Kind {
	return c.kind
}

func (c *Column) Len() int {
	return c.n
}

func (c *Column) IsBoxed() bool {
	return c.arr == nil
}

// Arrow returns the underlying Arrow array of a typed column.
func (c *Column) Arrow() arrow.Array {
	return c.arr
}

func (c *Column) IsMissing(i int) bool {
	return c.missing.Has(i)
}

// IsNull is true for a Null slot.  Missing slots are not Null.
func (c *Column) IsNull(i int) bool {
	if c.arr == nil {
		return c.boxed[i].IsNull()
	}
	return !c.missing.Has(i) && c.arr.IsNull(i)
}

// IsAbsent is true for a Null or Missing slot.
func (c *Column) IsAbsent(i int) bool {
	if c.arr == nil {
		return c.boxed[i].IsAbsent()
	}
	return c.missing.Has(i) || c.arr.IsNull(i)
}

// Int returns slot i of an int column.  The slot must not be absent.
func (c *Column) Int(i int) int64 {
	return c.arr.(*array.Int64).Value(i)
}

func (c *Column) Float(i int) float64 {
	return c.arr.(*array.Float64).Value(i)
}

func (c *Column) Bool(i int) bool {
	return c.arr.(*array.Boolean).Value(i)
}

func (c *Column) String(i int) string {
	return c.arr.(*array.String).Value(i)
}

// Value boxes slot i.
func (c *Column) Value(i int) arbor.Value {
	if c.arr == nil {
		return c.boxed[i]
	}
	if c.missing.Has(i) {
		return arbor.Missing
	}
	if c.arr.IsNull(i) {
		return arbor.Null
	}
	switch c.kind {
	case arbor.KindBool:
		return arbor.NewBool(c.Bool(i))
	case arbor.KindInt:
		return arbor.NewInt(c.Int(i))
	case arbor.KindFloat:
		return arbor.NewFloat(c.Float(i))
	case arbor.KindString:
		return arbor.NewString(c.String(i))
	}
	panic(fmt.Sprintf("vector: bad column kind %s", c.kind))
}

// Values boxes every slot.
func (c *Column) Values() []arbor.Value {
	out := make([]arbor.Value, c.n)
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

func (c *Column) Release() {
	if c.arr != nil {
		c.arr.Release()
		c.arr = nil
	}
}

// Builder appends values to a column of a given kind.  A value of another
// primitive or structured kind converts the builder to a boxed column.
type Builder struct {
	kind    arbor.Kind
	n       int
	ints    *array.Int64Builder
	floats  *array.Float64Builder
	bools   *array.BooleanBuilder
	strs    *array.StringBuilder
	missing []int
	boxed   []arbor.Value
	isBoxed bool
}

// NewBuilder returns a builder for a column of kind with capacity n.  A
// non-primitive kind yields a boxed builder.
func NewBuilder(kind arbor.Kind, n int) *Builder {
	b := &Builder{kind: kind}
	mem := memory.DefaultAllocator
	switch kind {
	case arbor.KindInt:
		b.ints = array.NewInt64Builder(mem)
		b.ints.Reserve(n)
	case arbor.KindFloat:
		b.floats = array.NewFloat64Builder(mem)
		b.floats.Reserve(n)
	case arbor.KindBool:
		b.bools = array.NewBooleanBuilder(mem)
		b.bools.Reserve(n)
	case arbor.KindString:
		b.strs = array.NewStringBuilder(mem)
		b.strs.Reserve(n)
	default:
		b.kind = arbor.KindMixed
		b.isBoxed = true
		b.boxed = make([]arbor.Value, 0, n)
	}
	return b
}

func (b *Builder) Len() int {
	return b.n
}

func (b *Builder) AppendInt(v int64) {
	if b.kind != arbor.KindInt || b.isBoxed {
		b.Append(arbor.NewInt(v))
		return
	}
	b.ints.Append(v)
	b.n++
}

func (b *Builder) AppendFloat(v float64) {
	if b.kind != arbor.KindFloat || b.isBoxed {
		b.Append(arbor.NewFloat(v))
		return
	}
	b.floats.Append(v)
	b.n++
}

func (b *Builder) AppendBool(v bool) {
	if b.kind != arbor.KindBool || b.isBoxed {
		b.Append(arbor.NewBool(v))
		return
	}
	b.bools.Append(v)
	b.n++
}

func (b *Builder) AppendString(v string) {
	if b.kind != arbor.KindString || b.isBoxed {
		b.Append(arbor.NewString(v))
		return
	}
	b.strs.Append(v)
	b.n++
}

func (b *Builder) AppendNull() {
	if b.isBoxed {
		b.boxed = append(b.boxed, arbor.Null)
	} else {
		b.typed().AppendNull()
	}
	b.n++
}

func (b *Builder) AppendMissing() {
	if b.isBoxed {
		b.boxed = append(b.boxed, arbor.Missing)
	} else {
		b.typed().AppendNull()
		b.missing = append(b.missing, b.n)
	}
	b.n++
}

// Append appends any value.
func (b *Builder) Append(v arbor.Value) {
	if b.isBoxed {
		b.boxed = append(b.boxed, v)
		b.n++
		return
	}
	switch {
	case v.IsMissing():
		b.AppendMissing()
	case v.IsNull():
		b.AppendNull()
	case v.IsVector() || v.Kind() != b.kind:
		b.box()
		b.boxed = append(b.boxed, v)
		b.n++
	case b.kind == arbor.KindInt:
		b.AppendInt(v.Int())
	case b.kind == arbor.KindFloat:
		b.AppendFloat(v.Float())
	case b.kind == arbor.KindBool:
		b.AppendBool(v.Bool())
	case b.kind == arbor.KindString:
		b.AppendString(v.Str())
	}
}

func (b *Builder) typed() array.Builder {
	switch b.kind {
	case arbor.KindInt:
		return b.ints
	case arbor.KindFloat:
		return b.floats
	case arbor.KindBool:
		return b.bools
	case arbor.KindString:
		return b.strs
	}
	panic(fmt.Sprintf("vector: bad builder kind %s", b.kind))
}

// box converts the values appended so far into a boxed slice.
func (b *Builder) box() {
	c := b.build()
	b.boxed = c.Values()
	c.Release()
	b.kind = arbor.KindMixed
	b.isBoxed = true
	b.ints, b.floats, b.bools, b.strs = nil, nil, nil, nil
	b.missing = nil
}

func (b *Builder) build() *Column {
	if b.isBoxed {
		return &Column{kind: arbor.KindMixed, n: b.n, boxed: b.boxed}
	}
	tb := b.typed()
	arr := tb.NewArray()
	tb.Release()
	missing := NewMask(b.n)
	for _, i := range b.missing {
		missing.Set(i)
	}
	return &Column{kind: b.kind, n: b.n, arr: arr, missing: missing}
}

// Build returns the column.  The builder must not be used afterward.
func (b *Builder) Build() *Column {
	c := b.build()
	*b = Builder{}
	return c
}

// Const returns a column holding v in each of n slots.
func Const(v arbor.Value, n int) *Column {
	kind := v.Kind()
	if v.IsAbsent() {
		kind = arbor.KindMixed
	}
	b := NewBuilder(kind, n)
	for k := 0; k < n; k++ {
		b.Append(v)
	}
	return b.Build()
}

// FromValues builds a column of kind from vals.
func FromValues(kind arbor.Kind, vals []arbor.Value) *Column {
	b := NewBuilder(kind, len(vals))
	for _, v := range vals {
		b.Append(v)
	}
	return b.Build()
}

// Retain returns a column sharing c's data that must be released
// independently of c.
func (c *Column) Retain() *Column {
	out := *c
	if out.arr != nil {
		out.arr.Retain()
	}
	return &out
}
