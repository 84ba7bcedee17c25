package arbor

import (
	"fmt"
	"math"
	"strings"

	"github.com/brimdata/arbor/field"
)

// Kind is the type class of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindMissing
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	// KindMixed appears only in schemas and describes a field that holds
	// values of more than one kind across documents.
	KindMixed
)

var kindNames = []string{
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
	KindNull:    "null",
	KindMissing: "missing",
	KindMixed:   "mixed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown kind: %q", b)
}

// IsPrimitive is true for kinds that can be stored in a flat column.
func (k Kind) IsPrimitive() bool {
	return k >= KindBool && k <= KindString
}

// Value is an immutable result value.  The zero Value is Null.
type Value struct {
	kind Kind
	// vec marks an array produced by fanning a path out over array
	// elements.  Such a list cannot appear where a single value is required.
	vec  bool
	num  uint64
	str  string
	arr  []Value
	flds []Field
}

// Field is a named value within an object.
type Field struct {
	Name  string
	Value Value
}

var (
	Null    = Value{kind: KindNull}
	Missing = Value{kind: KindMissing}
	True    = Value{kind: KindBool, num: 1}
	False   = Value{kind: KindBool}
)

func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

func NewInt(i int64) Value {
	return Value{kind: KindInt, num: uint64(i)}
}

func NewFloat(f float64) Value {
	return Value{kind: KindFloat, num: math.Float64bits(f)}
}

func NewString(s string) Value {
	return Value{kind: KindString, str: s}
}

// NewArray returns an array value that takes ownership of vals.
func NewArray(vals []Value) Value {
	return Value{kind: KindArray, arr: vals}
}

// NewVector returns a vector-valued list, i.e., the result of evaluating a
// path through an array.
func NewVector(vals []Value) Value {
	return Value{kind: KindArray, arr: vals, vec: true}
}

// NewObject returns an object value that takes ownership of fields.
// Fields with Missing values are dropped.  If a name repeats, the last
// value wins at the position of the first occurrence.
func NewObject(fields []Field) Value {
	out := fields[:0:0]
	for _, f := range fields {
		if f.Value.kind == KindMissing {
			continue
		}
		if i := indexOf(out, f.Name); i >= 0 {
			out[i].Value = f.Value
			continue
		}
		out = append(out, f)
	}
	return Value{kind: KindObject, flds: out}
}

func indexOf(fields []Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// IsAbsent is true for Null or Missing.
func (v Value) IsAbsent() bool {
	return v.kind == KindNull || v.kind == KindMissing
}

// IsVector is true for a vector-valued list.
func (v Value) IsVector() bool {
	return v.vec
}

func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

func (v Value) Bool() bool {
	return v.num != 0
}

func (v Value) Int() int64 {
	return int64(v.num)
}

func (v Value) Float() float64 {
	return math.Float64frombits(v.num)
}

// AsFloat returns the value of a number as a float64.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.Int())
	}
	return v.Float()
}

func (v Value) Str() string {
	return v.str
}

// Array returns the elements of an array.  The caller must not modify them.
func (v Value) Array() []Value {
	return v.arr
}

// Fields returns the fields of an object.  The caller must not modify them.
func (v Value) Fields() []Field {
	return v.flds
}

// Len returns the number of elements of an array or fields of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.flds)
	}
	return 0
}

// Get returns the named field of an object or Missing.
func (v Value) Get(name string) Value {
	if v.kind != KindObject {
		return Missing
	}
	if i := indexOf(v.flds, name); i >= 0 {
		return v.flds[i].Value
	}
	return Missing
}

// Lookup follows path through nested objects.  It does not descend into
// arrays.
func (v Value) Lookup(path field.Path) Value {
	for _, name := range path {
		v = v.Get(name)
		if v.kind == KindMissing {
			break
		}
	}
	return v
}

// With returns a copy of the object v with the named field set to val.
// An existing field keeps its position.  Setting Missing removes the field.
// If v is not an object, With treats it as an empty object.
func (v Value) With(name string, val Value) Value {
	var fields []Field
	if v.kind == KindObject {
		fields = make([]Field, 0, len(v.flds)+1)
		fields = append(fields, v.flds...)
	}
	i := indexOf(fields, name)
	switch {
	case val.kind == KindMissing && i >= 0:
		fields = append(fields[:i], fields[i+1:]...)
	case val.kind == KindMissing:
	case i >= 0:
		fields[i].Value = val
	default:
		fields = append(fields, Field{name, val})
	}
	return Value{kind: KindObject, flds: fields}
}

// WithPath is like With but sets a nested field, creating intermediate
// objects as needed.
func (v Value) WithPath(path field.Path, val Value) Value {
	if len(path) == 0 {
		return val
	}
	if len(path) == 1 {
		return v.With(path[0], val)
	}
	child := v.Get(path[0])
	if child.kind != KindObject {
		child = Value{kind: KindObject}
	}
	return v.With(path[0], child.WithPath(path[1:], val))
}

// Equal is structural equality under the total order.
func (v Value) Equal(to Value) bool {
	return Compare(v, to) == 0
}

// String returns a JSON-like rendering of v.  Missing renders as the bare
// word missing.
func (v Value) String() string {
	if v.kind == KindMissing {
		return "missing"
	}
	return string(v.AppendJSON(nil))
}

// GoString lets test failures show values readably.
func (v Value) GoString() string {
	var b strings.Builder
	b.WriteString("arbor.Value(")
	b.WriteString(v.String())
	b.WriteString(")")
	return b.String()
}
