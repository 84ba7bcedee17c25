package arbor

import (
	"math"
	"sort"
	"strings"
)

// rank positions each class of value in the total order
//
//	false < true < int < float < NaN < string < array < object < null < missing
func rank(v Value) int {
	switch v.kind {
	case KindBool:
		return 0
	case KindInt:
		return 1
	case KindFloat:
		if math.IsNaN(v.Float()) {
			return 3
		}
		return 2
	case KindString:
		return 4
	case KindArray:
		return 5
	case KindObject:
		return 6
	case KindNull:
		return 7
	default:
		return 8
	}
}

// Compare returns -1, 0, or +1 according to the total order over all
// values.  Compare never fails on mixed kinds so that sorting and grouping
// are always defined.  Null and Missing are distinct and sort last.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindBool:
		return compareBools(a.Bool(), b.Bool())
	case KindInt:
		return CompareInts(a.Int(), b.Int())
	case KindFloat:
		return CompareFloats(a.Float(), b.Float())
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindArray:
		return compareArrays(a.arr, b.arr)
	case KindObject:
		return compareObjects(a.flds, b.flds)
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func CompareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareFloats orders floats with every NaN equal to every other NaN and
// greater than all other floats.  -0 equals +0.
func CompareFloats(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareArrays(a, b []Value) int {
	for k := 0; k < len(a) && k < len(b); k++ {
		if c := Compare(a[k], b[k]); c != 0 {
			return c
		}
	}
	return CompareInts(int64(len(a)), int64(len(b)))
}

func compareObjects(a, b []Field) int {
	a, b = sortedFields(a), sortedFields(b)
	for k := 0; k < len(a) && k < len(b); k++ {
		if c := strings.Compare(a[k].Name, b[k].Name); c != 0 {
			return c
		}
		if c := Compare(a[k].Value, b[k].Value); c != 0 {
			return c
		}
	}
	return CompareInts(int64(len(a)), int64(len(b)))
}

func sortedFields(fields []Field) []Field {
	if sort.SliceIsSorted(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name }) {
		return fields
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CompareValues compares two equal-length tuples lexicographically.
func CompareValues(a, b []Value) int {
	for k := range a {
		if c := Compare(a[k], b[k]); c != 0 {
			return c
		}
	}
	return 0
}
