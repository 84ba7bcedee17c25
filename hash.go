package arbor

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a 64-bit hash of v that is consistent with Compare, i.e.,
// Compare(a, b) == 0 implies Hash(a) == Hash(b).
func Hash(v Value) uint64 {
	d := xxhash.New()
	writeHash(d, v)
	return d.Sum64()
}

// HashValues hashes a tuple of values.
func HashValues(vals []Value) uint64 {
	d := xxhash.New()
	for _, v := range vals {
		writeHash(d, v)
	}
	return d.Sum64()
}

func writeHash(d *xxhash.Digest, v Value) {
	var scratch [9]byte
	scratch[0] = byte(rank(v))
	switch v.kind {
	case KindBool, KindInt:
		binary.LittleEndian.PutUint64(scratch[1:], v.num)
		d.Write(scratch[:])
	case KindFloat:
		f := v.Float()
		switch {
		case math.IsNaN(f):
			f = math.NaN()
		case f == 0:
			f = 0
		}
		binary.LittleEndian.PutUint64(scratch[1:], math.Float64bits(f))
		d.Write(scratch[:])
	case KindString:
		binary.LittleEndian.PutUint64(scratch[1:], uint64(len(v.str)))
		d.Write(scratch[:])
		d.WriteString(v.str)
	case KindArray:
		binary.LittleEndian.PutUint64(scratch[1:], uint64(len(v.arr)))
		d.Write(scratch[:])
		for _, elem := range v.arr {
			writeHash(d, elem)
		}
	case KindObject:
		fields := sortedFields(v.flds)
		binary.LittleEndian.PutUint64(scratch[1:], uint64(len(fields)))
		d.Write(scratch[:])
		for _, f := range fields {
			writeHash(d, NewString(f.Name))
			writeHash(d, f.Value)
		}
	default:
		d.Write(scratch[:1])
	}
}
