// Package agg implements the reducers of aggregate expressions.
//
// Each reducer accepts values one at a time with Consume or a column slice
// at a time with ConsumeColumn.  Both paths apply the same arithmetic in
// the same order so that their results are bit-identical.
package agg

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/vector"
)

type Function interface {
	Consume(arbor.Value) error
	// ConsumeColumn consumes the slots of c selected by sel in order.
	ConsumeColumn(c *vector.Column, sel vector.Mask) error
	Result() (arbor.Value, error)
}

// Names lists the supported aggregate functions.
var Names = []string{"all", "any", "count", "dcount", "first", "last", "max", "mean", "min", "sum"}

// New returns a fresh reducer for the named aggregate function.
func New(name string) (Function, error) {
	switch name {
	case "sum":
		return &Sum{}, nil
	case "count":
		return new(Count), nil
	case "mean":
		return &Mean{}, nil
	case "min":
		return &MinMax{less: true}, nil
	case "max":
		return &MinMax{}, nil
	case "any":
		return &Any{}, nil
	case "all":
		return &All{}, nil
	case "first":
		return &First{}, nil
	case "last":
		return &Last{}, nil
	case "dcount":
		return NewDCount(), nil
	}
	return nil, arbor.E(arbor.InvalidOperation, "no such aggregate function %q", name)
}

// consumeBoxed feeds the selected slots of c to f one at a time.
func consumeBoxed(f Function, c *vector.Column, sel vector.Mask) error {
	for _, i := range sel.Indices() {
		if err := f.Consume(c.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

func checkNumber(name string, v arbor.Value) error {
	switch {
	case v.IsVector():
		return arbor.E(arbor.Cardinality, "%s: argument is a list", name)
	case !v.IsNumber():
		return arbor.E(arbor.TypeMismatch, "%s: not a number: %s", name, v)
	}
	return nil
}

// Sum adds numbers, skipping Null and Missing.  The sum is an int until a
// float is consumed.  The sum of nothing is the int 0.
type Sum struct {
	isFloat bool
	i       int64
	f       float64
}

var _ Function = (*Sum)(nil)

func (s *Sum) Consume(v arbor.Value) error {
	if v.IsAbsent() {
		return nil
	}
	if err := checkNumber("sum", v); err != nil {
		return err
	}
	if v.Kind() == arbor.KindInt {
		s.addInt(v.Int())
	} else {
		s.addFloat(v.Float())
	}
	return nil
}

func (s *Sum) addInt(i int64) {
	if s.isFloat {
		s.f += float64(i)
	} else {
		s.i += i
	}
}

func (s *Sum) addFloat(f float64) {
	if !s.isFloat {
		s.isFloat = true
		s.f = float64(s.i)
	}
	s.f += f
}

func (s *Sum) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	switch {
	case c.IsBoxed():
		return consumeBoxed(s, c, sel)
	case c.Kind() == arbor.KindInt:
		for _, i := range sel.Indices() {
			if !c.IsAbsent(i) {
				s.addInt(c.Int(i))
			}
		}
	case c.Kind() == arbor.KindFloat:
		for _, i := range sel.Indices() {
			if !c.IsAbsent(i) {
				s.addFloat(c.Float(i))
			}
		}
	default:
		return consumeBoxed(s, c, sel)
	}
	return nil
}

func (s *Sum) Result() (arbor.Value, error) {
	if s.isFloat {
		return arbor.NewFloat(s.f), nil
	}
	return arbor.NewInt(s.i), nil
}

// Count counts rows.  Null and Missing values count as present.
type Count int64

var _ Function = (*Count)(nil)

func (c *Count) Consume(arbor.Value) error {
	*c++
	return nil
}

func (c *Count) ConsumeColumn(_ *vector.Column, sel vector.Mask) error {
	*c += Count(sel.Count())
	return nil
}

func (c Count) Result() (arbor.Value, error) {
	return arbor.NewInt(int64(c)), nil
}

// Mean averages numbers, skipping Null and Missing.
type Mean struct {
	sum   float64
	count int64
}

var _ Function = (*Mean)(nil)

func (m *Mean) Consume(v arbor.Value) error {
	if v.IsAbsent() {
		return nil
	}
	if err := checkNumber("mean", v); err != nil {
		return err
	}
	m.add(v.AsFloat())
	return nil
}

func (m *Mean) add(f float64) {
	m.sum += f
	m.count++
}

func (m *Mean) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	switch {
	case c.IsBoxed():
		return consumeBoxed(m, c, sel)
	case c.Kind() == arbor.KindInt:
		for _, i := range sel.Indices() {
			if !c.IsAbsent(i) {
				m.add(float64(c.Int(i)))
			}
		}
	case c.Kind() == arbor.KindFloat:
		for _, i := range sel.Indices() {
			if !c.IsAbsent(i) {
				m.add(c.Float(i))
			}
		}
	default:
		return consumeBoxed(m, c, sel)
	}
	return nil
}

func (m *Mean) Result() (arbor.Value, error) {
	if m.count == 0 {
		return arbor.Value{}, arbor.E(arbor.EmptyAggregation, "mean of no values")
	}
	return arbor.NewFloat(m.sum / float64(m.count)), nil
}
