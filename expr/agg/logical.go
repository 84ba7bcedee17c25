package agg

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/vector"
)

// Any is true if some consumed bool is true.  Null and Missing are
// skipped, so any of nothing is false.
type Any struct {
	val bool
}

var _ Function = (*Any)(nil)

func (a *Any) Consume(v arbor.Value) error {
	b, ok, err := boolArg("any", v)
	if ok {
		a.val = a.val || b
	}
	return err
}

func (a *Any) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	if c.IsBoxed() || c.Kind() != arbor.KindBool {
		return consumeBoxed(a, c, sel)
	}
	for _, i := range sel.Indices() {
		if !c.IsAbsent(i) && c.Bool(i) {
			a.val = true
		}
	}
	return nil
}

func (a *Any) Result() (arbor.Value, error) {
	return arbor.NewBool(a.val), nil
}

// All is true unless some consumed bool is false.  All of nothing is true.
type All struct {
	falsified bool
}

var _ Function = (*All)(nil)

func (a *All) Consume(v arbor.Value) error {
	b, ok, err := boolArg("all", v)
	if ok && !b {
		a.falsified = true
	}
	return err
}

func (a *All) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	if c.IsBoxed() || c.Kind() != arbor.KindBool {
		return consumeBoxed(a, c, sel)
	}
	for _, i := range sel.Indices() {
		if !c.IsAbsent(i) && !c.Bool(i) {
			a.falsified = true
		}
	}
	return nil
}

func (a *All) Result() (arbor.Value, error) {
	return arbor.NewBool(!a.falsified), nil
}

func boolArg(name string, v arbor.Value) (bool, bool, error) {
	switch {
	case v.IsVector():
		return false, false, arbor.E(arbor.Cardinality, "%s: argument is a list", name)
	case v.IsAbsent():
		return false, false, nil
	case v.Kind() != arbor.KindBool:
		return false, false, arbor.E(arbor.TypeMismatch, "%s: not a bool: %s", name, v)
	}
	return v.Bool(), true, nil
}

// First keeps the first value that is neither Null nor Missing.
type First struct {
	seen bool
	val  arbor.Value
}

var _ Function = (*First)(nil)

func (f *First) Consume(v arbor.Value) error {
	if !f.seen && !v.IsAbsent() {
		f.seen, f.val = true, v
	}
	return nil
}

func (f *First) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	if f.seen {
		return nil
	}
	for _, i := range sel.Indices() {
		if !c.IsAbsent(i) {
			return f.Consume(c.Value(i))
		}
	}
	return nil
}

func (f *First) Result() (arbor.Value, error) {
	if !f.seen {
		return arbor.Null, nil
	}
	return f.val, nil
}

// Last keeps the last value that is neither Null nor Missing.
type Last struct {
	seen bool
	val  arbor.Value
}

var _ Function = (*Last)(nil)

func (l *Last) Consume(v arbor.Value) error {
	if !v.IsAbsent() {
		l.seen, l.val = true, v
	}
	return nil
}

func (l *Last) ConsumeColumn(c *vector.Column, sel vector.Mask) error {
	indices := sel.Indices()
	for k := len(indices) - 1; k >= 0; k-- {
		if i := indices[k]; !c.IsAbsent(i) {
			return l.Consume(c.Value(i))
		}
	}
	return nil
}

func (l *Last) Result() (arbor.Value, error) {
	if !l.seen {
		return arbor.Null, nil
	}
	return l.val, nil
}
