package agg_test

import (
	"testing"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr/agg"
	"github.com/brimdata/arbor/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduce(t *testing.T, name string, vals ...arbor.Value) (arbor.Value, error) {
	t.Helper()
	f, err := agg.New(name)
	require.NoError(t, err)
	for _, v := range vals {
		if err := f.Consume(v); err != nil {
			return arbor.Value{}, err
		}
	}
	return f.Result()
}

func TestEmpty(t *testing.T) {
	cases := []struct {
		name string
		want arbor.Value
		err  error
	}{
		{"sum", arbor.NewInt(0), nil},
		{"count", arbor.NewInt(0), nil},
		{"mean", arbor.Value{}, arbor.ErrEmptyAggregation},
		{"min", arbor.Value{}, arbor.ErrEmptyAggregation},
		{"max", arbor.Value{}, arbor.ErrEmptyAggregation},
		{"any", arbor.False, nil},
		{"all", arbor.True, nil},
		{"first", arbor.Null, nil},
		{"last", arbor.Null, nil},
		{"dcount", arbor.NewInt(0), nil},
	}
	for _, c := range cases {
		v, err := reduce(t, c.name)
		if c.err != nil {
			assert.ErrorIs(t, err, c.err, c.name)
			continue
		}
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, v, c.name)
	}
}

func TestAllAbsent(t *testing.T) {
	absent := []arbor.Value{arbor.Null, arbor.Missing}
	v, err := reduce(t, "count", absent...)
	require.NoError(t, err)
	assert.Equal(t, arbor.NewInt(2), v)
	v, err = reduce(t, "first", absent...)
	require.NoError(t, err)
	assert.Equal(t, arbor.Null, v)
	v, err = reduce(t, "last", absent...)
	require.NoError(t, err)
	assert.Equal(t, arbor.Null, v)
	_, err = reduce(t, "mean", absent...)
	assert.ErrorIs(t, err, arbor.ErrEmptyAggregation)
	v, err = reduce(t, "all", absent...)
	require.NoError(t, err)
	assert.Equal(t, arbor.True, v)
}

func TestValues(t *testing.T) {
	i, f, s := arbor.NewInt, arbor.NewFloat, arbor.NewString
	cases := []struct {
		name string
		in   []arbor.Value
		want arbor.Value
	}{
		{"sum", []arbor.Value{i(1), i(2), arbor.Null, i(3)}, i(6)},
		{"sum", []arbor.Value{i(1), f(0.5), i(2)}, f(3.5)},
		{"mean", []arbor.Value{i(1), i(2), arbor.Missing}, f(1.5)},
		{"min", []arbor.Value{i(3), f(2.5), i(7)}, f(2.5)},
		{"max", []arbor.Value{i(3), f(2.5), i(7)}, i(7)},
		{"min", []arbor.Value{s("b"), s("a"), i(100)}, i(100)},
		{"max", []arbor.Value{i(2), f(2.0)}, i(2)},
		{"any", []arbor.Value{arbor.False, arbor.Null, arbor.True}, arbor.True},
		{"all", []arbor.Value{arbor.True, arbor.Null, arbor.False}, arbor.False},
		{"first", []arbor.Value{arbor.Null, i(4), i(5)}, i(4)},
		{"last", []arbor.Value{i(4), i(5), arbor.Missing}, i(5)},
		{"dcount", []arbor.Value{i(1), i(1), s("1"), f(1)}, i(3)},
	}
	for _, c := range cases {
		v, err := reduce(t, c.name, c.in...)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, v, "%s(%v)", c.name, c.in)
	}
}

func TestErrors(t *testing.T) {
	list := arbor.NewVector([]arbor.Value{arbor.NewInt(1)})
	_, err := reduce(t, "sum", arbor.NewString("x"))
	assert.ErrorIs(t, err, arbor.ErrTypeMismatch)
	_, err = reduce(t, "sum", list)
	assert.ErrorIs(t, err, arbor.ErrCardinality)
	_, err = reduce(t, "any", arbor.NewInt(1))
	assert.ErrorIs(t, err, arbor.ErrTypeMismatch)
	_, err = reduce(t, "max", list)
	assert.ErrorIs(t, err, arbor.ErrCardinality)
	_, err = agg.New("median")
	assert.ErrorIs(t, err, arbor.ErrInvalidOperation)
}

func TestColumnMatchesConsume(t *testing.T) {
	ints := []arbor.Value{arbor.NewInt(5), arbor.Null, arbor.NewInt(-2), arbor.Missing, arbor.NewInt(9)}
	floats := []arbor.Value{arbor.NewFloat(0.1), arbor.NewFloat(0.2), arbor.Null, arbor.NewFloat(0.3)}
	bools := []arbor.Value{arbor.True, arbor.Missing, arbor.False}
	inputs := []struct {
		kind arbor.Kind
		vals []arbor.Value
	}{
		{arbor.KindInt, ints},
		{arbor.KindFloat, floats},
		{arbor.KindBool, bools},
		{arbor.KindMixed, []arbor.Value{arbor.NewInt(1), arbor.NewString("x"), arbor.Null}},
	}
	for _, name := range agg.Names {
		for _, in := range inputs {
			seq, err := agg.New(name)
			require.NoError(t, err)
			col, err := agg.New(name)
			require.NoError(t, err)
			// Feed a prefix one at a time and the rest as two columns so
			// that mixed consumption is covered.
			var seqErr error
			for _, v := range in.vals {
				if seqErr = seq.Consume(v); seqErr != nil {
					break
				}
			}
			c := vector.FromValues(in.kind, in.vals)
			sel := vector.Full(len(in.vals))
			sel.Clear(0)
			colErr := col.Consume(in.vals[0])
			if colErr == nil {
				colErr = col.ConsumeColumn(c, sel)
			}
			if seqErr != nil {
				assert.Error(t, colErr, "%s over %s", name, in.kind)
				continue
			}
			require.NoError(t, colErr, "%s over %s", name, in.kind)
			want, werr := seq.Result()
			got, gerr := col.Result()
			assert.Equal(t, werr, gerr)
			assert.Equal(t, want, got, "%s over %s", name, in.kind)
		}
	}
}

func TestFloatSumOrder(t *testing.T) {
	vals := []arbor.Value{arbor.NewInt(1), arbor.NewFloat(1e16), arbor.NewInt(1), arbor.NewFloat(-1e16)}
	seq := &agg.Sum{}
	for _, v := range vals {
		require.NoError(t, seq.Consume(v))
	}
	col := &agg.Sum{}
	require.NoError(t, col.Consume(vals[0]))
	require.NoError(t, col.Consume(vals[1]))
	c := vector.FromValues(arbor.KindInt, vals[2:3])
	require.NoError(t, col.ConsumeColumn(c, vector.Full(1)))
	require.NoError(t, col.Consume(vals[3]))
	want, _ := seq.Result()
	got, _ := col.Result()
	assert.Equal(t, want, got)
}
