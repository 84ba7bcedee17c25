package runtime_test

import (
	"fmt"
	"testing"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/expr/agg"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/runtime"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregates() []plan.Assignment {
	return []plan.Assignment{
		{Name: "sum_a", Expr: expr.Sum(a)},
		{Name: "sum_b", Expr: expr.Sum(b)},
		{Name: "rows", Expr: expr.Count(nil)},
		{Name: "count_a", Expr: expr.Count(a)},
		{Name: "mean_b", Expr: expr.Mean(b)},
		{Name: "min_a", Expr: expr.Min(a)},
		{Name: "max_b", Expr: expr.Max(b)},
		{Name: "max_s", Expr: expr.Max(s)},
		{Name: "any_t", Expr: expr.Any(tt)},
		{Name: "all_t", Expr: expr.All(tt)},
		{Name: "first_s", Expr: expr.First(s)},
		{Name: "last_a", Expr: expr.Last(a)},
		{Name: "distinct_s", Expr: &expr.Agg{Name: "dcount", Arg: s}},
	}
}

func oracleAggregate(t *testing.T, vals []arbor.Value, aggs []plan.Assignment) arbor.Value {
	var fields []arbor.Field
	for _, as := range aggs {
		call := as.Expr.(*expr.Agg)
		fn, err := agg.New(call.Name)
		require.NoError(t, err)
		for _, v := range vals {
			arg := v
			if call.Arg != nil {
				arg, err = expr.Eval(call.Arg, v)
				require.NoError(t, err)
			}
			require.NoError(t, fn.Consume(arg))
		}
		r, err := fn.Result()
		require.NoError(t, err)
		fields = append(fields, arbor.Field{Name: as.Name, Value: r})
	}
	return arbor.NewObject(fields)
}

func TestAggregateBackendsAgree(t *testing.T) {
	vals := mixedDocs(50)
	aggs := aggregates()
	expected := oracleAggregate(t, vals, aggs)
	for name, src := range sources(t, vals) {
		for _, mode := range modes {
			t.Run(fmt.Sprintf("%s/%s", name, mode), func(t *testing.T) {
				got, err := runtime.Aggregate(rctx(mode), src, aggs)
				require.NoError(t, err)
				assert.Equal(t, expected.String(), got.String())
			})
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	cases := []struct {
		agg      *expr.Agg
		expected string
		err      error
	}{
		{agg: expr.Sum(a), expected: "0"},
		{agg: expr.Count(nil), expected: "0"},
		{agg: expr.Count(a), expected: "0"},
		{agg: expr.Mean(a), err: arbor.ErrEmptyAggregation},
		{agg: expr.Min(a), err: arbor.ErrEmptyAggregation},
		{agg: expr.Max(a), err: arbor.ErrEmptyAggregation},
		{agg: expr.Any(tt), expected: "false"},
		{agg: expr.All(tt), expected: "true"},
		{agg: expr.First(a), expected: "null"},
		{agg: expr.Last(a), expected: "null"},
		{agg: &expr.Agg{Name: "dcount", Arg: a}, expected: "0"},
	}
	empty := map[string]source.Source{
		"memory":  source.NewMemory(store.Empty()),
		"batched": source.NewBatched(container(t, nil, 10)),
	}
	for name, src := range empty {
		for _, c := range cases {
			for _, mode := range modes {
				t.Run(fmt.Sprintf("%s/%s/%s", name, c.agg, mode), func(t *testing.T) {
					got, err := runtime.Aggregate(rctx(mode), src, []plan.Assignment{{Name: "x", Expr: c.agg}})
					if c.err != nil {
						assert.ErrorIs(t, err, c.err)
						return
					}
					require.NoError(t, err)
					assert.Equal(t, c.expected, got.Get("x").String())
				})
			}
		}
	}
}

func TestCountCountsAbsentValues(t *testing.T) {
	src, err := source.FromValues([]arbor.Value{
		arbor.MustParseJSON(`{"a":1}`),
		arbor.MustParseJSON(`{"a":null}`),
		arbor.MustParseJSON(`{}`),
	})
	require.NoError(t, err)
	for _, mode := range modes {
		got, err := runtime.Aggregate(rctx(mode), src, []plan.Assignment{
			{Name: "rows", Expr: expr.Count(nil)},
			{Name: "a", Expr: expr.Count(a)},
		})
		require.NoError(t, err)
		assert.Equal(t, `{"rows":3,"a":3}`, got.String(), "mode %s", mode)
	}
}

func TestAggregateRequiresAggregateFunction(t *testing.T) {
	src, err := source.FromValues(mixedDocs(3))
	require.NoError(t, err)
	_, err = runtime.Aggregate(rctx(runtime.Auto), src, []plan.Assignment{{Name: "x", Expr: a}})
	assert.ErrorIs(t, err, arbor.ErrInvalidOperation)
	_, err = runtime.Aggregate(rctx(runtime.Auto), src, []plan.Assignment{{Name: "x", Expr: &expr.Agg{Name: "median", Arg: a}}})
	assert.Error(t, err)
}

func TestAggregateTypeMismatch(t *testing.T) {
	vals := mixedDocs(20)
	for name, src := range sources(t, vals) {
		for _, mode := range modes {
			t.Run(fmt.Sprintf("%s/%s", name, mode), func(t *testing.T) {
				_, err := runtime.Aggregate(rctx(mode), src, []plan.Assignment{{Name: "x", Expr: expr.Sum(s)}})
				assert.ErrorIs(t, err, arbor.ErrTypeMismatch)
			})
		}
	}
}

func TestGroupBy(t *testing.T) {
	src, err := source.FromValues([]arbor.Value{
		arbor.MustParseJSON(`{"k":"b","v":1}`),
		arbor.MustParseJSON(`{"k":null,"v":2}`),
		arbor.MustParseJSON(`{"v":3}`),
		arbor.MustParseJSON(`{"k":"a","v":4}`),
		arbor.MustParseJSON(`{"k":"b","v":5}`),
		arbor.MustParseJSON(`{"k":null,"v":6}`),
		arbor.MustParseJSON(`{"k":1,"v":7}`),
		arbor.MustParseJSON(`{"k":1.0,"v":8}`),
	})
	require.NoError(t, err)
	got, err := runtime.GroupBy(rctx(runtime.Auto), src,
		[]plan.Assignment{{Name: "k", Expr: expr.Path("k")}},
		[]plan.Assignment{
			{Name: "n", Expr: expr.Count(nil)},
			{Name: "total", Expr: expr.Sum(expr.Path("v"))},
		})
	require.NoError(t, err)
	var rendered []string
	for _, v := range got {
		rendered = append(rendered, v.String())
	}
	// Null and Missing keys form separate groups, and 1 and 1.0 are
	// distinct under the total order.
	assert.Equal(t, []string{
		`{"k":"b","n":2,"total":6}`,
		`{"k":null,"n":2,"total":8}`,
		`{"n":1,"total":3}`,
		`{"k":"a","n":1,"total":4}`,
		`{"k":1,"n":1,"total":7}`,
		`{"k":1.0,"n":1,"total":8}`,
	}, rendered)
}

func TestGroupByMultipleKeys(t *testing.T) {
	src, err := source.FromValues([]arbor.Value{
		arbor.MustParseJSON(`{"x":1,"y":"a"}`),
		arbor.MustParseJSON(`{"x":1,"y":"b"}`),
		arbor.MustParseJSON(`{"x":1,"y":"a"}`),
		arbor.MustParseJSON(`{"x":2,"y":"a"}`),
	})
	require.NoError(t, err)
	got, err := runtime.GroupBy(rctx(runtime.Auto), src,
		[]plan.Assignment{{Name: "x", Expr: expr.Path("x")}, {Name: "y", Expr: expr.Path("y")}},
		[]plan.Assignment{{Name: "n", Expr: expr.Count(nil)}})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, `{"x":1,"y":"a","n":2}`, got[0].String())
	assert.Equal(t, `{"x":1,"y":"b","n":1}`, got[1].String())
	assert.Equal(t, `{"x":2,"y":"a","n":1}`, got[2].String())
}

func TestGroupByListKey(t *testing.T) {
	src, err := source.FromValues([]arbor.Value{arbor.MustParseJSON(`{"items":[{"k":1},{"k":2}]}`)})
	require.NoError(t, err)
	_, err = runtime.GroupBy(rctx(runtime.Auto), src,
		[]plan.Assignment{{Name: "k", Expr: expr.Path("items.k")}},
		[]plan.Assignment{{Name: "n", Expr: expr.Count(nil)}})
	assert.ErrorIs(t, err, arbor.ErrCardinality)
}
