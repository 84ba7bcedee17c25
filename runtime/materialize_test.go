package runtime_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/order"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/runtime"
	"github.com/brimdata/arbor/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeline(src source.Source) *plan.Plan {
	p := plan.New(src)
	p.Add(&plan.Filter{Pred: expr.And(tt, expr.Gt(a, expr.Int(0)))})
	p.Add(&plan.AddField{Fields: []plan.Assignment{{Name: "x", Expr: expr.Mul(a, expr.Int(2))}}})
	p.Add(&plan.Sort{Keys: order.SortKeys{order.NewSortKey(order.Desc, field.Path{"a"})}})
	p.Add(&plan.Head{N: 5})
	p.Add(&plan.Select{Exprs: []expr.Expr{a, expr.Path("x"), s}})
	return p
}

func TestMaterializeSourcesAgree(t *testing.T) {
	vals := mixedDocs(60)
	var results [][]string
	for name, src := range sources(t, vals) {
		for _, mode := range modes {
			f, err := runtime.Materialize(rctx(mode), pipeline(src))
			require.NoError(t, err, "%s/%s", name, mode)
			results = append(results, rendered(f.Trees()))
			f.Release()
		}
	}
	require.Len(t, results[0], 5)
	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
	assert.Equal(t, `{"a":131,"x":262,"s":"y"}`, results[0][0])
}

func TestMaterializeFusesFilterHead(t *testing.T) {
	vals := make([]arbor.Value, 100)
	for k := range vals {
		vals[k] = arbor.MustParseJSON(fmt.Sprintf(`{"n":%d}`, k))
	}
	c := container(t, vals, 10)
	p := plan.New(source.NewBatched(c))
	p.Add(&plan.Filter{Pred: expr.Ge(expr.Path("n"), expr.Int(15))})
	p.Add(&plan.Head{N: 10})

	reg := prometheus.NewRegistry()
	ctx := rctx(runtime.Auto)
	ctx.Metrics = runtime.NewMetrics(reg)
	f, err := runtime.Materialize(ctx, p)
	require.NoError(t, err)
	defer f.Release()
	require.Equal(t, 10, f.Len())
	assert.Equal(t, `{"n":15}`, f.Tree(0).String())
	assert.Equal(t, `{"n":24}`, f.Tree(9).String())
	assert.EqualValues(t, 3, c.Stats().BatchesDecoded)

	expected := `
# HELP arbor_exec_ops_total Number of operations executed by backend.
# TYPE arbor_exec_ops_total counter
arbor_exec_ops_total{backend="vectorized",op="filterhead"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "arbor_exec_ops_total"))
}

func TestMaterializeAggregates(t *testing.T) {
	src := memory(t, `{"k":"a","v":1}`, `{"k":"b","v":2}`, `{"k":"a","v":3}`)
	p := plan.New(src)
	p.Add(&plan.Aggregate{
		Keys: []plan.Assignment{{Name: "k", Expr: expr.Path("k")}},
		Aggs: []plan.Assignment{{Name: "total", Expr: expr.Sum(expr.Path("v"))}},
	})
	f, err := runtime.Materialize(rctx(runtime.Auto), p)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"k":"a","total":4}`, `{"k":"b","total":2}`}, rendered(f.Trees()))

	p = plan.New(src)
	p.Add(&plan.Aggregate{Aggs: []plan.Assignment{{Name: "n", Expr: expr.Count(nil)}}})
	f, err = runtime.Materialize(rctx(runtime.Auto), p)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"n":3}`}, rendered(f.Trees()))
}

func TestMaterializeJoinExplodeTail(t *testing.T) {
	left := memory(t, `{"id":1,"tags":["a","b"]}`, `{"id":2,"tags":["c"]}`)
	right := memory(t, `{"id":2,"name":"two"}`)
	p := plan.New(left)
	p.Add(&plan.Explode{Path: field.Path{"tags"}})
	p.Add(&plan.Tail{N: 2})
	p.Add(&plan.Join{
		Right:   right,
		LeftOn:  []expr.Expr{expr.Path("id")},
		RightOn: []expr.Expr{expr.Path("id")},
		Type:    plan.Left,
	})
	f, err := runtime.Materialize(rctx(runtime.Auto), p)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"left":{"id":1,"tags":"b"},"right":null}`,
		`{"left":{"id":2,"tags":"c"},"right":{"id":2,"name":"two"}}`,
	}, rendered(f.Trees()))
}

func TestMaterializeSourceOnly(t *testing.T) {
	vals := mixedDocs(12)
	for name, src := range sources(t, vals) {
		t.Run(name, func(t *testing.T) {
			f, err := runtime.Materialize(rctx(runtime.Auto), plan.New(src))
			require.NoError(t, err)
			requireSameValues(t, vals, f.Trees())
		})
	}
}

func TestMaterializeError(t *testing.T) {
	p := plan.New(memory(t, `{"a":"x"}`))
	p.Add(&plan.Filter{Pred: expr.Gt(expr.Neg(expr.Path("a")), expr.Int(0))})
	_, err := runtime.Materialize(rctx(runtime.Auto), p)
	assert.ErrorIs(t, err, arbor.ErrTypeMismatch)
}
