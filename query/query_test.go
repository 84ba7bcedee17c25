package query_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/order"
	"github.com/brimdata/arbor/pkg/storage"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/query"
	"github.com/brimdata/arbor/runtime"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rendered(t *testing.T, f *store.Forest) []string {
	t.Helper()
	out := make([]string, f.Len())
	for k, v := range f.Trees() {
		out[k] = v.String()
	}
	return out
}

func arborOf(t *testing.T, docs ...string) *query.Arbor {
	t.Helper()
	a, err := query.FromJSON(docs...)
	require.NoError(t, err)
	return a
}

func TestFusedFilters(t *testing.T) {
	a := arborOf(t, `{"age":30,"active":true}`, `{"age":15,"active":true}`)
	adult := expr.Gt(expr.Path("age"), expr.Int(21))
	active := expr.Eq(expr.Path("active"), expr.Bool(true))
	lazy := a.Lazy().Filter(adult).Filter(active).Filter(adult).Filter(active)

	unoptimized, err := lazy.Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{`{"age":30,"active":true}`}, rendered(t, unoptimized))

	collected, err := lazy.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rendered(t, unoptimized), rendered(t, collected))
	assert.Equal(t, 5, lazy.Plan().Len())

	assert.Equal(t, 3, lazy.Optimize())
	assert.Equal(t, 2, lazy.Plan().Len())
	assert.Equal(t, 0, lazy.Optimize())
	nodes := lazy.Plan().Nodes()
	_, ok := nodes[1].Op.(*plan.Filter)
	assert.True(t, ok)
}

func TestPushdownPastSelect(t *testing.T) {
	a := arborOf(t, `{"a":5,"b":1,"c":0}`, `{"a":11,"b":2,"c":0}`, `{"a":20,"b":3}`)
	lazy := a.Lazy().
		Select(expr.Path("a"), expr.Path("b")).
		Filter(expr.Gt(expr.Path("a"), expr.Int(10)))

	unoptimized, err := lazy.Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, lazy.Optimize())
	nodes := lazy.Plan().Nodes()
	require.Len(t, nodes, 3)
	assert.IsType(t, &plan.Filter{}, nodes[1].Op)
	assert.IsType(t, &plan.Select{}, nodes[2].Op)
	optimized, err := lazy.Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":11,"b":2}`, `{"a":20,"b":3}`}, rendered(t, optimized))
	assert.Equal(t, rendered(t, unoptimized), rendered(t, optimized))
}

func TestEmptyAggregates(t *testing.T) {
	a := query.FromForest(store.Empty())
	v, err := a.Aggregate(plan.Assignment{Name: "total", Expr: expr.Sum(expr.Path("x"))})
	require.NoError(t, err)
	assert.Equal(t, `{"total":0}`, v.String())
	_, err = a.Aggregate(plan.Assignment{Name: "avg", Expr: expr.Mean(expr.Path("x"))})
	assert.ErrorIs(t, err, arbor.ErrEmptyAggregation)
}

func TestJoinExcludesNullKey(t *testing.T) {
	left := arborOf(t, `{"id":1}`)
	right := arborOf(t, `{"id":1}`, `{"id":null}`)
	on := []expr.Expr{expr.Path("id")}
	joined, err := left.Join(right, on, on, plan.Inner)
	require.NoError(t, err)
	trees, err := joined.Trees()
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, `{"left":{"id":1},"right":{"id":1}}`, trees[0].String())

	f, err := left.Lazy().Join(right, on, on, plan.Inner).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{trees[0].String()}, rendered(t, f))
}

func docs(n int) []string {
	out := make([]string, n)
	for k := range out {
		var fields []string
		if k%6 != 1 {
			fields = append(fields, fmt.Sprintf(`"a":%d`, (k*7)%23))
		}
		if k%5 == 2 {
			fields = append(fields, `"b":null`)
		} else {
			fields = append(fields, fmt.Sprintf(`"b":"%c"`, 'p'+rune(k%4)))
		}
		fields = append(fields, fmt.Sprintf(`"tags":[%d,%d]`, k%3, k%2))
		out[k] = "{" + strings.Join(fields, ",") + "}"
	}
	return out
}

func batchedArbor(t *testing.T, docs []string, batchSize int) *query.Arbor {
	t.Helper()
	ctx := context.Background()
	engine := storage.NewMemory()
	uri := storage.MustParseURI("memory://query/" + t.Name())
	w, err := lake.Create(ctx, engine, uri, lake.Options{BatchSize: batchSize})
	require.NoError(t, err)
	for _, d := range docs {
		require.NoError(t, w.Write(arbor.MustParseJSON(d)))
	}
	require.NoError(t, w.Close())
	a, err := query.Open(ctx, engine, uri, lake.Options{})
	require.NoError(t, err)
	return a
}

func TestOptimizerSoundness(t *testing.T) {
	a, b := expr.Path("a"), expr.Path("b")
	sortA, err := order.ParseSortKeys("a,b")
	require.NoError(t, err)
	pipelines := map[string]func(*query.Lazy) *query.Lazy{
		"fuse": func(l *query.Lazy) *query.Lazy {
			return l.Filter(expr.Gt(a, expr.Int(3))).Filter(expr.Ne(b, expr.String("q")))
		},
		"past-sort": func(l *query.Lazy) *query.Lazy {
			return l.Sort(sortA).Filter(expr.Lt(a, expr.Int(12))).Head(7)
		},
		"past-addfields": func(l *query.Lazy) *query.Lazy {
			return l.AddFields(plan.Assignment{Name: "c", Expr: expr.Mul(a, expr.Int(2))}).
				Filter(expr.Eq(b, expr.String("p")))
		},
		"blocked-by-addfields": func(l *query.Lazy) *query.Lazy {
			return l.AddFields(plan.Assignment{Name: "a", Expr: expr.Neg(a)}).
				Filter(expr.Gt(a, expr.Int(-5)))
		},
		"blocked-by-renaming-select": func(l *query.Lazy) *query.Lazy {
			return l.Select(expr.As("a", b), expr.As("b", a)).Filter(expr.Eq(a, expr.String("r")))
		},
		"blocked-by-duplicate-select-name": func(l *query.Lazy) *query.Lazy {
			return l.Select(expr.As("a", b), a).Filter(expr.Func("is_null", a))
		},
		"past-select": func(l *query.Lazy) *query.Lazy {
			return l.Select(a, b).Filter(expr.Ge(a, expr.Int(10))).Filter(expr.Func("is_null", b))
		},
		"blocked-by-head": func(l *query.Lazy) *query.Lazy {
			return l.Head(10).Filter(expr.Gt(a, expr.Int(5)))
		},
		"blocked-by-tail": func(l *query.Lazy) *query.Lazy {
			return l.Tail(10).Filter(expr.Gt(a, expr.Int(5)))
		},
		"blocked-by-aggregate": func(l *query.Lazy) *query.Lazy {
			return l.GroupBy([]plan.Assignment{{Name: "b", Expr: b}}, plan.Assignment{Name: "n", Expr: expr.Count(nil)}).
				Filter(expr.Gt(expr.Path("n"), expr.Int(3)))
		},
		"blocked-by-explode": func(l *query.Lazy) *query.Lazy {
			return l.Explode(field.Path{"tags"}).Filter(expr.Eq(expr.Path("tags"), expr.Int(1)))
		},
		"unknown-field": func(l *query.Lazy) *query.Lazy {
			return l.Sort(sortA).Filter(expr.Func("is_missing", expr.Path("z")))
		},
	}
	for _, src := range []struct {
		name  string
		arbor *query.Arbor
	}{
		{"memory", arborOf(t, docs(40)...)},
		{"batched", batchedArbor(t, docs(40), 6)},
	} {
		for name, build := range pipelines {
			for _, mode := range []runtime.Mode{runtime.Sequential, runtime.Parallel, runtime.Vectorized} {
				t.Run(fmt.Sprintf("%s/%s/%s", src.name, name, mode), func(t *testing.T) {
					lazy := build(src.arbor.WithMode(mode).Lazy())
					ctx := context.Background()
					expected, err := lazy.Materialize(ctx)
					require.NoError(t, err)
					before := lazy.Describe()
					got, err := lazy.Collect(ctx)
					require.NoError(t, err)
					assert.Equal(t, before, lazy.Describe(), "collect must not rewrite the plan")
					assert.Equal(t, rendered(t, expected), rendered(t, got))

					lazy.Optimize()
					assert.Equal(t, 0, lazy.Optimize(), "optimizing twice must be a no-op")
				})
			}
		}
	}
}

func TestEagerOperations(t *testing.T) {
	a := arborOf(t,
		`{"name":"ann","dept":"eng","pay":10,"langs":["go","c"]}`,
		`{"name":"bob","dept":"ops","pay":7,"langs":[]}`,
		`{"name":"cy","dept":"eng","pay":12,"langs":["go"]}`,
		`{"name":"di","pay":9}`,
	)
	assert.Equal(t, 4, a.Len())

	eng, err := a.Filter(expr.Eq(expr.Path("dept"), expr.String("eng")))
	require.NoError(t, err)
	assert.Equal(t, 2, eng.Len())

	names, err := a.Select(expr.Path("name"))
	require.NoError(t, err)
	trees, err := names.Trees()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"di"}`, trees[3].String())

	raised, err := a.AddFields(plan.Assignment{Name: "pay", Expr: expr.Add(expr.Path("pay"), expr.Int(1))})
	require.NoError(t, err)
	v, err := raised.Tree(1)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"bob","dept":"ops","pay":8,"langs":[]}`, v.String())

	groups, err := a.GroupBy([]plan.Assignment{{Name: "dept", Expr: expr.Path("dept")}},
		plan.Assignment{Name: "pay", Expr: expr.Sum(expr.Path("pay"))})
	require.NoError(t, err)
	trees, err = groups.Trees()
	require.NoError(t, err)
	require.Len(t, trees, 3)
	assert.Equal(t, `{"dept":"eng","pay":22}`, trees[0].String())
	assert.Equal(t, `{"pay":9}`, trees[2].String())
	_, err = a.GroupBy(nil)
	assert.ErrorIs(t, err, arbor.ErrInvalidOperation)

	keys, err := order.ParseSortKeys("pay:desc")
	require.NoError(t, err)
	sorted, err := a.Sort(keys)
	require.NoError(t, err)
	top, err := sorted.Head(2)
	require.NoError(t, err)
	trees, err = top.Trees()
	require.NoError(t, err)
	assert.Equal(t, "cy", trees[0].Get("name").Str())
	assert.Equal(t, "ann", trees[1].Get("name").Str())
	last, err := sorted.Tail(1)
	require.NoError(t, err)
	v, err = last.Tree(0)
	require.NoError(t, err)
	assert.Equal(t, "bob", v.Get("name").Str())

	langs, err := a.Explode(field.Path{"langs"})
	require.NoError(t, err)
	assert.Equal(t, 4, langs.Len())

	v, ok, err := a.FindOne(expr.Lt(expr.Path("pay"), expr.Int(10)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", v.Get("name").Str())

	ok, err = a.Any(expr.Gt(expr.Path("pay"), expr.Int(11)))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = a.All(expr.Gt(expr.Path("pay"), expr.Int(5)))
	require.NoError(t, err)
	assert.True(t, ok)

	firstEng, err := a.FilterHead(expr.Eq(expr.Path("dept"), expr.String("eng")), 1)
	require.NoError(t, err)
	v, err = firstEng.Tree(0)
	require.NoError(t, err)
	assert.Equal(t, "ann", v.Get("name").Str())
}

func TestLazyBuildersDoNotShare(t *testing.T) {
	base := arborOf(t, `{"x":1}`, `{"x":2}`, `{"x":3}`).Lazy()
	small := base.Filter(expr.Lt(expr.Path("x"), expr.Int(2)))
	large := base.Filter(expr.Gt(expr.Path("x"), expr.Int(1)))
	assert.Equal(t, 1, base.Plan().Len())
	ctx := context.Background()
	f, err := small.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"x":1}`}, rendered(t, f))
	f, err = large.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"x":2}`, `{"x":3}`}, rendered(t, f))
	got, err := large.Arbor(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestCopyOnWrite(t *testing.T) {
	a := arborOf(t, `{"x":1,"s":"a"}`, `{"x":2,"s":"b"}`)
	orig, err := a.Forest()
	require.NoError(t, err)
	clone := orig.Clone()
	assert.Equal(t, 3, orig.RefCount(store.Ints))
	require.NoError(t, clone.Set(0, field.Path{"x"}, arbor.NewInt(100)))
	assert.False(t, clone.SharesWith(orig, store.Ints))
	assert.True(t, clone.SharesWith(orig, store.Strings))
	assert.Equal(t, `{"x":100,"s":"a"}`, clone.Tree(0).String())
	trees, err := a.Trees()
	require.NoError(t, err)
	assert.Equal(t, `{"x":1,"s":"a"}`, trees[0].String())
	assert.Equal(t, `{"x":1,"s":"a"}`, orig.Tree(0).String())
}

func TestOpenBatched(t *testing.T) {
	vals := make([]string, 100)
	for k := range vals {
		vals[k] = fmt.Sprintf(`{"n":%d}`, k)
	}
	a := batchedArbor(t, vals, 10)
	assert.Equal(t, 100, a.Len())
	assert.Equal(t, "{n:int}", a.Schema().String())
	v, ok, err := a.FindOne(expr.Eq(expr.Path("n"), expr.Int(3)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"n":3}`, v.String())
	c := a.Source().(*source.Batched).Container()
	assert.EqualValues(t, 1, c.Stats().BatchesDecoded)
}
