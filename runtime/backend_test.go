package runtime_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/runtime"
	"github.com/stretchr/testify/assert"
)

func TestChoose(t *testing.T) {
	f := memory(t, `{"a":1,"s":"x","o":{"x":1}}`, `{"a":2,"s":"y","o":{"x":2},"m":1}`, `{"m":"mixed"}`).Schema()
	flat := []expr.Expr{expr.Gt(expr.Path("a"), expr.Int(1))}
	nested := []expr.Expr{expr.Path("o.x")}
	mixed := []expr.Expr{expr.Path("m")}
	cases := []struct {
		kind     runtime.OpKind
		exprs    []expr.Expr
		mode     runtime.Mode
		expected runtime.Backend
	}{
		{runtime.OpFilter, flat, runtime.Auto, runtime.BackendVectorized},
		{runtime.OpFilter, flat, runtime.Vectorized, runtime.BackendVectorized},
		{runtime.OpFilter, flat, runtime.Parallel, runtime.BackendParallel},
		{runtime.OpFilter, flat, runtime.Sequential, runtime.BackendSequential},
		{runtime.OpFilter, nested, runtime.Auto, runtime.BackendParallel},
		{runtime.OpFilter, nested, runtime.Vectorized, runtime.BackendSequential},
		{runtime.OpSelect, mixed, runtime.Auto, runtime.BackendParallel},
		{runtime.OpAddFields, flat, runtime.Auto, runtime.BackendVectorized},
		{runtime.OpFindOne, flat, runtime.Auto, runtime.BackendVectorized},
		{runtime.OpFilterHead, nested, runtime.Parallel, runtime.BackendParallel},
		{runtime.OpAggregate, []expr.Expr{expr.Sum(expr.Path("a"))}, runtime.Auto, runtime.BackendVectorized},
		{runtime.OpAggregate, []expr.Expr{expr.Count(nil)}, runtime.Auto, runtime.BackendVectorized},
		{runtime.OpAggregate, []expr.Expr{expr.First(nil)}, runtime.Auto, runtime.BackendSequential},
		{runtime.OpAggregate, []expr.Expr{expr.Sum(expr.Path("o.x"))}, runtime.Auto, runtime.BackendSequential},
		{runtime.OpAggregate, []expr.Expr{expr.Sum(expr.Path("a"))}, runtime.Parallel, runtime.BackendSequential},
		{runtime.OpGroupBy, flat, runtime.Auto, runtime.BackendSequential},
		{runtime.OpSort, flat, runtime.Vectorized, runtime.BackendSequential},
		{runtime.OpJoin, flat, runtime.Parallel, runtime.BackendSequential},
		{runtime.OpExplode, nil, runtime.Auto, runtime.BackendSequential},
	}
	for _, c := range cases {
		var names []string
		for _, e := range c.exprs {
			names = append(names, e.String())
		}
		t.Run(fmt.Sprintf("%s/%s/%s", c.kind, strings.Join(names, ","), c.mode), func(t *testing.T) {
			assert.Equal(t, c.expected, runtime.Choose(c.kind, c.exprs, f, c.mode))
		})
	}
}

func TestChooseWithoutSchema(t *testing.T) {
	e := []expr.Expr{expr.Path("a")}
	assert.Equal(t, runtime.BackendParallel, runtime.Choose(runtime.OpFilter, e, nil, runtime.Auto))
	assert.Equal(t, runtime.BackendSequential, runtime.Choose(runtime.OpAggregate, e, nil, runtime.Vectorized))
}
