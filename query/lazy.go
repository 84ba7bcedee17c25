package query

import (
	"context"

	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/optimizer"
	"github.com/brimdata/arbor/order"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/runtime"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
)

// Lazy is a deferred query.  Each builder method returns a new Lazy whose
// plan extends the receiver's, so a Lazy may be extended more than once.
type Lazy struct {
	plan *plan.Plan
	rctx *runtime.Context
}

func newLazy(p *plan.Plan, rctx *runtime.Context) *Lazy {
	return &Lazy{plan: p, rctx: rctx}
}

// Scan starts a deferred query over src.
func Scan(src source.Source, rctx *runtime.Context) *Lazy {
	if rctx == nil {
		rctx = runtime.DefaultContext()
	}
	return newLazy(plan.New(src), rctx)
}

func (l *Lazy) with(op plan.Op) *Lazy {
	p := l.plan.Clone()
	p.Add(op)
	return newLazy(p, l.rctx)
}

func (l *Lazy) Filter(pred expr.Expr) *Lazy {
	return l.with(&plan.Filter{Pred: pred})
}

func (l *Lazy) Select(exprs ...expr.Expr) *Lazy {
	return l.with(&plan.Select{Exprs: exprs})
}

func (l *Lazy) AddFields(fields ...plan.Assignment) *Lazy {
	return l.with(&plan.AddField{Fields: fields})
}

func (l *Lazy) Aggregate(aggs ...plan.Assignment) *Lazy {
	return l.with(&plan.Aggregate{Aggs: aggs})
}

func (l *Lazy) GroupBy(keys []plan.Assignment, aggs ...plan.Assignment) *Lazy {
	return l.with(&plan.Aggregate{Keys: keys, Aggs: aggs})
}

func (l *Lazy) Sort(keys order.SortKeys) *Lazy {
	return l.with(&plan.Sort{Keys: keys})
}

func (l *Lazy) Head(n int) *Lazy {
	return l.with(&plan.Head{N: n})
}

func (l *Lazy) Tail(n int) *Lazy {
	return l.with(&plan.Tail{N: n})
}

func (l *Lazy) Explode(path field.Path) *Lazy {
	return l.with(&plan.Explode{Path: path})
}

func (l *Lazy) Join(right *Arbor, leftOn, rightOn []expr.Expr, typ plan.JoinType) *Lazy {
	return l.with(&plan.Join{Right: right.src, LeftOn: leftOn, RightOn: rightOn, Type: typ})
}

// Plan returns the plan of l.  Changes to it are visible to l.
func (l *Lazy) Plan() *plan.Plan {
	return l.plan
}

// Optimize rewrites the plan of l in place and returns the number of
// rewrites applied.
func (l *Lazy) Optimize() int {
	return optimizer.New(l.rctx.Logger).Optimize(l.plan)
}

func (l *Lazy) Describe() string {
	return l.plan.Describe()
}

// Materialize executes the plan as it stands into a forest the caller
// owns.
func (l *Lazy) Materialize(ctx context.Context) (*store.Forest, error) {
	return runtime.Materialize(l.rctx.WithContext(ctx), l.plan)
}

// Collect optimizes a copy of the plan and materializes it.  The plan of
// l is left unchanged.
func (l *Lazy) Collect(ctx context.Context) (*store.Forest, error) {
	p := l.plan.Clone()
	optimizer.New(l.rctx.Logger).Optimize(p)
	return runtime.Materialize(l.rctx.WithContext(ctx), p)
}

// Arbor collects l into an eager Arbor.
func (l *Lazy) Arbor(ctx context.Context) (*Arbor, error) {
	f, err := l.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return &Arbor{src: source.NewMemory(f), rctx: l.rctx}, nil
}
