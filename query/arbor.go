// Package query is the user-facing surface of the engine.  An Arbor runs
// each operation as soon as it is called and holds its result in memory.
// A Lazy records operations in a plan that is optimized and executed on
// demand.
package query

import (
	"context"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/order"
	"github.com/brimdata/arbor/pkg/storage"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/runtime"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
)

// Arbor is a set of trees together with the settings used to query them.
// Operations return a new Arbor and leave the receiver unchanged.
type Arbor struct {
	src  source.Source
	rctx *runtime.Context
}

// New returns an Arbor over src that runs with rctx, or with
// runtime.DefaultContext when rctx is nil.
func New(src source.Source, rctx *runtime.Context) *Arbor {
	if rctx == nil {
		rctx = runtime.DefaultContext()
	}
	return &Arbor{src: src, rctx: rctx}
}

// FromForest returns an Arbor over an in-memory forest.
func FromForest(f *store.Forest) *Arbor {
	return New(source.NewMemory(f), nil)
}

// FromJSON parses one JSON document per argument.
func FromJSON(docs ...string) (*Arbor, error) {
	f, err := store.FromJSON(docs...)
	if err != nil {
		return nil, err
	}
	return FromForest(f), nil
}

// Open returns an Arbor over the persisted container at uri.  Only the
// container metadata is read.
func Open(ctx context.Context, engine storage.Engine, uri *storage.URI, opts lake.Options) (*Arbor, error) {
	c, err := lake.Open(ctx, engine, uri, opts)
	if err != nil {
		return nil, err
	}
	rctx := runtime.NewContext(ctx, opts.Logger)
	return New(source.NewBatched(c), rctx), nil
}

// WithMode returns a copy of a whose operations run in mode m.
func (a *Arbor) WithMode(m runtime.Mode) *Arbor {
	return &Arbor{src: a.src, rctx: a.rctx.WithMode(m)}
}

func (a *Arbor) Context() *runtime.Context {
	return a.rctx
}

func (a *Arbor) Source() source.Source {
	return a.src
}

func (a *Arbor) Len() int {
	return a.src.TreeCount()
}

// Schema describes the top-level fields of the trees.  For a persisted
// container it is read from the metadata without decoding any batch.
func (a *Arbor) Schema() *arbor.Schema {
	return a.src.Schema()
}

// Forest returns the trees as an in-memory forest that the caller owns.
func (a *Arbor) Forest() (*store.Forest, error) {
	return source.Collect(a.rctx, a.src)
}

// Trees materializes every tree.
func (a *Arbor) Trees() ([]arbor.Value, error) {
	f, err := a.Forest()
	if err != nil {
		return nil, err
	}
	defer f.Release()
	return f.Trees(), nil
}

// Tree materializes tree i.
func (a *Arbor) Tree(i int) (arbor.Value, error) {
	return a.src.GetTree(a.rctx, i)
}

func (a *Arbor) run(op plan.Op) (*Arbor, error) {
	p := plan.New(a.src)
	p.Add(op)
	f, err := runtime.Materialize(a.rctx, p)
	if err != nil {
		return nil, err
	}
	return &Arbor{src: source.NewMemory(f), rctx: a.rctx}, nil
}

func (a *Arbor) Filter(pred expr.Expr) (*Arbor, error) {
	return a.run(&plan.Filter{Pred: pred})
}

// FilterHead keeps the first n trees for which pred passes.  No batch is
// decoded once n matches are found.
func (a *Arbor) FilterHead(pred expr.Expr, n int) (*Arbor, error) {
	p := plan.New(a.src)
	p.Add(&plan.Filter{Pred: pred})
	p.Add(&plan.Head{N: n})
	f, err := runtime.Materialize(a.rctx, p)
	if err != nil {
		return nil, err
	}
	return &Arbor{src: source.NewMemory(f), rctx: a.rctx}, nil
}

func (a *Arbor) Select(exprs ...expr.Expr) (*Arbor, error) {
	return a.run(&plan.Select{Exprs: exprs})
}

func (a *Arbor) AddFields(fields ...plan.Assignment) (*Arbor, error) {
	return a.run(&plan.AddField{Fields: fields})
}

// Aggregate reduces every tree to one object with a field per aggregate.
func (a *Arbor) Aggregate(aggs ...plan.Assignment) (arbor.Value, error) {
	return runtime.Aggregate(a.rctx, a.src, aggs)
}

func (a *Arbor) GroupBy(keys []plan.Assignment, aggs ...plan.Assignment) (*Arbor, error) {
	if len(keys) == 0 {
		return nil, arbor.E(arbor.InvalidOperation, "group by requires at least one key")
	}
	return a.run(&plan.Aggregate{Keys: keys, Aggs: aggs})
}

func (a *Arbor) Sort(keys order.SortKeys) (*Arbor, error) {
	return a.run(&plan.Sort{Keys: keys})
}

func (a *Arbor) Head(n int) (*Arbor, error) {
	return a.run(&plan.Head{N: n})
}

func (a *Arbor) Tail(n int) (*Arbor, error) {
	return a.run(&plan.Tail{N: n})
}

func (a *Arbor) Explode(path field.Path) (*Arbor, error) {
	return a.run(&plan.Explode{Path: path})
}

// Join pairs the trees of a with those of right whose keys are equal.
// Each result tree is an object {left, right}.
func (a *Arbor) Join(right *Arbor, leftOn, rightOn []expr.Expr, typ plan.JoinType) (*Arbor, error) {
	return a.run(&plan.Join{Right: right.src, LeftOn: leftOn, RightOn: rightOn, Type: typ})
}

func (a *Arbor) FindOne(pred expr.Expr) (arbor.Value, bool, error) {
	return runtime.FindOne(a.rctx, a.src, pred)
}

func (a *Arbor) Any(pred expr.Expr) (bool, error) {
	return runtime.Any(a.rctx, a.src, pred)
}

func (a *Arbor) All(pred expr.Expr) (bool, error) {
	return runtime.All(a.rctx, a.src, pred)
}

// Lazy starts a deferred query over the trees of a.
func (a *Arbor) Lazy() *Lazy {
	return newLazy(plan.New(a.src), a.rctx)
}
