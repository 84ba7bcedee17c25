package runtime

import (
	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"github.com/brimdata/arbor/vector"
)

// Select returns, for each tree of src, an object holding one field per
// expression named by expr.OutputName.  Missing results are omitted.
func Select(rctx *Context, src source.Source, exprs []expr.Expr) ([]arbor.Value, error) {
	names := make([]string, len(exprs))
	for k, e := range exprs {
		names[k] = expr.OutputName(e)
	}
	assemble := func(_ arbor.Value, vals []arbor.Value) arbor.Value {
		fields := make([]arbor.Field, len(vals))
		for k, v := range vals {
			fields[k] = arbor.Field{Name: names[k], Value: v}
		}
		return arbor.NewObject(fields)
	}
	return project(rctx, OpSelect, src, exprs, assemble)
}

// AddFields returns each tree of src with the assigned fields set.  Every
// expression reads the input tree.  A dotted name sets a nested field and
// a Missing result removes the field.
func AddFields(rctx *Context, src source.Source, fields []plan.Assignment) ([]arbor.Value, error) {
	exprs := make([]expr.Expr, len(fields))
	paths := make([]field.Path, len(fields))
	for k, a := range fields {
		exprs[k] = a.Expr
		paths[k] = field.Dotted(a.Name)
	}
	assemble := func(tree arbor.Value, vals []arbor.Value) arbor.Value {
		for k, v := range vals {
			tree = tree.WithPath(paths[k], v)
		}
		return tree
	}
	return project(rctx, OpAddFields, src, exprs, assemble)
}

// project evaluates exprs against each tree and combines the input tree
// with the results.
func project(rctx *Context, kind OpKind, src source.Source, exprs []expr.Expr, assemble func(arbor.Value, []arbor.Value) arbor.Value) ([]arbor.Value, error) {
	schema := src.Schema()
	backend := Choose(kind, exprs, schema, rctx.Mode)
	rctx.record(kind, backend)
	eval := func(tree arbor.Value) (arbor.Value, error) {
		vals := make([]arbor.Value, len(exprs))
		for k, e := range exprs {
			v, err := expr.Eval(e, tree)
			if err != nil {
				return arbor.Null, err
			}
			vals[k] = v
		}
		return assemble(tree, vals), nil
	}
	switch backend {
	case BackendVectorized:
		return projectColumnar(rctx, src, exprs, schema, assemble)
	case BackendParallel:
		return source.ParMap(rctx, src, rctx.workers(), func(batch *store.Forest, local, _ int) (arbor.Value, error) {
			return eval(batch.Tree(local))
		})
	}
	return mapTrees(rctx, src, eval)
}

func projectColumnar(rctx *Context, src source.Source, exprs []expr.Expr, schema *arbor.Schema, assemble func(arbor.Value, []arbor.Value) arbor.Value) ([]arbor.Value, error) {
	var names []string
	for _, e := range exprs {
		names = append(names, expr.DepsOf(e).Names()...)
	}
	out := make([]arbor.Value, 0, src.TreeCount())
	var err error
	iterErr := src.ForEachBatch(rctx, func(batch *store.Forest, _, _ int) source.Signal {
		n := batch.Len()
		vb := vector.Load(batch, names, schema)
		defer vb.Release()
		cols := make([]*vector.Column, 0, len(exprs))
		defer func() {
			for _, c := range cols {
				c.Release()
			}
		}()
		full := vector.Full(n)
		for _, e := range exprs {
			var c *vector.Column
			if c, err = expr.EvalColumnar(e, vb, full); err != nil {
				return source.Break
			}
			cols = append(cols, c)
		}
		for k := 0; k < n; k++ {
			vals := make([]arbor.Value, len(cols))
			for j, c := range cols {
				vals[j] = c.Value(k)
			}
			out = append(out, assemble(batch.Tree(k), vals))
		}
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

// mapTrees applies fn to each tree of src in order on the calling
// goroutine.
func mapTrees(rctx *Context, src source.Source, fn func(arbor.Value) (arbor.Value, error)) ([]arbor.Value, error) {
	out := make([]arbor.Value, 0, src.TreeCount())
	var err error
	iterErr := src.ForEachTree(rctx, func(batch *store.Forest, local, _ int) source.Signal {
		var v arbor.Value
		if v, err = fn(batch.Tree(local)); err != nil {
			return source.Break
		}
		out = append(out, v)
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

// Explode replaces each tree whose value at path is an array with one tree
// per element holding that element at path.  An empty array yields no
// trees.  Trees with any other value at path pass through unchanged.
func Explode(rctx *Context, src source.Source, path field.Path) ([]arbor.Value, error) {
	rctx.record(OpExplode, BackendSequential)
	if len(path) == 0 {
		return nil, arbor.E(arbor.InvalidOperation, "explode requires a field path")
	}
	get := &expr.Field{Path: path}
	var out []arbor.Value
	var err error
	iterErr := src.ForEachTree(rctx, func(batch *store.Forest, local, _ int) source.Signal {
		tree := batch.Tree(local)
		var v arbor.Value
		if v, err = get.Eval(tree); err != nil {
			return source.Break
		}
		if v.IsVector() {
			err = arbor.E(arbor.Cardinality, "explode path %s runs through an array", path)
			return source.Break
		}
		if v.Kind() != arbor.KindArray {
			out = append(out, tree)
			return source.Continue
		}
		for _, elem := range v.Array() {
			out = append(out, tree.WithPath(path, elem))
		}
		return source.Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}
