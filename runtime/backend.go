package runtime

import (
	"fmt"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
)

// Backend is the strategy chosen to run one operation.
type Backend int

const (
	BackendSequential Backend = iota
	BackendParallel
	BackendVectorized
)

func (b Backend) String() string {
	switch b {
	case BackendSequential:
		return "sequential"
	case BackendParallel:
		return "parallel"
	case BackendVectorized:
		return "vectorized"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// OpKind names an executor operation.
type OpKind int

const (
	OpFilter OpKind = iota
	OpSelect
	OpAddFields
	OpAggregate
	OpGroupBy
	OpHead
	OpTail
	OpSort
	OpExplode
	OpJoin
	OpFindOne
	OpFilterHead
)

var opNames = []string{
	OpFilter:     "filter",
	OpSelect:     "select",
	OpAddFields:  "addfields",
	OpAggregate:  "aggregate",
	OpGroupBy:    "groupby",
	OpHead:       "head",
	OpTail:       "tail",
	OpSort:       "sort",
	OpExplode:    "explode",
	OpJoin:       "join",
	OpFindOne:    "findone",
	OpFilterHead: "filterhead",
}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Choose selects the backend for an operation of the given kind over
// exprs.  It depends only on its arguments.
//
//	filter, select, addfields, findone, filterhead:
//	    vectorized when every expression is vectorizable under schema and
//	    mode is Auto or Vectorized; otherwise parallel unless mode is
//	    Sequential or Vectorized
//	aggregate:
//	    vectorized under the same condition, else sequential
//	all others:
//	    sequential
func Choose(kind OpKind, exprs []expr.Expr, schema *arbor.Schema, mode Mode) Backend {
	switch kind {
	case OpFilter, OpSelect, OpAddFields, OpFindOne, OpFilterHead:
		if (mode == Auto || mode == Vectorized) && vectorizable(exprs, schema) == nil {
			return BackendVectorized
		}
		if mode == Auto || mode == Parallel {
			return BackendParallel
		}
	case OpAggregate:
		if (mode == Auto || mode == Vectorized) && vectorizable(exprs, schema) == nil {
			return BackendVectorized
		}
	}
	return BackendSequential
}

func vectorizable(exprs []expr.Expr, schema *arbor.Schema) error {
	for _, e := range exprs {
		if a, ok := e.(*expr.Agg); ok {
			if a.Arg == nil {
				if a.Name == "count" {
					continue
				}
				return fmt.Errorf("%s has no argument", a)
			}
			e = a.Arg
		}
		if err := expr.IsVectorizable(e, schema); err != nil {
			return err
		}
	}
	return nil
}
