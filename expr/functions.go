package expr

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/brimdata/arbor"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type function struct {
	name string
	call func([]arbor.Value) (arbor.Value, error)
}

var functionNames = []string{"abs", "coalesce", "is_missing", "is_null", "len", "lower", "upper"}

func lookupFunction(name string, narg int) (*function, error) {
	argmin, argmax := 1, 1
	var f func([]arbor.Value) (arbor.Value, error)
	switch name {
	case "abs":
		f = abs
	case "coalesce":
		argmax = -1
		f = coalesce
	case "is_missing":
		f = isMissing
	case "is_null":
		f = isNull
	case "len":
		f = length
	case "lower":
		f = caser(cases.Lower(language.Und))
	case "upper":
		f = caser(cases.Upper(language.Und))
	default:
		return nil, noSuchFunction(name)
	}
	if err := checkArgCount(name, narg, argmin, argmax); err != nil {
		return nil, err
	}
	return &function{name: name, call: f}, nil
}

func noSuchFunction(name string) error {
	best, bestDist := "", math.MaxInt
	for _, candidate := range functionNames {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if bestDist <= 2 {
		return arbor.E(arbor.InvalidOperation, "no such function %q (did you mean %q?)", name, best)
	}
	return arbor.E(arbor.InvalidOperation, "no such function %q", name)
}

func checkArgCount(name string, narg, argmin, argmax int) error {
	if narg < argmin {
		return arbor.E(arbor.InvalidOperation, "%s: too few arguments", name)
	}
	if argmax != -1 && narg > argmax {
		return arbor.E(arbor.InvalidOperation, "%s: too many arguments", name)
	}
	return nil
}

// Functions lists the names of the built-in functions.
func Functions() []string {
	names := append([]string(nil), functionNames...)
	sort.Strings(names)
	return names
}

func abs(args []arbor.Value) (arbor.Value, error) {
	v := args[0]
	switch {
	case v.IsVector():
		return arbor.Value{}, arbor.E(arbor.Cardinality, "abs: argument is a list")
	case v.IsAbsent():
		return arbor.Null, nil
	case v.Kind() == arbor.KindInt:
		if i := v.Int(); i < 0 {
			return arbor.NewInt(-i), nil
		}
		return v, nil
	case v.Kind() == arbor.KindFloat:
		return arbor.NewFloat(math.Abs(v.Float())), nil
	}
	return arbor.Value{}, arbor.E(arbor.TypeMismatch, "abs: not a number: %s", v)
}

func coalesce(args []arbor.Value) (arbor.Value, error) {
	for _, v := range args {
		if !v.IsAbsent() {
			return v, nil
		}
	}
	return arbor.Null, nil
}

func isMissing(args []arbor.Value) (arbor.Value, error) {
	return arbor.NewBool(args[0].IsMissing()), nil
}

func isNull(args []arbor.Value) (arbor.Value, error) {
	return arbor.NewBool(args[0].IsNull()), nil
}

// length counts the characters of a string, the elements of an array or
// list, or the fields of an object.
func length(args []arbor.Value) (arbor.Value, error) {
	v := args[0]
	switch v.Kind() {
	case arbor.KindNull, arbor.KindMissing:
		return arbor.Null, nil
	case arbor.KindString:
		return arbor.NewInt(int64(utf8.RuneCountInString(v.Str()))), nil
	case arbor.KindArray, arbor.KindObject:
		return arbor.NewInt(int64(v.Len())), nil
	}
	return arbor.Value{}, arbor.E(arbor.TypeMismatch, "len: bad argument: %s", v)
}

func caser(c cases.Caser) func([]arbor.Value) (arbor.Value, error) {
	return func(args []arbor.Value) (arbor.Value, error) {
		v := args[0]
		switch {
		case v.IsVector():
			return arbor.Value{}, arbor.E(arbor.Cardinality, "argument is a list")
		case v.IsAbsent():
			return arbor.Null, nil
		case v.Kind() == arbor.KindString:
			return arbor.NewString(c.String(v.Str())), nil
		}
		return arbor.Value{}, arbor.E(arbor.TypeMismatch, "not a string: %s", v)
	}
}
