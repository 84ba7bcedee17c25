package arbor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies query errors.
type ErrorKind int

const (
	Other ErrorKind = iota
	// TypeMismatch: an expression produced a value of the wrong kind,
	// e.g., a non-boolean where a predicate was required.
	TypeMismatch
	// Cardinality: a vector-valued result reached a context requiring a
	// single value without an explicit reduction.
	Cardinality
	// EmptyAggregation: mean, min, or max over zero elements.
	EmptyAggregation
	// InvalidOperation: an unsupported operator or combination.
	InvalidOperation
	// StorageError: a failure reported by the storage layer.
	StorageError
	NotFound
)

func (k ErrorKind) String() string {
	switch k {
	case Other:
		return "other error"
	case TypeMismatch:
		return "type mismatch"
	case Cardinality:
		return "cardinality violation"
	case EmptyAggregation:
		return "empty aggregation"
	case InvalidOperation:
		return "invalid operation"
	case StorageError:
		return "storage error"
	case NotFound:
		return "item does not exist"
	}
	return "unknown error kind"
}

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != Other {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind so that callers can write
// errors.Is(err, arbor.ErrTypeMismatch).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for use with errors.Is.
var (
	ErrTypeMismatch     = &Error{Kind: TypeMismatch}
	ErrCardinality      = &Error{Kind: Cardinality}
	ErrEmptyAggregation = &Error{Kind: EmptyAggregation}
	ErrInvalidOperation = &Error{Kind: InvalidOperation}
	ErrStorage          = &Error{Kind: StorageError}
	ErrNotFound         = &Error{Kind: NotFound}
)

// E builds an *Error from its arguments: an ErrorKind, an error to wrap,
// or a format string followed by its operands.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("call to arbor.E with no arguments")
	}
	e := &Error{}
	for i := 0; i < len(args); i++ {
		switch arg := args[i].(type) {
		case ErrorKind:
			e.Kind = arg
		case *Error:
			if e.Kind == Other || e.Kind == arg.Kind {
				return arg
			}
			e.Err = arg
		case error:
			e.Err = arg
		case string:
			e.Err = fmt.Errorf(arg, args[i+1:]...)
			i = len(args)
		default:
			panic(fmt.Sprintf("unknown type %T value %v in call to arbor.E", arg, arg))
		}
	}
	return e
}

// KindOf returns the ErrorKind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
