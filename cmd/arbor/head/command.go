package head

import (
	"errors"
	"flag"
	"fmt"

	"github.com/brimdata/arbor/cli/whereflags"
	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/order"
	"github.com/brimdata/arbor/pkg/charm"
)

var Cmd = &charm.Spec{
	Name:  "head",
	Usage: "head [options] container",
	Short: "print the first or last documents of a container",
	Long: `
The head command prints the first n documents of a container, one JSON
document per line, optionally after filtering with -where and ordering with
-sort.  With -tail, the last n documents are printed instead.  With -select,
only the listed fields are kept.

Batches are decoded only as far as needed to produce the output when no
sort is requested.  With -explain, the optimized plan is printed instead of
the documents.`,
	New: New,
}

type Command struct {
	*root.Command
	n       int
	tail    bool
	sort    string
	fields  string
	explain bool
	where   whereflags.Flags
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.IntVar(&c.n, "n", 10, "number of documents")
	f.BoolVar(&c.tail, "tail", false, "print the last documents")
	f.StringVar(&c.sort, "sort", "", "comma-separated sort keys with an optional :asc or :desc suffix")
	f.StringVar(&c.fields, "select", "", "comma-separated fields to keep")
	f.BoolVar(&c.explain, "explain", false, "print the optimized plan")
	c.where.SetFlags(f)
	return c, nil
}

func (c *Command) Run(args []string) error {
	if len(args) != 1 {
		return errors.New("head: a single container is required")
	}
	if c.n < 0 {
		return errors.New("head: -n must not be negative")
	}
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	a, container, err := c.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer container.Close()
	q := a.Lazy()
	if pred := c.where.Predicate(); pred != nil {
		q = q.Filter(pred)
	}
	if c.sort != "" {
		keys, err := order.ParseSortKeys(c.sort)
		if err != nil {
			return err
		}
		q = q.Sort(keys)
	}
	if c.tail {
		q = q.Tail(c.n)
	} else {
		q = q.Head(c.n)
	}
	if c.fields != "" {
		var exprs []expr.Expr
		for _, path := range field.DottedList(c.fields) {
			exprs = append(exprs, &expr.Field{Path: path})
		}
		q = q.Select(exprs...)
	}
	if c.explain {
		q.Optimize()
		_, err := fmt.Fprint(c.Stdout, q.Describe())
		return err
	}
	forest, err := q.Collect(ctx)
	if err != nil {
		return err
	}
	defer forest.Release()
	return c.WriteValues(forest.Trees())
}
