package count

import (
	"errors"
	"flag"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/cli/whereflags"
	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/expr"
	"github.com/brimdata/arbor/field"
	"github.com/brimdata/arbor/pkg/charm"
	"github.com/brimdata/arbor/plan"
)

var Cmd = &charm.Spec{
	Name:  "count",
	Usage: "count [-where comparison] [-by fields] container",
	Short: "count the documents of a container",
	Long: `
The count command prints the number of documents in a container that match
every -where comparison.  With -by, one line is printed for each distinct
combination of the listed fields in order of first appearance.`,
	New: New,
}

type Command struct {
	*root.Command
	by    string
	where whereflags.Flags
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.StringVar(&c.by, "by", "", "comma-separated fields to group by")
	c.where.SetFlags(f)
	return c, nil
}

func (c *Command) Run(args []string) error {
	if len(args) != 1 {
		return errors.New("count: a single container is required")
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
	count := plan.Assignment{Name: "count", Expr: expr.Count(nil)}
	if c.by == "" {
		q = q.Aggregate(count)
	} else {
		var keys []plan.Assignment
		for _, path := range field.DottedList(c.by) {
			keys = append(keys, plan.Assignment{Name: path.String(), Expr: &expr.Field{Path: path}})
		}
		q = q.GroupBy(keys, count)
	}
	forest, err := q.Collect(ctx)
	if err != nil {
		return err
	}
	defer forest.Release()
	vals := forest.Trees()
	if c.by == "" {
		// The aggregate row is written bare.
		vals = []arbor.Value{vals[0].Get("count")}
	}
	return c.WriteValues(vals)
}
