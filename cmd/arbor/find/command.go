package find

import (
	"errors"
	"flag"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/cli/whereflags"
	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/pkg/charm"
	"go.uber.org/zap"
)

var Cmd = &charm.Spec{
	Name:  "find",
	Usage: "find -where comparison [-where comparison...] container",
	Short: "print the first document matching comparisons",
	Long: `
The find command prints the first document of a container that matches
every -where comparison and stops reading batches once it is found.  It
fails when no document matches.`,
	New: New,
}

type Command struct {
	*root.Command
	where whereflags.Flags
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.where.SetFlags(f)
	return c, nil
}

func (c *Command) Run(args []string) error {
	if len(args) != 1 {
		return errors.New("find: a single container is required")
	}
	pred := c.where.Predicate()
	if pred == nil {
		return errors.New("find: at least one -where comparison is required")
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
	v, ok, err := a.FindOne(pred)
	if err != nil {
		return err
	}
	c.Logger.Debug("Find finished", zap.Int64("batches_decoded", container.Stats().BatchesDecoded))
	if !ok {
		return arbor.E(arbor.NotFound, "no document matches %s", c.where.String())
	}
	return c.WriteValues([]arbor.Value{v})
}
