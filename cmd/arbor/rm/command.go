package rm

import (
	"errors"
	"flag"
	"fmt"

	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/pkg/charm"
	"github.com/brimdata/arbor/pkg/storage"
)

var Cmd = &charm.Spec{
	Name:  "rm",
	Usage: "rm container...",
	Short: "remove containers",
	Long: `
The rm command deletes the metadata and batches of each container.`,
	New: New,
}

type Command struct {
	*root.Command
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	return &Command{Command: parent.(*root.Command)}, nil
}

func (c *Command) Run(args []string) error {
	if len(args) == 0 {
		return errors.New("rm: at least one container is required")
	}
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	for _, path := range args {
		uri, err := storage.ParseURI(path)
		if err != nil {
			return err
		}
		if err := lake.Remove(ctx, c.Engine, uri); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Stdout, "%s removed\n", uri); err != nil {
			return err
		}
	}
	return nil
}
