package stat

import (
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/alecthomas/units"
	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/pkg/charm"
	"github.com/brimdata/arbor/pkg/plural"
)

var Cmd = &charm.Spec{
	Name:  "stat",
	Usage: "stat [-b] container",
	Short: "describe a container from its metadata",
	Long: `
The stat command prints the document count, batch count, codec, stored
size, and schema of a container.  Only the container metadata is read.
With -b, one line is printed for each batch.`,
	New: New,
}

type Command struct {
	*root.Command
	batches bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.batches, "b", false, "list batches")
	return c, nil
}

func (c *Command) Run(args []string) error {
	if len(args) != 1 {
		return errors.New("stat: a single container is required")
	}
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	container, err := c.OpenContainer(ctx, args[0])
	if err != nil {
		return err
	}
	defer container.Close()
	meta := container.Meta()
	var size, raw int64
	for _, b := range meta.Batches {
		size += b.Size
		raw += int64(b.RawSize)
	}
	tw := tabwriter.NewWriter(c.Stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "uri\t%s\n", container.URI())
	fmt.Fprintf(tw, "documents\t%d\n", meta.Count)
	fmt.Fprintf(tw, "batches\t%d\n", len(meta.Batches))
	fmt.Fprintf(tw, "codec\t%s\n", meta.Codec)
	fmt.Fprintf(tw, "size\t%s\n", units.Base2Bytes(size))
	fmt.Fprintf(tw, "raw size\t%s\n", units.Base2Bytes(raw))
	fmt.Fprintf(tw, "schema\t%s\n", meta.Schema)
	if c.batches {
		for _, b := range meta.Batches {
			fmt.Fprintf(tw, "batch\t%s\t%d doc%s\t%s\t%s\n", b.ID, b.Count, plural.Int(b.Count, "s"), b.Codec, units.Base2Bytes(b.Size))
		}
	}
	return tw.Flush()
}
