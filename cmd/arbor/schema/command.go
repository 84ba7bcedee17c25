package schema

import (
	"errors"
	"flag"
	"fmt"

	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/pkg/charm"
	"gopkg.in/yaml.v3"
)

var Cmd = &charm.Spec{
	Name:  "schema",
	Usage: "schema [-yaml] container",
	Short: "print the schema of a container",
	Long: `
The schema command prints the top-level fields of a container's documents
with their kinds.  A kind followed by "?" marks a field missing from some
documents and "|null" marks a field that is null in some.  With -yaml, the
schema is printed as a YAML document.  Only the container metadata is read.`,
	New: New,
}

type Command struct {
	*root.Command
	yaml bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.yaml, "yaml", false, "print the schema as YAML")
	return c, nil
}

func (c *Command) Run(args []string) error {
	if len(args) != 1 {
		return errors.New("schema: a single container is required")
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
	schema := container.Schema()
	if c.yaml {
		enc := yaml.NewEncoder(c.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(schema); err != nil {
			return err
		}
		return enc.Close()
	}
	_, err = fmt.Fprintln(c.Stdout, schema)
	return err
}
