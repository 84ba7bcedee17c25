package root

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/cli"
	"github.com/brimdata/arbor/cli/configflags"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/pkg/charm"
	"github.com/brimdata/arbor/pkg/storage"
	"github.com/brimdata/arbor/query"
	"github.com/brimdata/arbor/source"
	"go.uber.org/zap"
)

var Arbor = &charm.Spec{
	Name:  "arbor",
	Usage: "arbor <command> [options] [arguments...]",
	Short: "load and query containers of JSON documents",
	Long: `
arbor loads newline-delimited JSON documents into batched containers and
runs queries over them.  A container is named by a file system path or by
an s3:// URI.

Settings may be read from a YAML file given with -config.  Command line
flags override the file.`,
	New: New,
}

type Command struct {
	charm.Command
	cli.Flags
	Config configflags.Flags
	Logger *zap.Logger
	// Stdout receives command output.
	Stdout io.Writer
	Engine *storage.Router
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{
		Logger: zap.NewNop(),
		Stdout: os.Stdout,
		Engine: storage.NewLocalEngine(),
	}
	c.Flags.SetFlags(f)
	c.Config.SetFlags(f)
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return charm.NeedHelp
	}
	return charm.ErrNoRun
}

// Init initializes the shared flags, the config, and the logger of a
// subcommand.
func (c *Command) Init(all ...cli.Initializer) (context.Context, func(), error) {
	all = append([]cli.Initializer{&c.Config}, all...)
	ctx, cleanup, err := c.Flags.Init(all...)
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.Config.Logger()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	c.Logger = logger
	return ctx, func() {
		logger.Sync()
		cleanup()
	}, nil
}

func (c *Command) LakeOptions() lake.Options {
	return c.Config.LakeOptions(c.Logger, nil)
}

// OpenContainer opens the container at path reading only its metadata.
func (c *Command) OpenContainer(ctx context.Context, path string) (*lake.Container, error) {
	uri, err := storage.ParseURI(path)
	if err != nil {
		return nil, err
	}
	return lake.Open(ctx, c.Engine, uri, c.LakeOptions())
}

// Open returns an Arbor over the container at path that runs with the
// configured execution settings.
func (c *Command) Open(ctx context.Context, path string) (*query.Arbor, *lake.Container, error) {
	container, err := c.OpenContainer(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	rctx := c.Config.Config.Context(ctx, c.Logger)
	return query.New(source.NewBatched(container), rctx), container, nil
}

// WriteValues writes one JSON document per line to Stdout.
func (c *Command) WriteValues(vals []arbor.Value) error {
	w := bufio.NewWriter(c.Stdout)
	var b []byte
	for _, v := range vals {
		b = append(v.AppendJSON(b[:0]), '\n')
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return w.Flush()
}
