package load

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/pkg/charm"
	"github.com/brimdata/arbor/pkg/ctxio"
	"github.com/brimdata/arbor/pkg/plural"
	"github.com/brimdata/arbor/pkg/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var Cmd = &charm.Spec{
	Name:  "load",
	Usage: "load [options] container file...",
	Short: "load JSON documents into a new container",
	Long: `
The load command reads newline-delimited or concatenated JSON documents
from each file and writes them into a new container in batches.  A file
named "-" is read from standard input.  Files may be file system paths or
s3:// URIs.

If any file cannot be read or parsed, no container is created.`,
	New: New,
}

type Command struct {
	*root.Command
	replace bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.replace, "f", false, "replace the container if it exists")
	return c, nil
}

func (c *Command) Run(args []string) error {
	if len(args) < 2 {
		return errors.New("load: a container and at least one file are required")
	}
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	uri, err := storage.ParseURI(args[0])
	if err != nil {
		return err
	}
	if c.replace {
		if err := lake.Remove(ctx, c.Engine, uri); err != nil {
			return err
		}
	}
	w, err := lake.Create(ctx, c.Engine, uri, c.LakeOptions())
	if err != nil {
		return err
	}
	var n int
	for _, path := range args[1:] {
		count, err := c.loadFile(ctx, w, path)
		if err != nil {
			return multierr.Append(fmt.Errorf("%s: %w", path, err), w.Abort())
		}
		c.Logger.Debug("File loaded", zap.String("path", path), zap.Int("count", count))
		n += count
	}
	if err := w.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.Stdout, "%d document%s loaded into %s\n", n, plural.Int(n, "s"), uri)
	return err
}

func (c *Command) loadFile(ctx context.Context, w *lake.Writer, path string) (int, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		uri, err := storage.ParseURI(path)
		if err != nil {
			return 0, err
		}
		rc, err := c.Engine.Get(ctx, uri)
		if err != nil {
			return 0, err
		}
		defer rc.Close()
		r = rc
	}
	var n int
	err := arbor.ReadJSON(ctxio.NewReader(ctx, r), func(v arbor.Value) error {
		n++
		return w.Write(v)
	})
	return n, err
}
