// Package configflags binds the settings of config.Config to command line
// flags.  A config file named by -config is read first and flags given on
// the command line override it.
package configflags

import (
	"flag"

	"github.com/brimdata/arbor/cli/logflags"
	"github.com/brimdata/arbor/config"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/service/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Flags struct {
	Config config.Config
	path   string
	fs     *flag.FlagSet
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	f.Config = config.Default()
	f.fs = fs
	fs.StringVar(&f.path, "config", "", "YAML config file (command line flags override it)")
	fs.Var(&f.Config.Exec.Mode, "exec.mode", "execution backend (values: auto, sequential, parallel, vectorized)")
	fs.IntVar(&f.Config.Exec.Workers, "exec.workers", 0, "goroutines for parallel execution (0 for one per CPU)")
	fs.IntVar(&f.Config.Lake.BatchSize, "lake.batchsize", f.Config.Lake.BatchSize, "documents per batch of new containers")
	fs.Var(&f.Config.Lake.Codec, "lake.codec", "batch compression (values: none, lz4, zstd, snappy)")
	fs.Var(&f.Config.Lake.Cache, "lake.cache", "bytes of decoded batches to cache")
	fs.IntVar(&f.Config.Lake.Concurrency, "lake.concurrency", f.Config.Lake.Concurrency, "batch writes in flight")
	logflags.Bind(fs, &f.Config.Log)
}

func (f *Flags) Init() error {
	if f.path == "" {
		return f.Config.Validate()
	}
	set := make(map[string]string)
	f.fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = fl.Value.String()
	})
	if err := f.Config.LoadFile(f.path); err != nil {
		return err
	}
	for name, val := range set {
		if err := f.fs.Set(name, val); err != nil {
			return err
		}
	}
	return f.Config.Validate()
}

func (f *Flags) Logger() (*zap.Logger, error) {
	return logger.New(f.Config.Log)
}

func (f *Flags) LakeOptions(logger *zap.Logger, reg prometheus.Registerer) lake.Options {
	return f.Config.LakeOptions(logger, reg)
}
