// Package config loads the settings of the arbor command from YAML.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/units"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/runtime"
	"github.com/brimdata/arbor/service/logger"
	"github.com/pbnjay/memory"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	MinCacheSize = 64 * units.MiB
	MaxCacheSize = 4 * units.GiB
)

type Config struct {
	Exec Exec          `yaml:"exec"`
	Lake Lake          `yaml:"lake"`
	Log  logger.Config `yaml:"log"`
}

type Exec struct {
	Mode runtime.Mode `yaml:"mode"`
	// Workers bounds the goroutines of parallel operations.  Zero means
	// one per CPU.
	Workers int `yaml:"workers"`
}

type Lake struct {
	BatchSize   int        `yaml:"batch_size"`
	Codec       lake.Codec `yaml:"codec"`
	Cache       ByteSize   `yaml:"cache"`
	Concurrency int        `yaml:"concurrency"`
}

// ByteSize is a size written like "512MiB" or "2GB".
type ByteSize int64

func (b ByteSize) String() string {
	return units.Base2Bytes(b).String()
}

func (b *ByteSize) Set(s string) error {
	n, err := units.ParseStrictBytes(s)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	if n < 0 {
		return fmt.Errorf("invalid byte size %q: negative", s)
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *ByteSize) UnmarshalText(text []byte) error {
	return b.Set(string(text))
}

// DefaultCacheSize is a sixteenth of physical memory bounded by
// MinCacheSize and MaxCacheSize.
func DefaultCacheSize() ByteSize {
	return cacheSize(memory.TotalMemory())
}

func cacheSize(total uint64) ByteSize {
	size := units.Base2Bytes(total / 16)
	if size < MinCacheSize {
		size = MinCacheSize
	}
	if size > MaxCacheSize {
		size = MaxCacheSize
	}
	return ByteSize(size)
}

func Default() Config {
	return Config{
		Exec: Exec{Mode: runtime.Auto},
		Lake: Lake{
			BatchSize:   lake.DefaultBatchSize,
			Codec:       lake.CodecLZ4,
			Cache:       DefaultCacheSize(),
			Concurrency: 2,
		},
		Log: logger.Config{
			Path:  "stderr",
			Mode:  logger.FileModeAppend,
			Level: zap.InfoLevel,
		},
	}
}

// Load reads the config file at path over the defaults.  A missing file
// yields the defaults when optional is true.
func Load(path string, optional bool) (Config, error) {
	conf := Default()
	if err := conf.LoadFile(path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	return conf, nil
}

// Parse decodes YAML over the defaults.
func Parse(b []byte) (Config, error) {
	conf := Default()
	if err := conf.Decode(b); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// LoadFile decodes the config file at path over c.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := c.Decode(b); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Decode sets the settings present in YAML b and leaves the others
// unchanged.  Unknown keys are errors.
func (c *Config) Decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Exec.Workers < 0:
		return fmt.Errorf("exec.workers must not be negative: %d", c.Exec.Workers)
	case c.Lake.BatchSize <= 0:
		return fmt.Errorf("lake.batch_size must be positive: %d", c.Lake.BatchSize)
	case c.Lake.Concurrency < 0:
		return fmt.Errorf("lake.concurrency must not be negative: %d", c.Lake.Concurrency)
	}
	return nil
}

func (c Config) LakeOptions(logger *zap.Logger, reg prometheus.Registerer) lake.Options {
	return lake.Options{
		BatchSize:   c.Lake.BatchSize,
		Codec:       c.Lake.Codec,
		CacheBytes:  int64(c.Lake.Cache),
		Concurrency: c.Lake.Concurrency,
		Logger:      logger,
		Registerer:  reg,
	}
}

func (c Config) Context(ctx context.Context, logger *zap.Logger) *runtime.Context {
	rctx := runtime.NewContext(ctx, logger)
	rctx.Mode = c.Exec.Mode
	if c.Exec.Workers > 0 {
		rctx.Workers = c.Exec.Workers
	}
	return rctx
}
