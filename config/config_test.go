package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/units"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/runtime"
	"github.com/brimdata/arbor/service/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParse(t *testing.T) {
	conf, err := Parse([]byte(`
exec:
  mode: vectorized
  workers: 3
lake:
  batch_size: 1000
  codec: zstd
  cache: 512MiB
log:
  path: stdout
  level: debug
  mode: rotate
`))
	require.NoError(t, err)
	assert.Equal(t, runtime.Vectorized, conf.Exec.Mode)
	assert.Equal(t, 3, conf.Exec.Workers)
	assert.Equal(t, 1000, conf.Lake.BatchSize)
	assert.Equal(t, lake.CodecZstd, conf.Lake.Codec)
	assert.Equal(t, ByteSize(512<<20), conf.Lake.Cache)
	assert.Equal(t, 2, conf.Lake.Concurrency)
	assert.Equal(t, logger.Config{Path: "stdout", Level: zap.DebugLevel, Mode: logger.FileModeRotate}, conf.Log)
}

func TestParseEmpty(t *testing.T) {
	conf, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), conf)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown key", "exec:\n  speed: fast\n"},
		{"bad mode", "exec:\n  mode: warp\n"},
		{"bad codec", "lake:\n  codec: gzip\n"},
		{"bad size", "lake:\n  cache: lots\n"},
		{"zero batch", "lake:\n  batch_size: 0\n"},
		{"negative workers", "exec:\n  workers: -1\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	conf, err := Load(filepath.Join(dir, "none.yaml"), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), conf)
	_, err = Load(filepath.Join(dir, "none.yaml"), false)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lake:\n  cache: 1GB\n"), 0644))
	conf, err = Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, ByteSize(1000*1000*1000), conf.Lake.Cache)
}

func TestCacheSize(t *testing.T) {
	assert.Equal(t, ByteSize(MinCacheSize), cacheSize(0))
	assert.Equal(t, ByteSize(MinCacheSize), cacheSize(512<<20))
	assert.Equal(t, ByteSize(units.GiB), cacheSize(16<<30))
	assert.Equal(t, ByteSize(MaxCacheSize), cacheSize(1<<40))
	assert.GreaterOrEqual(t, DefaultCacheSize(), ByteSize(MinCacheSize))
}

func TestByteSizeString(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.Set("2MiB"))
	assert.Equal(t, "2MiB", b.String())
	assert.Error(t, b.Set("-2MiB"))
}

func TestOptions(t *testing.T) {
	conf := Default()
	conf.Exec = Exec{Mode: runtime.Parallel, Workers: 5}
	rctx := conf.Context(context.Background(), nil)
	assert.Equal(t, runtime.Parallel, rctx.Mode)
	assert.Equal(t, 5, rctx.Workers)
	opts := conf.LakeOptions(nil, nil)
	assert.Equal(t, int64(conf.Lake.Cache), opts.CacheBytes)
	assert.Equal(t, lake.CodecLZ4, opts.Codec)
}
