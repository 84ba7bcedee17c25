package configflags

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/brimdata/arbor/config"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func parse(t *testing.T, args ...string) (*Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &f, f.Init()
}

func TestDefaults(t *testing.T) {
	f, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), f.Config)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
exec:
  mode: sequential
lake:
  codec: zstd
  cache: 1MiB
log:
  level: warn
`), 0644))
	f, err := parse(t, "-lake.codec", "snappy", "-config", path, "-log.level", "debug")
	require.NoError(t, err)
	assert.Equal(t, runtime.Sequential, f.Config.Exec.Mode)
	assert.Equal(t, lake.CodecSnappy, f.Config.Lake.Codec)
	assert.Equal(t, config.ByteSize(1<<20), f.Config.Lake.Cache)
	assert.Equal(t, zap.DebugLevel, f.Config.Log.Level)
	opts := f.LakeOptions(nil, nil)
	assert.Equal(t, int64(1<<20), opts.CacheBytes)
}

func TestInvalid(t *testing.T) {
	_, err := parse(t, "-lake.batchsize", "0")
	assert.Error(t, err)
	_, err = parse(t, "-config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
