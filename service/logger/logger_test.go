package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brimdata/arbor/service/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func TestFileModeSet(t *testing.T) {
	cases := []struct {
		in       string
		expected logger.FileMode
		err      bool
	}{
		{in: "", expected: logger.FileModeAppend},
		{in: "append", expected: logger.FileModeAppend},
		{in: "truncate", expected: logger.FileModeTruncate},
		{in: "rotate", expected: logger.FileModeRotate},
		{in: "shred", err: true},
	}
	for _, c := range cases {
		var m logger.FileMode
		err := m.Set(c.in)
		if c.err {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.expected, m)
	}
}

func TestFileModes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arbor.log")
	write := func(mode logger.FileMode, msg string) {
		l, err := logger.New(logger.Config{Path: path, Mode: mode, Level: zapcore.InfoLevel})
		require.NoError(t, err)
		l.Info(msg)
		l.Debug("hidden")
		require.NoError(t, l.Sync())
	}
	write(logger.FileModeTruncate, "first")
	write(logger.FileModeAppend, "second")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "\n"))
	assert.Contains(t, string(b), `"msg":"second"`)
	assert.NotContains(t, string(b), "hidden")

	write(logger.FileModeTruncate, "third")
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), "\n"))
}

func TestRotateNeedsDirectory(t *testing.T) {
	_, err := logger.New(logger.Config{Path: filepath.Join(t.TempDir(), "missing", "x.log"), Mode: logger.FileModeRotate})
	assert.Error(t, err)
}

func TestConfigYAML(t *testing.T) {
	var conf logger.Config
	require.NoError(t, yaml.Unmarshal([]byte("path: stdout\nmode: rotate\nlevel: debug\ndevmode: true\n"), &conf))
	assert.Equal(t, logger.Config{Path: "stdout", Mode: logger.FileModeRotate, Level: zap.DebugLevel, DevMode: true}, conf)
}
