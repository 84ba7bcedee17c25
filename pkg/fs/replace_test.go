package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplacerClose(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "file1")
	require.NoError(t, os.WriteFile(fname, []byte("data1"), 0666))

	r, err := NewFileReplacer(fname, 0644)
	require.NoError(t, err)
	_, err = r.Write([]byte("data2"))
	require.NoError(t, err)
	b, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.Equal(t, "data1", string(b))
	require.NoError(t, r.Close())

	b, err = os.ReadFile(fname)
	require.NoError(t, err)
	require.Equal(t, "data2", string(b))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReplacerAbort(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "file1")
	require.NoError(t, os.WriteFile(fname, []byte("data1"), 0666))

	r, err := NewFileReplacer(fname, 0666)
	require.NoError(t, err)
	_, err = r.Write([]byte("data2"))
	require.NoError(t, err)
	r.Abort()

	b, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.Equal(t, "data1", string(b))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
