package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/brimdata/arbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, engine Engine, root *URI) {
	ctx := context.Background()
	obj := root.AppendPath("dir", "obj")
	ok, err := engine.Exists(ctx, obj)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = engine.Get(ctx, obj)
	assert.ErrorIs(t, err, arbor.ErrNotFound)

	require.NoError(t, Put(ctx, engine, obj, bytes.NewReader([]byte("hello"))))
	ok, err = engine.Exists(ctx, obj)
	require.NoError(t, err)
	assert.True(t, ok)
	b, err := Get(ctx, engine, obj)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	size, err := engine.Size(ctx, obj)
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	r, err := engine.Get(ctx, obj)
	require.NoError(t, err)
	n, err := Size(r)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	require.NoError(t, r.Close())

	require.NoError(t, engine.PutIfNotExists(ctx, root.AppendPath("dir", "other"), []byte("x")))
	assert.Error(t, engine.PutIfNotExists(ctx, obj, []byte("x")))

	infos, err := engine.List(ctx, root.AppendPath("dir"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []Info{{"obj", 5}, {"other", 1}}, infos)

	require.NoError(t, engine.Delete(ctx, obj))
	ok, err = engine.Exists(ctx, obj)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, engine.DeleteByPrefix(ctx, root))
	ok, err = engine.Exists(ctx, root.AppendPath("dir", "other"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Put(ctx, engine, obj, bytes.NewReader([]byte("again"))))
	b, err = Get(ctx, engine, obj)
	require.NoError(t, err)
	assert.Equal(t, "again", string(b))
}

func TestFileSystem(t *testing.T) {
	testEngine(t, NewFileSystem(), MustParseURI(t.TempDir()))
}

func TestMemory(t *testing.T) {
	testEngine(t, NewMemory(), MustParseURI("memory://bucket/root"))
}

func TestMemoryReadAfterClose(t *testing.T) {
	ctx := context.Background()
	engine := NewMemory()
	obj := MustParseURI("memory://bucket/obj")
	require.NoError(t, engine.PutIfNotExists(ctx, obj, []byte("hello")))
	r, err := engine.Get(ctx, obj)
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = r.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, "lo", string(buf))
	require.NoError(t, r.Close())
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, arbor.ErrInvalidOperation)
	assert.ErrorContains(t, err, "memory://bucket/obj")
}

func TestRouter(t *testing.T) {
	router := NewLocalEngine()
	testEngine(t, router, MustParseURI("memory://bucket/root"))
	_, err := NewRouter().Get(context.Background(), MustParseURI("memory://x/y"))
	assert.Error(t, err)
}

func TestParseURI(t *testing.T) {
	u, err := ParseURI("s3://bucket/key/path")
	require.NoError(t, err)
	assert.True(t, u.HasScheme(S3Scheme))
	assert.Equal(t, "bucket", u.Host)
	assert.Equal(t, "s3://bucket/key/path/x", u.AppendPath("x").String())

	u, err = ParseURI("relative/dir")
	require.NoError(t, err)
	assert.True(t, u.HasScheme(FileScheme))
	abs, err := filepath.Abs("relative/dir")
	require.NoError(t, err)
	assert.Equal(t, abs, u.Filepath())

	u, err = ParseURI("")
	require.NoError(t, err)
	assert.True(t, u.IsZero())

	root := MustParseURI("memory://b/root")
	assert.Equal(t, "a/b", root.RelPath(*root.AppendPath("a", "b")))

	var text URI
	require.NoError(t, text.UnmarshalText([]byte("memory://b/p")))
	assert.Equal(t, "memory://b/p", text.String())
}
