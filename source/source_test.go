package source_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/lake"
	"github.com/brimdata/arbor/pkg/storage"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(n int) []arbor.Value {
	vals := make([]arbor.Value, n)
	for k := range vals {
		vals[k] = arbor.MustParseJSON(fmt.Sprintf(`{"n":%d,"even":%t}`, k, k%2 == 0))
	}
	return vals
}

func batched(t *testing.T, vals []arbor.Value, batchSize int) (*source.Batched, *lake.Container) {
	ctx := context.Background()
	engine := storage.NewMemory()
	uri := storage.MustParseURI("memory://source/" + t.Name())
	w, err := lake.Create(ctx, engine, uri, lake.Options{BatchSize: batchSize})
	require.NoError(t, err)
	for _, v := range vals {
		require.NoError(t, w.Write(v))
	}
	require.NoError(t, w.Close())
	c, err := lake.Open(ctx, engine, uri, lake.Options{})
	require.NoError(t, err)
	return source.NewBatched(c), c
}

func sources(t *testing.T, vals []arbor.Value) map[string]source.Source {
	mem, err := source.FromValues(vals)
	require.NoError(t, err)
	b, _ := batched(t, vals, 7)
	return map[string]source.Source{"memory": mem, "batched": b}
}

func TestForEachTree(t *testing.T) {
	vals := values(30)
	for name, src := range sources(t, vals) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 30, src.TreeCount())
			var got []arbor.Value
			var globals []int
			err := src.ForEachTree(context.Background(), func(batch *store.Forest, local, global int) source.Signal {
				got = append(got, batch.Tree(local))
				globals = append(globals, global)
				return source.Continue
			})
			require.NoError(t, err)
			require.Len(t, got, 30)
			for k := range vals {
				assert.Equal(t, k, globals[k])
				assert.True(t, vals[k].Equal(got[k]))
			}
		})
	}
}

func TestSchemaWithoutDecoding(t *testing.T) {
	src, c := batched(t, values(30), 3)
	assert.Equal(t, 10, src.BatchCount())
	assert.Equal(t, "{n:int,even:bool}", src.Schema().String())
	assert.EqualValues(t, 0, c.Stats().BatchesDecoded)
}

func TestBreakStopsDecoding(t *testing.T) {
	src, c := batched(t, values(30), 3)
	var visited int
	err := src.ForEachTree(context.Background(), func(_ *store.Forest, _, global int) source.Signal {
		visited++
		if global == 4 {
			return source.Break
		}
		return source.Continue
	})
	require.NoError(t, err)
	assert.Equal(t, 5, visited)
	assert.EqualValues(t, 2, c.Stats().BatchesDecoded)
}

func TestGetTree(t *testing.T) {
	vals := values(30)
	for name, src := range sources(t, vals) {
		t.Run(name, func(t *testing.T) {
			v, err := src.GetTree(context.Background(), 17)
			require.NoError(t, err)
			assert.True(t, vals[17].Equal(v))
			_, err = src.GetTree(context.Background(), 30)
			assert.ErrorIs(t, err, arbor.ErrInvalidOperation)
		})
	}
}

func TestParMapPreservesOrder(t *testing.T) {
	vals := values(100)
	for name, src := range sources(t, vals) {
		t.Run(name, func(t *testing.T) {
			out, err := source.ParMap(context.Background(), src, 4, func(batch *store.Forest, local, global int) (int64, error) {
				return batch.Tree(local).Get("n").Int() * 2, nil
			})
			require.NoError(t, err)
			require.Len(t, out, 100)
			for k, v := range out {
				assert.EqualValues(t, 2*k, v)
			}
		})
	}
}

func TestParMapFailsFast(t *testing.T) {
	boom := errors.New("boom")
	for name, src := range sources(t, values(100)) {
		t.Run(name, func(t *testing.T) {
			out, err := source.ParMap(context.Background(), src, 4, func(_ *store.Forest, _, global int) (int, error) {
				if global == 10 {
					return 0, boom
				}
				return global, nil
			})
			assert.ErrorIs(t, err, boom)
			assert.Nil(t, out)
		})
	}
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, src := range sources(t, values(10)) {
		t.Run(name, func(t *testing.T) {
			err := src.ForEachBatch(ctx, func(*store.Forest, int, int) source.Signal {
				return source.Continue
			})
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestCollect(t *testing.T) {
	vals := values(20)
	for name, src := range sources(t, vals) {
		t.Run(name, func(t *testing.T) {
			f, err := source.Collect(context.Background(), src)
			require.NoError(t, err)
			require.Equal(t, 20, f.Len())
			assert.True(t, vals[19].Equal(f.Tree(19)))
		})
	}
}
