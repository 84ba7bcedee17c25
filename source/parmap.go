package source

import (
	"context"
	"runtime"

	"github.com/brimdata/arbor/store"
	"golang.org/x/sync/errgroup"
)

// ParMap applies fn to every tree of src using up to workers goroutines and
// returns the results in tree order.  Batches are visited one at a time and
// each batch's shards join before the next batch is loaded, so fn may read
// from batch for the duration of the call.  The first error observed stops
// the remaining shards and is returned with no results.
func ParMap[T any](ctx context.Context, src Source, workers int, fn func(batch *store.Forest, local, global int) (T, error)) ([]T, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]T, src.TreeCount())
	var err error
	iterErr := src.ForEachBatch(ctx, func(batch *store.Forest, _, offset int) Signal {
		err = mapBatch(ctx, batch, offset, workers, out, fn)
		if err != nil {
			return Break
		}
		return Continue
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

func mapBatch[T any](ctx context.Context, batch *store.Forest, offset, workers int, out []T, fn func(*store.Forest, int, int) (T, error)) error {
	n := batch.Len()
	if n == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	chunk := (n + 4*workers - 1) / (4 * workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			for k := lo; k < hi; k++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := fn(batch, k, offset+k)
				if err != nil {
					return err
				}
				out[offset+k] = v
			}
			return nil
		})
	}
	return g.Wait()
}
