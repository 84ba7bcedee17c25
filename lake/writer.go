package lake

import (
	"bytes"
	"context"
	"sync"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/pkg/storage"
	"github.com/brimdata/arbor/store"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Writer buffers documents into batches and writes each full batch as an
// object while the caller keeps writing.  The container becomes visible
// to Open only after Close writes its metadata.
type Writer struct {
	parent  context.Context
	ctx     context.Context
	engine  storage.Engine
	uri     *storage.URI
	opts    Options
	group   *errgroup.Group
	builder *store.Builder

	mu      sync.Mutex
	batches []*BatchInfo
	closed  bool
}

func Create(ctx context.Context, engine storage.Engine, uri *storage.URI, opts Options) (*Writer, error) {
	opts = opts.withDefaults()
	exists, err := engine.Exists(ctx, uri.AppendPath(MetaName))
	if err != nil {
		return nil, storageError(err, "lake: checking %s", uri)
	}
	if exists {
		return nil, arbor.E(arbor.InvalidOperation, "lake: container %s already exists", uri)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	return &Writer{
		parent:  ctx,
		ctx:     gctx,
		engine:  engine,
		uri:     uri,
		opts:    opts,
		group:   g,
		builder: store.NewBuilder(),
	}, nil
}

func (w *Writer) Write(v arbor.Value) error {
	if w.closed {
		return arbor.E(arbor.InvalidOperation, "lake: write after close")
	}
	if err := w.ctx.Err(); err != nil {
		if werr := w.group.Wait(); werr != nil {
			return werr
		}
		return err
	}
	if err := w.builder.Append(v); err != nil {
		return err
	}
	if w.builder.Len() >= w.opts.BatchSize {
		w.flush()
	}
	return nil
}

func (w *Writer) flush() {
	forest := w.builder.Build()
	w.builder = store.NewBuilder()
	info := &BatchInfo{ID: ksuid.New(), Count: forest.Len(), Schema: forest.Schema()}
	w.mu.Lock()
	w.batches = append(w.batches, info)
	w.mu.Unlock()
	w.group.Go(func() error {
		defer forest.Release()
		return w.writeBatch(info, forest)
	})
}

func (w *Writer) writeBatch(info *BatchInfo, forest *store.Forest) error {
	raw, err := forest.MarshalBinary()
	if err != nil {
		return err
	}
	b, codec, err := compress(w.opts.Codec, raw)
	if err != nil {
		return errors.Wrapf(err, "lake: compressing batch %s", info.ID)
	}
	info.Codec = codec
	info.RawSize = len(raw)
	info.Size = int64(len(b))
	u := w.uri.AppendPath(info.ObjectName())
	if err := storage.Put(w.ctx, w.engine, u, bytes.NewReader(b)); err != nil {
		return storageError(err, "lake: writing batch %s", u)
	}
	w.opts.Logger.Debug("Batch written",
		zap.Stringer("id", info.ID),
		zap.Int("count", info.Count),
		zap.Int64("size", info.Size),
		zap.Stringer("codec", codec))
	return nil
}

// Close writes any partial batch, waits for all batch writes, and then
// writes the metadata.  If a batch write fails, the batches already
// written are deleted.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.builder.Len() > 0 {
		w.flush()
	}
	if err := w.group.Wait(); err != nil {
		return multierr.Append(err, w.abort())
	}
	meta := Meta{Version: metaVersion, Codec: w.opts.Codec}
	for k, info := range w.batches {
		meta.Count += info.Count
		if k == 0 {
			meta.Schema = info.Schema
		} else {
			meta.Schema = meta.Schema.Merge(info.Schema)
		}
		meta.Batches = append(meta.Batches, *info)
	}
	if meta.Schema == nil {
		meta.Schema = &arbor.Schema{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := storage.Put(w.parent, w.engine, w.uri.AppendPath(MetaName), bytes.NewReader(b)); err != nil {
		return multierr.Append(storageError(err, "lake: writing metadata of %s", w.uri), w.abort())
	}
	w.opts.Logger.Info("Container written",
		zap.Stringer("uri", w.uri),
		zap.Int("count", meta.Count),
		zap.Int("batches", len(meta.Batches)))
	return nil
}

// Abort deletes the batches written so far without creating the container.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.group.Wait()
	return w.abort()
}

func (w *Writer) abort() error {
	var err error
	for _, info := range w.batches {
		if info.Size == 0 {
			continue
		}
		u := w.uri.AppendPath(info.ObjectName())
		if derr := w.engine.Delete(w.parent, u); derr != nil && !errors.Is(derr, arbor.ErrNotFound) {
			err = multierr.Append(err, storageError(derr, "lake: deleting batch %s", u))
		}
	}
	return err
}

func storageError(err error, format string, args ...interface{}) error {
	return arbor.E(arbor.StorageError, errors.Wrapf(err, format, args...))
}
