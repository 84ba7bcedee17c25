package lake

import (
	"context"
	"sync"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/pkg/storage"
	"github.com/brimdata/arbor/store"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Container is an opened, read-only persisted forest.  Batches are
// decoded on demand and kept in an LRU cache.  A Container is safe for
// concurrent use.
type Container struct {
	engine  storage.Engine
	uri     *storage.URI
	meta    Meta
	offsets []int
	logger  *zap.Logger

	// mu orders cache lookups with evictions, which release the evicted
	// forest.
	mu    sync.Mutex
	cache *lru.Cache[int, *store.Forest]

	decoded   atomic.Int64
	bytesRead atomic.Int64
	hits      atomic.Int64
	metrics   metrics
}

type metrics struct {
	decoded   prometheus.Counter
	bytesRead prometheus.Counter
	hits      prometheus.Counter
	misses    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) metrics {
	factory := promauto.With(reg)
	return metrics{
		decoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_lake_batches_decoded_total",
			Help: "Number of container batches decoded.",
		}),
		bytesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_lake_bytes_read_total",
			Help: "Number of compressed batch bytes read from storage.",
		}),
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_lake_cache_hits_total",
			Help: "Number of batch loads served from the cache.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_lake_cache_misses_total",
			Help: "Number of batch loads that required a decode.",
		}),
	}
}

// Stats counts the work a Container has done.
type Stats struct {
	BatchesDecoded int64
	BytesRead      int64
	CacheHits      int64
}

// Open reads a container's metadata.  No batch is read.
func Open(ctx context.Context, engine storage.Engine, uri *storage.URI, opts Options) (*Container, error) {
	opts = opts.withDefaults()
	u := uri.AppendPath(MetaName)
	b, err := storage.Get(ctx, engine, u)
	if err != nil {
		return nil, storageError(err, "lake: reading metadata %s", u)
	}
	var meta Meta
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, storageError(err, "lake: decoding metadata %s", u)
	}
	if meta.Version != metaVersion {
		return nil, arbor.E(arbor.StorageError, "lake: %s: unsupported version %d", u, meta.Version)
	}
	c := &Container{
		engine:  engine,
		uri:     uri,
		meta:    meta,
		offsets: make([]int, len(meta.Batches)),
		logger:  opts.Logger,
		metrics: newMetrics(opts.Registerer),
	}
	var off int
	for k, info := range meta.Batches {
		c.offsets[k] = off
		off += info.Count
	}
	if off != meta.Count {
		return nil, arbor.E(arbor.StorageError, "lake: %s: batch counts sum to %d, expected %d", u, off, meta.Count)
	}
	c.cache, err = lru.NewWithEvict(cacheEntries(opts, meta), func(_ int, f *store.Forest) {
		f.Release()
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func cacheEntries(opts Options, meta Meta) int {
	if opts.CacheBatches > 0 {
		return opts.CacheBatches
	}
	if opts.CacheBytes <= 0 || len(meta.Batches) == 0 {
		return DefaultCacheBatches
	}
	var raw int64
	for _, info := range meta.Batches {
		raw += int64(info.RawSize)
	}
	avg := raw / int64(len(meta.Batches))
	if avg == 0 {
		return len(meta.Batches)
	}
	if n := opts.CacheBytes / avg; n > 0 {
		return int(n)
	}
	return 1
}

func (c *Container) URI() *storage.URI {
	return c.uri
}

// Schema returns the merged schema of all batches.
func (c *Container) Schema() *arbor.Schema {
	return c.meta.Schema
}

func (c *Container) Meta() Meta {
	return c.meta
}

func (c *Container) Count() int {
	return c.meta.Count
}

func (c *Container) BatchCount() int {
	return len(c.meta.Batches)
}

// Offset returns the global index of the first tree of batch i.
func (c *Container) Offset(i int) int {
	return c.offsets[i]
}

// Locate returns the batch holding global tree index g and its index
// within the batch.
func (c *Container) Locate(g int) (int, int, bool) {
	if g < 0 || g >= c.meta.Count {
		return 0, 0, false
	}
	lo, hi := 0, len(c.offsets)
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if c.offsets[mid] <= g {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, g - c.offsets[lo], true
}

// Load returns batch i.  The caller owns the returned forest and should
// release it when done.
func (c *Container) Load(ctx context.Context, i int) (*store.Forest, error) {
	if i < 0 || i >= len(c.meta.Batches) {
		return nil, arbor.E(arbor.InvalidOperation, "lake: batch %d out of range [0,%d)", i, len(c.meta.Batches))
	}
	c.mu.Lock()
	if f, ok := c.cache.Get(i); ok {
		f = f.Clone()
		c.mu.Unlock()
		c.hits.Inc()
		c.metrics.hits.Inc()
		return f, nil
	}
	c.mu.Unlock()
	c.metrics.misses.Inc()
	f, err := c.decode(ctx, i)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache.Add(i, f.Clone())
	c.mu.Unlock()
	return f, nil
}

func (c *Container) decode(ctx context.Context, i int) (*store.Forest, error) {
	info := c.meta.Batches[i]
	u := c.uri.AppendPath(info.ObjectName())
	b, err := storage.Get(ctx, c.engine, u)
	if err != nil {
		return nil, storageError(err, "lake: reading batch %d", i)
	}
	c.bytesRead.Add(int64(len(b)))
	c.metrics.bytesRead.Add(float64(len(b)))
	raw, err := decompress(info.Codec, b, info.RawSize)
	if err != nil {
		return nil, storageError(err, "lake: decompressing batch %s", u)
	}
	f, err := store.Unmarshal(raw)
	if err != nil {
		return nil, storageError(err, "lake: decoding batch %s", u)
	}
	if f.Len() != info.Count {
		f.Release()
		return nil, arbor.E(arbor.StorageError, errors.Errorf("lake: batch %s has %d trees, expected %d", u, f.Len(), info.Count))
	}
	c.decoded.Inc()
	c.metrics.decoded.Inc()
	c.logger.Debug("Batch decoded", zap.Int("batch", i), zap.Int("count", f.Len()), zap.Int("bytes", len(b)))
	return f, nil
}

func (c *Container) Stats() Stats {
	return Stats{
		BatchesDecoded: c.decoded.Load(),
		BytesRead:      c.bytesRead.Load(),
		CacheHits:      c.hits.Load(),
	}
}

// Close empties the batch cache.
func (c *Container) Close() error {
	c.mu.Lock()
	c.cache.Purge()
	c.mu.Unlock()
	return nil
}

// Remove deletes a container's batches and metadata.
func Remove(ctx context.Context, engine storage.Engine, uri *storage.URI) error {
	if err := engine.DeleteByPrefix(ctx, uri); err != nil {
		return storageError(err, "lake: removing %s", uri)
	}
	return nil
}
