// Package lake persists a forest as a container of independently
// compressed batches plus a metadata object.  The metadata holds the
// merged schema and per-batch descriptors, so a container can answer
// schema and count queries without decoding any batch.
package lake

import (
	"github.com/brimdata/arbor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize    = 8192
	DefaultCacheBatches = 16
	MetaName            = "meta.json"
	metaVersion         = 1
)

type Options struct {
	// BatchSize is the number of documents per batch.
	BatchSize int
	Codec     Codec
	// CacheBatches bounds the decoded batch cache by entries.  When zero,
	// CacheBytes bounds it by the uncompressed size of the batches.
	CacheBatches int
	CacheBytes   int64
	// Concurrency bounds the batch writes in flight.
	Concurrency int
	Logger      *zap.Logger
	// Registerer receives the container's metrics.  A private registry
	// is used when nil.
	Registerer prometheus.Registerer
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Codec == "" {
		o.Codec = CodecLZ4
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 2
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Registerer == nil {
		o.Registerer = prometheus.NewRegistry()
	}
	return o
}

// Meta is the content of a container's metadata object.
type Meta struct {
	Version int           `json:"version"`
	Codec   Codec         `json:"codec"`
	Count   int           `json:"count"`
	Schema  *arbor.Schema `json:"schema"`
	Batches []BatchInfo   `json:"batches"`
}

type BatchInfo struct {
	ID ksuid.KSUID `json:"id"`
	// Codec may differ from the container's when compression did not
	// shrink the batch.
	Codec   Codec         `json:"codec"`
	Count   int           `json:"count"`
	Size    int64         `json:"size"`
	RawSize int           `json:"raw_size"`
	Schema  *arbor.Schema `json:"schema"`
}

func (b BatchInfo) ObjectName() string {
	return b.ID.String() + ".batch"
}
