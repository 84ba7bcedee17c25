// Package runtime executes query operations over tree sources.
//
// Each operation runs on one of three backends: sequential per-tree
// evaluation, task-parallel per-tree evaluation, or columnar evaluation of
// whole batches.  Choose picks the backend from the operation kind, its
// expressions, the source schema, and the requested Mode.  Every backend
// produces the same result for the same input.
package runtime

import (
	"context"
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Mode restricts backend selection.
type Mode int

const (
	Auto Mode = iota
	Sequential
	Parallel
	Vectorized
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	case Vectorized:
		return "vectorized"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	for m := Auto; m <= Vectorized; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	if s == "" {
		return Auto, nil
	}
	return Auto, fmt.Errorf("unknown execution mode: %q", s)
}

func (m *Mode) Set(s string) error {
	var err error
	*m, err = ParseMode(s)
	return err
}

func (m *Mode) UnmarshalText(b []byte) error {
	return m.Set(string(b))
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Context carries the settings shared by the operations of one query.
type Context struct {
	context.Context
	Logger *zap.Logger
	Mode   Mode
	// Workers bounds the goroutines of the parallel backend.
	Workers int
	Metrics *Metrics
	cancel  context.CancelFunc
}

func NewContext(ctx context.Context, logger *zap.Logger) *Context {
	ctx, cancel := context.WithCancel(ctx)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Context: ctx,
		Logger:  logger,
		Workers: runtime.GOMAXPROCS(0),
		cancel:  cancel,
	}
}

func DefaultContext() *Context {
	return NewContext(context.Background(), nil)
}

// WithMode returns a copy of c that runs with mode m.
func (c *Context) WithMode(m Mode) *Context {
	out := *c
	out.Mode = m
	return &out
}

// WithContext returns a copy of c whose operations run under ctx.
func (c *Context) WithContext(ctx context.Context) *Context {
	out := *c
	out.Context, out.cancel = context.WithCancel(ctx)
	return &out
}

func (c *Context) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Context) workers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Metrics counts operations by kind and backend.
type Metrics struct {
	ops *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Metrics{
		ops: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_exec_ops_total",
			Help: "Number of operations executed by backend.",
		}, []string{"op", "backend"}),
	}
}

func (c *Context) record(op OpKind, b Backend) {
	c.logger().Debug("Operation", zap.Stringer("op", op), zap.Stringer("backend", b))
	if c.Metrics != nil {
		c.Metrics.ops.WithLabelValues(op.String(), b.String()).Inc()
	}
}
