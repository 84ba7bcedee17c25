package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Router dispatches each call to the engine enabled for the URI's scheme.
type Router struct {
	mu      sync.Mutex
	engines map[Scheme]Engine
}

var _ Engine = (*Router)(nil)

func NewRouter() *Router {
	return &Router{engines: make(map[Scheme]Engine)}
}

// Enable installs the default engine for scheme.  The S3 engine is
// created lazily so that enabling it does not require credentials.
func (r *Router) Enable(scheme Scheme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch scheme {
	case FileScheme:
		r.engines[scheme] = NewFileSystem()
	case MemoryScheme:
		r.engines[scheme] = NewMemory()
	case S3Scheme:
		r.engines[scheme] = nil
	}
}

// Set installs engine for scheme.
func (r *Router) Set(scheme Scheme, engine Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[scheme] = engine
}

func (r *Router) lookup(u *URI) (Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scheme := Scheme(u.Scheme)
	engine, ok := r.engines[scheme]
	if !ok {
		return nil, fmt.Errorf("%s: storage scheme %q not enabled", u, scheme)
	}
	if engine == nil && scheme == S3Scheme {
		engine = NewS3()
		r.engines[scheme] = engine
	}
	return engine, nil
}

func (r *Router) Get(ctx context.Context, u *URI) (Reader, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return engine.Get(ctx, u)
}

func (r *Router) Put(ctx context.Context, u *URI) (io.WriteCloser, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return engine.Put(ctx, u)
}

func (r *Router) PutIfNotExists(ctx context.Context, u *URI, b []byte) error {
	engine, err := r.lookup(u)
	if err != nil {
		return err
	}
	return engine.PutIfNotExists(ctx, u, b)
}

func (r *Router) Delete(ctx context.Context, u *URI) error {
	engine, err := r.lookup(u)
	if err != nil {
		return err
	}
	return engine.Delete(ctx, u)
}

func (r *Router) DeleteByPrefix(ctx context.Context, u *URI) error {
	engine, err := r.lookup(u)
	if err != nil {
		return err
	}
	return engine.DeleteByPrefix(ctx, u)
}

func (r *Router) Exists(ctx context.Context, u *URI) (bool, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return false, err
	}
	return engine.Exists(ctx, u)
}

func (r *Router) Size(ctx context.Context, u *URI) (int64, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return 0, err
	}
	return engine.Size(ctx, u)
}

func (r *Router) List(ctx context.Context, u *URI) ([]Info, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return engine.List(ctx, u)
}
