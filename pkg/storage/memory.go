package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/brimdata/arbor"
	"golang.org/x/exp/maps"
)

// Memory is an engine holding objects in process memory.  Objects are
// keyed by URI host and path.  It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ Engine = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func memoryKey(u *URI) string {
	return u.Host + u.Path
}

func (m *Memory) Get(_ context.Context, u *URI) (Reader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[memoryKey(u)]
	if !ok {
		return nil, arbor.E(arbor.NotFound, "%s", u)
	}
	return newObjectReader(u, b), nil
}

func (m *Memory) Put(_ context.Context, u *URI) (io.WriteCloser, error) {
	return &memoryWriter{m: m, key: memoryKey(u)}, nil
}

func (m *Memory) PutIfNotExists(_ context.Context, u *URI, b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey(u)
	if _, ok := m.objects[key]; ok {
		return arbor.E(arbor.InvalidOperation, "%s: already exists", u)
	}
	m.objects[key] = bytes.Clone(b)
	return nil
}

func (m *Memory) Delete(_ context.Context, u *URI) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey(u)
	if _, ok := m.objects[key]; !ok {
		return arbor.E(arbor.NotFound, "%s", u)
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) DeleteByPrefix(_ context.Context, u *URI) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := memoryKey(u)
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, u *URI) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[memoryKey(u)]
	return ok, nil
}

func (m *Memory) Size(_ context.Context, u *URI) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[memoryKey(u)]
	if !ok {
		return 0, arbor.E(arbor.NotFound, "%s", u)
	}
	return int64(len(b)), nil
}

// List returns the objects directly beneath u.
func (m *Memory) List(_ context.Context, u *URI) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := strings.TrimSuffix(memoryKey(u), "/") + "/"
	keys := maps.Keys(m.objects)
	sort.Strings(keys)
	var infos []Info
	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)
		if name == key || strings.Contains(name, "/") {
			continue
		}
		infos = append(infos, Info{Name: name, Size: int64(len(m.objects[key]))})
	}
	return infos, nil
}

type memoryWriter struct {
	bytes.Buffer
	m   *Memory
	key string
}

func (w *memoryWriter) Close() error {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	w.m.objects[w.key] = bytes.Clone(w.Bytes())
	return nil
}
