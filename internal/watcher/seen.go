package watcher

import (
	"context"
	"sync"
	"time"
)

// SeenStore records the last modification time handed to the callback per path.
type SeenStore interface {
	Seen(ctx context.Context, path string) (time.Time, bool, error)
	MarkSeen(ctx context.Context, path string, mtime time.Time) error
}

// MemoryStore is a SeenStore that forgets everything on restart.
type MemoryStore struct {
	mu    sync.Mutex
	mtime map[string]time.Time
}

// NewMemoryStore returns an empty in-memory dedup store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mtime: make(map[string]time.Time)}
}

func (m *MemoryStore) Seen(_ context.Context, path string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.mtime[path]
	return t, ok, nil
}

func (m *MemoryStore) MarkSeen(_ context.Context, path string, mtime time.Time) error {
	m.mu.Lock()
	m.mtime[path] = mtime
	m.mu.Unlock()
	return nil
}

// Len reports how many paths are tracked.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mtime)
}
