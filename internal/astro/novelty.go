package astro

import (
	"context"
	"sync"
	"time"
)

// NoveltyStore remembers when each object was last shown to the user.
type NoveltyStore interface {
	LastShown(ctx context.Context, name string) (time.Time, bool, error)
	MarkShown(ctx context.Context, name string, at time.Time) error
}

// MemoryNovelty is an in-process NoveltyStore.
type MemoryNovelty struct {
	mu    sync.Mutex
	shown map[string]time.Time
}

func NewMemoryNovelty() *MemoryNovelty {
	return &MemoryNovelty{shown: make(map[string]time.Time)}
}

func (m *MemoryNovelty) LastShown(_ context.Context, name string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.shown[name]
	return t, ok, nil
}

func (m *MemoryNovelty) MarkShown(_ context.Context, name string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown[name] = at
	return nil
}
