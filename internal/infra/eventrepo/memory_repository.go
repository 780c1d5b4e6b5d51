package eventrepo

import (
	"context"
	"sync"

	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/domain/impact"
)

// MemoryRepository keeps events in process memory for local runs.
type MemoryRepository struct {
	mu     sync.RWMutex
	events map[string]impact.Event
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{events: make(map[string]impact.Event)}
}

// SaveEvents implements astro.EventRepository.
func (r *MemoryRepository) SaveEvents(_ context.Context, events []impact.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.events[ev.ID] = ev
	}
	return nil
}

// FindEvent implements astro.EventRepository.
func (r *MemoryRepository) FindEvent(_ context.Context, id string) (impact.Event, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.events[id]
	return ev, ok, nil
}

var _ astro.EventRepository = (*MemoryRepository)(nil)
