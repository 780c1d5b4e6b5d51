package astro

import (
	"context"
	"time"

	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/impact"
)

// Cache stores serialized responses under fingerprint keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// EventRepository persists scored events so they can be fetched by id.
type EventRepository interface {
	SaveEvents(ctx context.Context, events []impact.Event) error
	FindEvent(ctx context.Context, id string) (impact.Event, bool, error)
}

// ProfileResolver turns profile options into a concrete orb profile.
type ProfileResolver interface {
	Resolve(name string, enabled []string, overrides map[string]float64) (aspects.Profile, error)
}
