package activity

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only repository. Each stream keeps at
// most limit events; the oldest are dropped first.
type MemoryRepo struct {
	mu      sync.Mutex
	limit   int
	streams map[string][]Event
}

const defaultStreamLimit = 500

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{limit: defaultStreamLimit, streams: map[string][]Event{}}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := append(r.streams[e.Stream], e)
	if len(evs) > r.limit {
		evs = append([]Event(nil), evs[len(evs)-r.limit:]...)
	}
	r.streams[e.Stream] = evs
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, stream string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.streams[stream]))
	copy(out, r.streams[stream])
	return out, nil
}
