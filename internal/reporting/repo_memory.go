package reporting

import (
	"context"
	"sync"

	"voice-campaigns/internal/calls"
)

// MemoryRepo is a fixed record set for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	Calls []calls.Call
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(ctx context.Context) ([]calls.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.Call, len(r.Calls))
	copy(out, r.Calls)
	return out, nil
}

// CallsRepo reads the live records held by the calls service.
type CallsRepo struct {
	Calls *calls.Service
}

func (r CallsRepo) ListCalls(ctx context.Context) ([]calls.Call, error) {
	return r.Calls.All(), nil
}
