package campaigns

import (
	"context"
	"errors"
	"sync"
	"time"

	"voice-campaigns/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Limiter hands out the single run slot a campaign sweep holds while it
// executes. The sweep calls Refresh before every contact.
type Limiter interface {
	Acquire(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

var ErrSlotLost = errors.New("campaigns: run slot expired while held")

// LocalLimiter allows one run per process.
type LocalLimiter struct {
	mu   sync.Mutex
	held bool
}

func NewLocalLimiter() *LocalLimiter { return &LocalLimiter{} }

func (l *LocalLimiter) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *LocalLimiter) Refresh(ctx context.Context) error { return nil }

func (l *LocalLimiter) Release(ctx context.Context) error {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
	return nil
}

const (
	DefaultSlotKey = "campaigns:running"
	DefaultSlotTTL = 6 * time.Hour
)

// RedisLimiter allows one run across every process sharing the Redis instance.
type RedisLimiter struct {
	slot *utils.Slot
}

// NewRedisLimiter uses DefaultSlotKey and DefaultSlotTTL for zero values.
func NewRedisLimiter(rdb redis.Scripter, key string, ttl time.Duration) (*RedisLimiter, error) {
	if key == "" {
		key = DefaultSlotKey
	}
	if ttl <= 0 {
		ttl = DefaultSlotTTL
	}
	slot, err := utils.NewSlot(rdb, key, 1, ttl)
	if err != nil {
		return nil, err
	}
	return &RedisLimiter{slot: slot}, nil
}

func (l *RedisLimiter) Acquire(ctx context.Context) (bool, error) { return l.slot.Acquire(ctx) }

func (l *RedisLimiter) Refresh(ctx context.Context) error {
	ok, err := l.slot.Refresh(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSlotLost
	}
	return nil
}

func (l *RedisLimiter) Release(ctx context.Context) error { return l.slot.Release(ctx) }
