package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the client used by the redis store backend and the
// campaign run slot. Zero values fall back to defaults.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout time.Duration
	IOTimeout   time.Duration
	PoolSize    int
	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 3 * time.Second
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = 2 * time.Second
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 2 * time.Second
	}
	return c
}

// OpenRedis creates a client and fails fast when the server does not answer PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	cfg = cfg.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.IOTimeout,
		WriteTimeout: cfg.IOTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// acquireScript takes a permit when fewer than ARGV[1] are held and
// refreshes the key TTL (ARGV[2], ms). Returns 1 on success, 0 when full.
var acquireScript = redis.NewScript(`
local held = tonumber(redis.call('GET', KEYS[1]) or '0')
if held >= tonumber(ARGV[1]) then
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
  return 0
end
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// releaseScript returns a permit; the key disappears when none are held.
var releaseScript = redis.NewScript(`
local held = redis.call('DECR', KEYS[1])
if held <= 0 then
  redis.call('DEL', KEYS[1])
end
return held
`)

// refreshScript extends the key TTL (ARGV[1], ms) while permits are held.
// Returns 0 when the key has already expired.
var refreshScript = redis.NewScript(`
return redis.call('PEXPIRE', KEYS[1], ARGV[1])
`)

// Slot is a counting semaphore shared by every process using the same key.
// The TTL reclaims permits leaked by a process that died while holding one;
// long-lived holders call Refresh well within it.
type Slot struct {
	rdb   redis.Scripter
	key   string
	limit int
	ttl   time.Duration
}

func NewSlot(rdb redis.Scripter, key string, limit int, ttl time.Duration) (*Slot, error) {
	switch {
	case rdb == nil:
		return nil, errors.New("redis client is nil")
	case key == "":
		return nil, errors.New("slot key is required")
	case limit <= 0:
		return nil, errors.New("slot limit must be > 0")
	case ttl <= 0:
		return nil, errors.New("slot ttl must be > 0")
	}
	return &Slot{rdb: rdb, key: key, limit: limit, ttl: ttl}, nil
}

// Acquire reports whether a permit was taken.
func (s *Slot) Acquire(ctx context.Context) (bool, error) {
	n, err := acquireScript.Run(ctx, s.rdb, []string{s.key}, s.limit, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Slot) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, s.rdb, []string{s.key}).Err()
}

// Refresh pushes the TTL out again. It reports false when the key had
// already expired, meaning the permit may have been handed to someone else.
func (s *Slot) Refresh(ctx context.Context) (bool, error) {
	n, err := refreshScript.Run(ctx, s.rdb, []string{s.key}, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
