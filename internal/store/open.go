package store

import (
	"context"
	"database/sql"
	"fmt"

	"voice-campaigns/internal/config"
	"voice-campaigns/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces every hash the redis backend writes.
const RedisKeyPrefix = "voice:"

// Backend is an opened store plus the clients behind it.
// Redis is non-nil only for the redis backend.
type Backend struct {
	Store Store
	Redis *redis.Client

	db *sql.DB
}

// Open connects the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return &Backend{Store: NewMemoryStore()}, nil
	case "postgres":
		db, err := utils.OpenPostgres(ctx, utils.DriverPgx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		pg := NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return &Backend{Store: pg, db: db}, nil
	case "redis":
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return &Backend{Store: NewRedisStore(rdb, RedisKeyPrefix), Redis: rdb}, nil
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", ErrInvalidArgument, cfg.Store.Backend)
}

func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	if b.Redis != nil {
		return b.Redis.Close()
	}
	return nil
}
