package store

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per collection, field = document id.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store whose hash keys are "<prefix><collection>".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "voice:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(collection string) string { return s.prefix + collection }

func (s *RedisStore) Put(ctx context.Context, collection, id string, value []byte) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.key(collection), id, value).Err()
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := validKey(collection, id); err != nil {
		return nil, err
	}
	b, err := s.rdb.HGet(ctx, s.key(collection), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([][]byte, error) {
	if collection == "" {
		return nil, ErrInvalidArgument
	}
	all, err := s.rdb.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, []byte(all[id]))
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	return s.rdb.HDel(ctx, s.key(collection), id).Err()
}
