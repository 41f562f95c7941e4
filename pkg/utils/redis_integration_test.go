//go:build integration

package utils

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSlot_Integration(t *testing.T) {
	addr := os.Getenv("STORE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STORE_TEST_REDIS_ADDR not set, skipping integration test")
	}
	ctx := context.Background()
	rdb, err := OpenRedis(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	slot, err := NewSlot(rdb, "test:slot:"+uuid.NewString(), 1, time.Minute)
	if err != nil {
		t.Fatalf("new slot: %v", err)
	}
	if ok, _ := slot.Refresh(ctx); ok {
		t.Fatalf("refresh of an unheld slot must report false")
	}
	if ok, err := slot.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := slot.Acquire(ctx); ok {
		t.Fatalf("second acquire must fail while held")
	}
	if ok, err := slot.Refresh(ctx); err != nil || !ok {
		t.Fatalf("refresh: ok=%v err=%v", ok, err)
	}
	if err := slot.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := slot.Refresh(ctx); ok {
		t.Fatalf("refresh after release must report false")
	}
}
