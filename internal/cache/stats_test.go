package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quillblog/internal/model"
)

func newTestCache(t *testing.T, ttl time.Duration) (StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStatsCache(client, ttl), mr
}

func TestStatsCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, time.Minute)

	if _, found, err := c.Get(ctx); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	want := &model.ModerationStats{PendingComments: 3, ApprovedComments: 10, TrashedComments: 1, PendingReports: 2}
	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := c.Get(ctx)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStatsCache_ExpiresAndInvalidates(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, 30*time.Second)

	stats := &model.ModerationStats{PendingComments: 1}
	if err := c.Set(ctx, stats); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(31 * time.Second)
	if _, found, _ := c.Get(ctx); found {
		t.Error("expected entry to expire")
	}

	_ = c.Set(ctx, stats)
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, found, _ := c.Get(ctx); found {
		t.Error("expected miss after invalidate")
	}
}

func TestStatsCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	mr.HSet(StatsKey, "pending_comments", "x")
	if _, found, err := c.Get(ctx); err != nil || found {
		t.Errorf("expected miss, got found=%v err=%v", found, err)
	}
}
