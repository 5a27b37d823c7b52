package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quillblog/internal/model"
)

// StatsKey is the Redis hash holding the cached moderation counters.
const StatsKey = "comments:stats"

// StatsCache caches the admin dashboard counters.
type StatsCache interface {
	// Get returns (stats, found, error). found=false on a miss or expired key.
	Get(ctx context.Context) (*model.ModerationStats, bool, error)
	Set(ctx context.Context, stats *model.ModerationStats) error
	Invalidate(ctx context.Context) error
}

// RedisStatsCache implements StatsCache with a Redis hash and a TTL.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) (*model.ModerationStats, bool, error) {
	values, err := c.client.HGetAll(ctx, StatsKey).Result()
	if err != nil {
		return nil, false, fmt.Errorf("hgetall stats: %w", err)
	}
	if len(values) == 0 {
		return nil, false, nil
	}

	var stats model.ModerationStats
	fields := map[string]*int64{
		"pending_comments":  &stats.PendingComments,
		"approved_comments": &stats.ApprovedComments,
		"trashed_comments":  &stats.TrashedComments,
		"pending_reports":   &stats.PendingReports,
	}
	for name, dst := range fields {
		n, err := strconv.ParseInt(values[name], 10, 64)
		if err != nil {
			// Partial or corrupt entry: treat as a miss.
			return nil, false, nil
		}
		*dst = n
	}
	return &stats, true, nil
}

// Set writes all counters and the TTL in one pipeline.
func (c *RedisStatsCache) Set(ctx context.Context, stats *model.ModerationStats) error {
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, StatsKey,
		"pending_comments", stats.PendingComments,
		"approved_comments", stats.ApprovedComments,
		"trashed_comments", stats.TrashedComments,
		"pending_reports", stats.PendingReports,
	)
	pipe.Expire(ctx, StatsKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, StatsKey).Err(); err != nil {
		return fmt.Errorf("invalidate stats: %w", err)
	}
	return nil
}
