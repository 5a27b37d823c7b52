package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quillblog/internal/logging"
)

// Client is the single shared Redis connection pool. It backs the event
// stream, the admin Pub/Sub channel and the stats cache.
type Client struct {
	*redis.Client
}

// NewClient creates a client from a URL and checks it can reach the server.
// URL format: redis://[:password@]host:port[/db]
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := &Client{Client: redis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Client.Ping(pingCtx).Err(); err != nil {
		c.Client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logging.LogService("Redis").WithField("addr", opts.Addr).Info("connected")
	return c, nil
}
