// Package redis builds the go-redis client shared by the geocode cache and the
// account event stream.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"satgas-data/internal/common/config"
)

// NewClient builds a client from cfg and pings it within timeout. The client is
// returned even when the ping fails so callers may run degraded; both the geocode
// cache and the event stream tolerate an unreachable Redis.
func NewClient(ctx context.Context, cfg *config.RedisConfig, timeout time.Duration) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		return c, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return c, nil
}
