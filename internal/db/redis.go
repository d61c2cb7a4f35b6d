package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and verifies a Redis client connection. The client
// name shows up in CLIENT LIST, which matters when the event channels and
// quota counters share an instance with other services.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("matching-service redis url: %w", err)
	}
	opts.ClientName = "matching-service"

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("matching-service redis ping: %w", err)
	}

	return rdb, nil
}
