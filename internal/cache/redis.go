package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to redis for product view counters. addr may be empty,
// in which case callers run without activity tracking.
func NewRedis(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
