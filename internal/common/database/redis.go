package database

import (
	"context"
	"fmt"

	"procedure-assistant/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// Redis holds conversation session history.
type Redis struct {
	*redis.Client
	addr string
}

func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	timeout := config.GetDuration(cfg.Timeout)
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.PoolSize / 4,
	})

	r := &Redis{Client: client, addr: cfg.Address}
	if err := r.Check(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return r, nil
}

// Check is the readiness probe for session storage.
func (r *Redis) Check(ctx context.Context) error {
	if err := r.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s unreachable: %w", r.addr, err)
	}
	return nil
}
