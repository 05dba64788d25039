package database

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/config"
)

// NewRedisClient connects to the selection-cache Redis and pings it.
// It returns a nil client when no host is configured.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts := redisOptions(cfg)
	if opts == nil {
		return nil, nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: failed to connect to Redis at %s: %w", apperrors.ErrUnavailable, opts.Addr, err)
	}
	return client, nil
}

func redisOptions(cfg *config.RedisConfig) *redis.Options {
	if cfg.Host == "" {
		return nil
	}
	return &redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
		ClientName:  ApplicationName,
	}
}
