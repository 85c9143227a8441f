package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/academic-marks-api/pkg/config"
)

const pingTimeout = 5 * time.Second

// Options translates configuration into go-redis client options.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedis returns a connected client; the connection is verified with PING.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))

	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", client.Options().Addr, err)
	}

	return client, nil
}

// Ping checks connectivity with a bounded timeout. Used by readiness probes.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
