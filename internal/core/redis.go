// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/wifi-portal/internal/config"
)

const redisRetryBackoff = time.Second

type Redis struct {
	Client *redis.Client
}

// NewRedis connects the client shared by the change hub, rate limiter,
// reset tickets and the access token blacklist.
func NewRedis(
	ctx context.Context,
	cfg config.RedisConfig,
	logger *slog.Logger,
) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	r := &Redis{Client: redis.NewClient(opts)}

	err = awaitReady(ctx, "redis", cfg.ConnectRetries, redisRetryBackoff, logger, r.Ping)
	if err != nil {
		_ = r.Client.Close() //nolint:errcheck // cleanup on connection failure
		return nil, err
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", Classify(err))
	}

	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
