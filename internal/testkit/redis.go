package testkit

import (
	"context"
	"fmt"
	"net/url"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisModule is a Redis instance addressed as host:port.
type RedisModule struct {
	container testcontainers.Container
	addr      string
}

// Addr returns the host:port string for the Redis instance.
func (r *RedisModule) Addr() string { return r.addr }

// Terminate stops the container.
func (r *RedisModule) Terminate(ctx context.Context) error {
	if r == nil || r.container == nil {
		return nil
	}
	return r.container.Terminate(ctx)
}

// StartRedis starts a Redis container, or returns externalAddr unchanged
// when it is set.
func StartRedis(ctx context.Context, cfg *Config, externalAddr string) (*RedisModule, error) {
	if externalAddr != "" {
		return &RedisModule{addr: externalAddr}, nil
	}

	ctr, err := tcredis.Run(ctx, cfg.RedisImage)
	if err != nil {
		return nil, fmt.Errorf("start redis container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("get redis connection string: %w", err)
	}

	// go-redis and asynq take host:port, not redis:// URLs.
	u, err := url.Parse(connStr)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("parse redis connection string %q: %w", connStr, err)
	}

	return &RedisModule{container: ctr, addr: u.Host}, nil
}
