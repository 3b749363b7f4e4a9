// Package testkit starts the Postgres and Redis instances used by the
// integration tests.
package testkit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven configuration for integration test infrastructure.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string        // If set, skip the Postgres container.
	CacheRedisAddr string        // If set, skip the cache Redis container.
	QueueRedisAddr string        // If set, skip the task queue Redis container.
	StartupTimeout time.Duration // Max time to wait for containers to become ready.
	KeepContainers bool          // If true, do not terminate containers on shutdown.
}

// LoadConfig reads test infrastructure settings from RATEHUB_TEST_* variables.
func LoadConfig() Config {
	return Config{
		PGImage:        envOrDefault("RATEHUB_TEST_PG_IMAGE", "postgres:18.1-alpine"),
		RedisImage:     envOrDefault("RATEHUB_TEST_REDIS_IMAGE", "redis:8.4.0-alpine"),
		PGDSN:          os.Getenv("RATEHUB_TEST_PG_DSN"),
		CacheRedisAddr: os.Getenv("RATEHUB_TEST_REDIS_CACHE_ADDR"),
		QueueRedisAddr: os.Getenv("RATEHUB_TEST_REDIS_ASYNQ_ADDR"),
		StartupTimeout: envDurationOrDefault("RATEHUB_TEST_STARTUP_TIMEOUT", 90*time.Second),
		KeepContainers: envBoolOrDefault("RATEHUB_TEST_KEEP_CONTAINERS", false),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDurationOrDefault accepts a Go duration or a plain number of seconds.
func envDurationOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testkit: invalid value %q for %s, using default %v\n", v, key, def)
		return def
	}
	return time.Duration(secs) * time.Second
}

func envBoolOrDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testkit: invalid value %q for %s, using default %v\n", v, key, def)
		return def
	}
	return b
}
