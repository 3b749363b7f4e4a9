package testkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
)

// Suite manages Postgres and the two Redis instances the service uses: one
// for the rate cache and notices, one for the task queue.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *PostgresModule
	cache *RedisModule
	queue *RedisModule
	ready bool
}

var (
	globalSuite *Suite
	globalOnce  sync.Once
)

// Global returns the singleton Suite instance.
func Global() *Suite {
	globalOnce.Do(func() {
		globalSuite = &Suite{cfg: LoadConfig()}
	})
	return globalSuite
}

// Setup starts all required containers (or uses external overrides).
func (s *Suite) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return fmt.Errorf("suite already set up; call Shutdown first")
	}

	var err error
	if s.pg, err = StartPostgres(ctx, &s.cfg); err != nil {
		return fmt.Errorf("setup postgres: %w", err)
	}
	if s.cache, err = StartRedis(ctx, &s.cfg, s.cfg.CacheRedisAddr); err != nil {
		s.terminate(ctx)
		return fmt.Errorf("setup cache redis: %w", err)
	}
	if s.queue, err = StartRedis(ctx, &s.cfg, s.cfg.QueueRedisAddr); err != nil {
		s.terminate(ctx)
		return fmt.Errorf("setup queue redis: %w", err)
	}

	s.ready = true
	return nil
}

// Shutdown terminates all containers unless RATEHUB_TEST_KEEP_CONTAINERS is set.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return
	}
	s.ready = false

	if s.cfg.KeepContainers {
		fmt.Println("keeping containers:")
		fmt.Println("  Postgres DSN:", s.pg.DSN())
		fmt.Println("  Cache Redis:", s.cache.Addr())
		fmt.Println("  Queue Redis:", s.queue.Addr())
		return
	}
	s.terminate(ctx)
}

func (s *Suite) terminate(ctx context.Context) {
	if s.cfg.KeepContainers {
		return
	}
	var errs []error
	for _, m := range []interface{ Terminate(context.Context) error }{s.queue, s.cache, s.pg} {
		errs = append(errs, m.Terminate(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Println("warning: failed to terminate containers:", err)
	}
}

// Postgres returns the Postgres module.
func (s *Suite) Postgres() *PostgresModule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pg
}

// CacheRedisAddr returns the host:port of the cache Redis.
func (s *Suite) CacheRedisAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return ""
	}
	return s.cache.Addr()
}

// QueueRedisAddr returns the host:port of the task queue Redis.
func (s *Suite) QueueRedisAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		return ""
	}
	return s.queue.Addr()
}

// Run sets up the suite, calls afterSetup callbacks (migrations, client
// setup), executes tests, then shuts down. Intended for use in TestMain.
func (s *Suite) Run(m *testing.M, afterSetup ...func() error) {
	ctx := context.Background()

	if err := s.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}

	for _, fn := range afterSetup {
		if err := fn(); err != nil {
			fmt.Fprintf(os.Stderr, "afterSetup callback failed: %v\n", err)
			s.Shutdown(ctx)
			os.Exit(1)
		}
	}

	code := m.Run()

	s.Shutdown(ctx)
	os.Exit(code)
}

// Run delegates to Global().Run.
func Run(m *testing.M, afterSetup ...func() error) {
	Global().Run(m, afterSetup...)
}
