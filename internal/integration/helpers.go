//go:build integration

package integration

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	testDB       *sql.DB
	testCacheRDB *redis.Client
	testQueueRDB *redis.Client
)

// resetTestData truncates every table and flushes both Redis instances.
func resetTestData(t *testing.T) {
	t.Helper()

	_, err := testDB.ExecContext(context.Background(),
		"TRUNCATE TABLE exchange_rates, exchange_rates_history, options RESTART IDENTITY")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	for _, rdb := range []*redis.Client{testCacheRDB, testQueueRDB} {
		if err := rdb.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("failed to flush redis: %v", err)
		}
	}
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// fxratesServer serves body on /latest with the given status and counts
// requests.
func fxratesServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// eventually polls cond until it holds or the timeout expires.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
