package api

import (
	"context"
	"net/http"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Status string `json:"status" example:"ready"`
}

// Dependency is a named readiness check.
type Dependency struct {
	Name string
	Ping Pinger
}

// HandleHealthz godoc
// @Summary Health check (liveness)
// @Description Always returns 200 OK if the process is running.
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /healthz [get]
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	}
}

// HandleReadyz godoc
// @Summary Readiness check
// @Description Checks Postgres, the cache Redis and the task queue Redis in order. Returns 200 only when all of them are reachable.
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse "All dependencies ready"
// @Failure 503 {object} ErrorResponse "At least one dependency unavailable"
// @Router /readyz [get]
func HandleReadyz(deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, d := range deps {
			if d.Ping == nil {
				continue
			}
			if err := d.Ping.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: d.Name + " not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
	}
}
