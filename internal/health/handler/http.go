// Package handler exposes the health probe.
package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"silowatch/internal/server/respond"
)

// Checker verifies one dependency. Returns nil when healthy.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// HTTP reports process health: database reachability plus any registered
// dependency checks (policy engine, broker session).
type HTTP struct {
	db     *sql.DB
	checks map[string]Checker
}

// NewHTTP returns the health handler. db may be nil to skip the database probe.
func NewHTTP(db *sql.DB, checks map[string]Checker) *HTTP {
	return &HTTP{db: db, checks: checks}
}

// ServeHTTP answers liveness probes: 200 with per-check status when everything
// is healthy, 503 otherwise.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status["database"] = err.Error()
			healthy = false
		} else {
			status["database"] = "ok"
		}
	}
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
		} else {
			status[name] = "ok"
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, status)
}
