package handler

import (
	"context"
	"net/http"
)

// Pinger checks storage availability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates new HealthHandler instance
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz pings the database
// 200 — healthy
// 503 — database unreachable
func (hh *HealthHandler) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := hh.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, envelope{Status: "error", Message: "database unavailable"})
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"health": "ok"})
	}
}
