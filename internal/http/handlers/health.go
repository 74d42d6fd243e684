package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/express-accounts/internal/http/respond"
	"github.com/hongminglow/express-accounts/internal/storage"
)

const pingTimeout = 2 * time.Second

// HealthHandler returns uptime and database status.
type HealthHandler struct {
	startedAt time.Time
	db        storage.Pinger
}

// NewHealthHandler creates a health endpoint handler. db may be nil.
func NewHealthHandler(startedAt time.Time, db storage.Pinger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, db: db}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	status, database, code := "ok", "unconfigured", http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status, database, code = "degraded", "unreachable", http.StatusServiceUnavailable
		} else {
			database = "ok"
		}
	}
	respond.JSON(w, code, status, map[string]string{
		"status":   status,
		"uptime":   time.Since(h.startedAt).Truncate(time.Second).String(),
		"database": database,
	})
}
