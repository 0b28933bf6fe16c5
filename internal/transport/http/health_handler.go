package http

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/render"

	"edequity/internal/config"
)

// HealthHandler serves the liveness and run-status endpoints of the
// debug listener
type HealthHandler struct {
	paths   *config.Paths
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(paths *config.Paths, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		paths:   paths,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"version": config.AppVersion,
		"uptime":  time.Since(h.started).String(),
	})
}

// LastRun handles GET /api/status. It serves the most recent run
// summary file verbatim; a listener with no completed run yet returns
// 404 rather than an empty object.
func (h *HealthHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	if h.paths == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"status": "no run summary available"})
		return
	}

	data, err := os.ReadFile(h.paths.RunSummaryJSON)
	if errors.Is(err, os.ErrNotExist) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"status": "no run summary available"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read run summary",
			slog.String("path", h.paths.RunSummaryJSON),
			slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "run summary unreadable"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
