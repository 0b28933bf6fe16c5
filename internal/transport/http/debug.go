package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"edequity/internal/config"
)

// DebugServer is the optional operational listener. It exposes
// liveness, Prometheus metrics, and the latest run summary while a
// pipeline run is in flight. It serves nothing else; the pipeline has
// no web surface.
type DebugServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewDebugServer builds the listener on the given address. The
// metrics handler is mounted at /metrics when non-nil.
func NewDebugServer(addr string, metrics http.Handler, paths *config.Paths, logger *slog.Logger) *DebugServer {
	if logger == nil {
		logger = slog.Default()
	}

	health := NewHealthHandler(paths, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", health.Health)
	r.Get("/api/status", health.LastRun)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return &DebugServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the router
func (s *DebugServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background. Listen failures are logged, not
// returned; the pipeline must not die because a diagnostics port is
// taken.
func (s *DebugServer) Start() {
	go func() {
		s.logger.Info("debug listener started", slog.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("debug listener failed", slog.String("error", err.Error()))
		}
	}()
}

// Shutdown stops the listener gracefully
func (s *DebugServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestLogger logs one line per completed request
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
