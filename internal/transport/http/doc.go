// Package http implements the optional operational debug listener.
// It provides a thin diagnostics surface for a pipeline that is
// otherwise a batch process: liveness, Prometheus metrics, and the
// most recent run summary.
//
// The listener is disabled unless a listen address is configured
// (debug.listen in edequity.yaml or EDEQ_DEBUG_LISTEN). It is meant
// for a loopback or private address; it carries no authentication.
//
// Endpoints:
//
//	GET /healthz      liveness, version, uptime
//	GET /metrics      Prometheus metrics (when a handler is wired)
//	GET /api/status   latest run_summary.json, 404 before the first run
//
// Example usage:
//
//	if cfg.Debug.Listen != "" {
//		srv := http.NewDebugServer(cfg.Debug.Listen, providers.PrometheusHTTP, paths, logger)
//		srv.Start()
//		defer srv.Shutdown(ctx)
//	}
package http
