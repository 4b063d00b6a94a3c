package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"budget/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if len(s.pages) == 0 {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.store.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			log.NewFields().WithComponent(log.ComponentStorage).WithError(err).ToSlice()...)
		checks["store"] = "failed"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"budget_entries": s.views.Size(),
		"status":         "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.tracer.Metrics()
	metric(w, "http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric(w, "http_last_response_microseconds", "gauge", "Duration of the most recent request", tm.LastResponseTime)
	metric(w, "suspicious_requests_total", "counter", "Requests rejected as scans", s.detector.SuspiciousCount())
	metric(w, "rate_limit_hits_total", "counter", "Requests refused by the rate limiter", s.limiter.Rejected())
	metric(w, "rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", int64(s.limiter.ActiveClients()))
	metric(w, "budget_cache_entries", "gauge", "Cached budget views", int64(s.views.Size()))
	metric(w, "uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.started).Seconds()))
}

// metric writes one sample in Prometheus text format.
func metric(w http.ResponseWriter, name, kind, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, v)
}
