package api

import (
	"net/http"
	"time"

	"github.com/wlf-engine/wlf/pkg/metrics"
)

// HealthServer exposes the HTTP health, readiness, and metrics endpoints
// cmd/wlf mounts alongside the running pipeline. Liveness reflects only
// that the process is up; readiness reflects pkg/metrics' registered
// component health (see GetReadiness), which cmd/wlf updates as each
// collector/transformer/dispatcher goroutine starts, fails, or exits.
type HealthServer struct {
	mux *http.ServeMux
}

// NewHealthServer builds a HealthServer with /health, /ready, and
// /metrics registered.
func NewHealthServer() *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{mux: mux}

	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start runs the health/metrics HTTP server until it errors or the
// process is killed. It does not participate in pipeline shutdown: an
// unrecoverable component failure does not take this server down.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// GetHandler returns the HTTP handler for embedding in other servers.
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}
