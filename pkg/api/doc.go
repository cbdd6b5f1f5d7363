// Package api exposes the pipeline's HTTP health, readiness, and metrics
// endpoints. cmd/wlf mounts a HealthServer alongside the running
// collectors, transformers, and dispatchers so an operator or
// orchestrator can probe liveness without touching the binlog stream.
package api
