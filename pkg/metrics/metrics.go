// Package metrics exposes the Prometheus counters/gauges the pipeline
// components update as they run, and the promhttp handler cmd/wlf
// mounts under /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsRouted counts every SendEvent call the router completes,
	// labeled by destination component id.
	EventsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlf_events_routed_total",
			Help: "Total number of events delivered to a component inbox",
		},
		[]string{"destination"},
	)

	// DispatchSuccessTotal and DispatchFailureTotal count dispatcher
	// sink writes, labeled by dispatcher id.
	DispatchSuccessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlf_dispatch_success_total",
			Help: "Total number of events successfully written to a sink",
		},
		[]string{"dispatcher"},
	)

	DispatchFailureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlf_dispatch_failure_total",
			Help: "Total number of sink writes that failed",
		},
		[]string{"dispatcher"},
	)

	// TemplateSubstitutionFailureTotal counts dropped events caused by
	// a failed %{...} template capture (topic/key/channel/index).
	TemplateSubstitutionFailureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlf_template_substitution_failure_total",
			Help: "Total number of events skipped due to a template substitution failure",
		},
		[]string{"dispatcher"},
	)

	// BinlogEventsUnsupportedTotal counts binlog events the collector
	// logged and skipped because they fall outside the translation
	// allowlist.
	BinlogEventsUnsupportedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlf_binlog_events_unsupported_total",
			Help: "Total number of binlog events skipped as unsupported",
		},
		[]string{"collector", "event_type"},
	)

	// ComponentUp reports whether a component's Run goroutine is still
	// executing (1) or has returned (0); set by RegisterComponent and
	// UpdateComponent alongside the health checker entries behind /ready.
	ComponentUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wlf_component_up",
			Help: "Whether a component's run loop is currently active",
		},
		[]string{"id"},
	)
)

func init() {
	prometheus.MustRegister(EventsRouted)
	prometheus.MustRegister(DispatchSuccessTotal)
	prometheus.MustRegister(DispatchFailureTotal)
	prometheus.MustRegister(TemplateSubstitutionFailureTotal)
	prometheus.MustRegister(BinlogEventsUnsupportedTotal)
	prometheus.MustRegister(ComponentUp)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations against a histogram; kept for
// parity with the ambient metrics helpers, even though no pipeline
// component currently records a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since NewTimer into histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time since NewTimer into a
// labeled histogram vec.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
