package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rapidbounce/postfactory/config"
)

// Telemetry exposes pipeline counters on the prometheus default registry.
// A nil *Telemetry is valid and records nothing, which keeps tests quiet.
type Telemetry struct {
	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	toolFailures  *prometheus.CounterVec
}

func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	if !cfg.Enabled {
		return nil
	}
	t := &Telemetry{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postfactory",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "postfactory",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
		toolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postfactory",
			Name:      "tool_failures_total",
			Help:      "Non-fatal external tool failures by tool.",
		}, []string{"tool"}),
	}
	prometheus.MustRegister(t.runsTotal, t.stageDuration, t.toolFailures)
	return t
}

func (t *Telemetry) RecordRun(status string) {
	if t == nil {
		return
	}
	t.runsTotal.WithLabelValues(status).Inc()
}

func (t *Telemetry) ObserveStage(stage string, d time.Duration) {
	if t == nil {
		return
	}
	t.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (t *Telemetry) RecordToolFailure(tool string) {
	if t == nil {
		return
	}
	t.toolFailures.WithLabelValues(tool).Inc()
}
