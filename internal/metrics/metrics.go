package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for the vetting service.
type Registry struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	CycleDuration *prometheus.HistogramVec
	CycleFailures *prometheus.CounterVec

	TokensMerged prometheus.Counter
	TokensVetted prometheus.Counter
	AlertsFired  *prometheus.CounterVec
}

// NewRegistry creates the metric set. Metrics are not registered yet;
// call Register with the registry the HTTP listener exposes.
func NewRegistry() *Registry {
	return &Registry{
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenvet_provider_requests_total",
				Help: "Provider API requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenvet_provider_request_seconds",
				Help:    "Provider API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"provider"},
		),
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenvet_cycle_duration_seconds",
				Help:    "Duration of one pipeline cycle",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"pipeline"},
		),
		CycleFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenvet_cycle_failures_total",
				Help: "Cycles that ended with a top-level failure",
			},
			[]string{"pipeline"},
		),
		TokensMerged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokenvet_tokens_merged_total",
				Help: "Token records produced by feed merges",
			},
		),
		TokensVetted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokenvet_tokens_vetted_total",
				Help: "Tokens scored by the vetting orchestrator",
			},
		),
		AlertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenvet_alerts_fired_total",
				Help: "Monitoring alerts by trigger type and severity",
			},
			[]string{"trigger", "severity"},
		),
	}
}

// Register adds all metrics to reg.
func (r *Registry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.ProviderRequests, r.ProviderLatency,
		r.CycleDuration, r.CycleFailures,
		r.TokensMerged, r.TokensVetted, r.AlertsFired,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
