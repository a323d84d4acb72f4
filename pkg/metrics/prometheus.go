package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects run counters on a private registry. Runs are one-shot
// batch jobs, so instead of serving an endpoint the counters are written out
// at the end of the run in the node_exporter textfile-collector format.
type Recorder struct {
	registry *prometheus.Registry

	fetchAttempts         *prometheus.CounterVec
	fetchFailures         *prometheus.CounterVec
	cacheHits             *prometheus.CounterVec
	fallbacks             *prometheus.CounterVec
	indicatorsUnavailable *prometheus.CounterVec
}

// New creates a metrics recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_fetch_attempts_total",
				Help: "Total adapter fetch attempts",
			},
			[]string{"feed"},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_fetch_failures_total",
				Help: "Total adapter fetch failures (empty or errored)",
			},
			[]string{"feed"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_cache_hits_total",
				Help: "Total bucketed cache hits",
			},
			[]string{"name"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_fallbacks_total",
				Help: "Total fallback-tier decisions by tier (cache, empty)",
			},
			[]string{"logical", "tier"},
		),
		indicatorsUnavailable: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_indicators_unavailable_total",
				Help: "Indicators that ended a run in the unavailable state",
			},
			[]string{"indicator"},
		),
	}

	r.registry.MustRegister(
		r.fetchAttempts,
		r.fetchFailures,
		r.cacheHits,
		r.fallbacks,
		r.indicatorsUnavailable,
	)
	return r
}

// RecordFetchAttempt records one adapter call.
func (r *Recorder) RecordFetchAttempt(feed string) {
	r.fetchAttempts.WithLabelValues(feed).Inc()
}

// RecordFetchFailure records one adapter failure.
func (r *Recorder) RecordFetchFailure(feed string) {
	r.fetchFailures.WithLabelValues(feed).Inc()
}

// RecordCacheHit records a same-bucket cache hit.
func (r *Recorder) RecordCacheHit(name string) {
	r.cacheHits.WithLabelValues(name).Inc()
}

// RecordFallback records a fallback-tier decision for a logical data set.
func (r *Recorder) RecordFallback(logical, tier string) {
	r.fallbacks.WithLabelValues(logical, tier).Inc()
}

// RecordIndicatorUnavailable records an indicator that could not be computed.
func (r *Recorder) RecordIndicatorUnavailable(indicator string) {
	r.indicatorsUnavailable.WithLabelValues(indicator).Inc()
}

// WriteTextfile exports the registry to a textfile-collector file.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
