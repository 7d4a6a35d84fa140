// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRequestsTotal        = "litscout_scoring_requests_total"
	MetricScoringDuration      = "litscout_scoring_duration_seconds"
	MetricCandidatePapers      = "litscout_candidate_papers"
	MetricPartialResultsTotal  = "litscout_partial_results_total"
	MetricDuplicatePapersTotal = "litscout_duplicate_papers_total"
)

const (
	StatusSuccess = "success"
	StatusInvalid = "invalid"
	StatusFailure = "failure"
)

// Metrics holds Prometheus collectors for scoring requests. A nil *Metrics
// records nothing.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	candidates prometheus.Histogram
	partial    prometheus.Counter
	duplicates prometheus.Counter
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "Scoring requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricScoringDuration,
				Help:    "Time spent scoring and aggregating one request",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCandidatePapers,
			Help:    "Candidate papers scored per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		partial: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPartialResultsTotal,
			Help: "Requests answered from a partial candidate set",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricDuplicatePapersTotal,
			Help: "Duplicate candidate papers dropped before scoring",
		}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.candidates, m.partial, m.duplicates}
}

func (m *Metrics) observe(op, status string, started time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, status).Inc()
	if status == StatusSuccess {
		m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) observeCandidates(n, dups int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
	if dups > 0 {
		m.duplicates.Add(float64(dups))
	}
}

func (m *Metrics) incPartial() {
	if m == nil {
		return
	}
	m.partial.Inc()
}
