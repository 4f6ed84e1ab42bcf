package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the engine's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	analyses          *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	refinements       *prometheus.CounterVec
	refinementLatency prometheus.Histogram
	proposals         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposal",
			Subsystem: "engine",
			Name:      "analyses_total",
			Help:      "Conversation analyses by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposal",
			Subsystem: "engine",
			Name:      "cache_lookups_total",
			Help:      "Analysis cache lookups by result",
		}, []string{"result"}),
		refinements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposal",
			Subsystem: "refinement",
			Name:      "calls_total",
			Help:      "Refinement overlay attempts by status",
		}, []string{"status"}),
		refinementLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "proposal",
			Subsystem: "refinement",
			Name:      "latency_seconds",
			Help:      "Latency of refinement provider calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposal",
			Subsystem: "quotes",
			Name:      "generated_total",
			Help:      "Proposals generated by outcome",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.analyses, m.cacheLookups, m.refinements, m.refinementLatency, m.proposals)
	}
	return m
}

// ObserveAnalysis counts an analysis outcome (matched, no_match, empty_catalog)
func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

// ObserveCacheLookup counts a cache hit or miss
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveRefinement records a refinement attempt and its duration
func (m *Metrics) ObserveRefinement(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.refinements.WithLabelValues(status).Inc()
	if elapsed > 0 {
		m.refinementLatency.Observe(elapsed.Seconds())
	}
}

// ObserveProposal counts a proposal generation outcome
func (m *Metrics) ObserveProposal(outcome string) {
	if m == nil {
		return
	}
	m.proposals.WithLabelValues(outcome).Inc()
}
