// Package telemetry records search pipeline metrics on a private Prometheus
// registry. Nothing is exported unless the embedding program serves Handler.
package telemetry

import (
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hybridsearch"

// Outcome labels for stage and request metrics.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeDegraded = "degraded"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and
// records nothing, so collaborators can take one unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	retrieverCalls  *prometheus.CounterVec
	retrieverDur    *prometheus.HistogramVec
	retrieverHits   *prometheus.HistogramVec
	rerankCalls     *prometheus.CounterVec
	credDropped     prometheus.Counter
	resultCount     prometheus.Histogram
}

// New creates metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Search requests by search type and outcome.",
		}, []string{"search_type", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end search latency, including cache hits.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"search_type"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by result (hit, miss, bypass, error).",
		}, []string{"result"}),
		retrieverCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retriever",
			Name:      "calls_total",
			Help:      "Retriever calls by retriever and outcome.",
		}, []string{"retriever", "outcome"}),
		retrieverDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retriever",
			Name:      "duration_seconds",
			Help:      "Retriever call latency.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"retriever"}),
		retrieverHits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retriever",
			Name:      "candidates",
			Help:      "Candidates returned per successful retriever call.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"retriever"}),
		rerankCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rerank",
			Name:      "calls_total",
			Help:      "Rerank stage runs by outcome (ok, error, skipped).",
		}, []string{"outcome"}),
		credDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credibility",
			Name:      "dropped_total",
			Help:      "Web candidates dropped below the credibility threshold.",
		}),
		resultCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results",
			Help:      "Results returned per computed response.",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		}),
	}

	registry.MustRegister(
		m.requests, m.requestDuration, m.cacheLookups,
		m.retrieverCalls, m.retrieverDur, m.retrieverHits,
		m.rerankCalls, m.credDropped, m.resultCount,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a finished Search call.
func (m *Metrics) ObserveRequest(searchType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(searchType, outcome).Inc()
	m.requestDuration.WithLabelValues(searchType).Observe(d.Seconds())
}

// ObserveCache records a cache lookup result.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveRetriever records one retriever call.
func (m *Metrics) ObserveRetriever(name, outcome string, d time.Duration, candidates int) {
	if m == nil {
		return
	}
	m.retrieverCalls.WithLabelValues(name, outcome).Inc()
	m.retrieverDur.WithLabelValues(name).Observe(d.Seconds())
	if outcome == OutcomeOK {
		m.retrieverHits.WithLabelValues(name).Observe(float64(candidates))
	}
}

// ObserveRerank records a rerank stage outcome.
func (m *Metrics) ObserveRerank(outcome string) {
	if m == nil {
		return
	}
	m.rerankCalls.WithLabelValues(outcome).Inc()
}

// AddCredibilityDropped counts web candidates removed by the filter.
func (m *Metrics) AddCredibilityDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.credDropped.Add(float64(n))
}

// ObserveResults records the size of a computed result list.
func (m *Metrics) ObserveResults(n int) {
	if m == nil {
		return
	}
	m.resultCount.Observe(float64(n))
}

// CounterValue is one labelled counter sample.
type CounterValue struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Counters returns every non-zero counter sample, sorted by name. The CLI
// prints these after a search when --stats is set.
func (m *Metrics) Counters() ([]CounterValue, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []CounterValue
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			c := metric.GetCounter()
			if c == nil || c.GetValue() == 0 {
				continue
			}
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			out = append(out, CounterValue{Name: mf.GetName(), Labels: labels, Value: c.GetValue()})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
