package metrics

import "github.com/prometheus/client_golang/prometheus"

// CascadeMetrics exposes counters/histograms for the classification cascade.
type CascadeMetrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewCascadeMetrics(reg prometheus.Registerer) *CascadeMetrics {
	m := &CascadeMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clasificador",
			Subsystem: "cascade",
			Name:      "attempts_total",
			Help:      "Strategy attempts by strategy and status",
		}, []string{"strategy", "status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clasificador",
			Subsystem: "cascade",
			Name:      "outcomes_total",
			Help:      "Narratives classified by the strategy that produced the result",
		}, []string{"strategy"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clasificador",
			Subsystem: "cascade",
			Name:      "latency_seconds",
			Help:      "End-to-end cascade latency by winning strategy",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attempts, m.outcomes, m.latency)
	return m
}

func (m *CascadeMetrics) ObserveAttempt(strategy, status string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(strategy, status).Inc()
}

func (m *CascadeMetrics) ObserveOutcome(strategy string, seconds float64) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(strategy).Inc()
	m.latency.WithLabelValues(strategy).Observe(seconds)
}

// MemoSource reports memo lookups and the number of remembered entries.
type MemoSource interface {
	MemoStats() (hits, misses int64, entries int)
}

// RegisterMemo exposes the memo counters of src, read at scrape time.
func RegisterMemo(reg prometheus.Registerer, src MemoSource) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "clasificador",
			Subsystem: "memo",
			Name:      "hits_total",
			Help:      "Classifications answered from memory or by joining an in-flight run",
		}, func() float64 {
			hits, _, _ := src.MemoStats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "clasificador",
			Subsystem: "memo",
			Name:      "misses_total",
			Help:      "Classifications that ran the cascade",
		}, func() float64 {
			_, misses, _ := src.MemoStats()
			return float64(misses)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "clasificador",
			Subsystem: "memo",
			Name:      "entries",
			Help:      "Narratives currently remembered",
		}, func() float64 {
			_, _, entries := src.MemoStats()
			return float64(entries)
		}),
	)
}
