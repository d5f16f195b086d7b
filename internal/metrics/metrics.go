package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the lead-intake pipeline.
type IntakeMetrics struct {
	outcomes      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	dispatched    *prometheus.CounterVec
	limitDecision *prometheus.CounterVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Lead-intake requests by terminal state",
		}, []string{"state"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadintake",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Time spent in the lead-intake pipeline",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "dispatch",
			Name:      "leads_total",
			Help:      "Accepted leads handed to downstream sinks",
		}, []string{"status"}),
		limitDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limiter decisions",
		}, []string{"allowed"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outcomes, m.latency, m.dispatched, m.limitDecision)
	return m
}

func (m *IntakeMetrics) ObserveOutcome(state string, seconds float64) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(state).Inc()
	m.latency.WithLabelValues(state).Observe(seconds)
}

func (m *IntakeMetrics) ObserveDispatch(status string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(status).Inc()
}

func (m *IntakeMetrics) ObserveLimit(allowed bool) {
	if m == nil {
		return
	}
	label := "false"
	if allowed {
		label = "true"
	}
	m.limitDecision.WithLabelValues(label).Inc()
}
