package metrics

import "github.com/prometheus/client_golang/prometheus"

// Disambiguation workflow Prometheus metrics.
var (
	SessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "itemradar",
			Name:      "sessions_started_total",
			Help:      "Total number of search sessions started",
		},
	)

	SessionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itemradar",
			Name:      "session_outcomes_total",
			Help:      "Completed sessions by final phase",
		},
		[]string{"phase"},
	)

	FilterRoundsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "itemradar",
			Name:      "filter_rounds_total",
			Help:      "Total number of applied disambiguation filter rounds",
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus workflow metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SessionsStartedTotal)
	prometheus.MustRegister(SessionOutcomesTotal)
	prometheus.MustRegister(FilterRoundsTotal)
	engineMetricsRegistered = true
}
