// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InterventionsTotal counts committed interventions by kind.
	InterventionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boigordo",
		Name:      "interventions_total",
		Help:      "Committed interventions by kind.",
	}, []string{"kind"})

	MortalityDeathsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "boigordo",
		Name:      "mortality_deaths_total",
		Help:      "Animals recorded dead.",
	})

	MortalityLossTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "boigordo",
		Name:      "mortality_loss_total",
		Help:      "Accumulated mortality loss in currency units.",
	})

	// FinancialIntegrationFailures counts mortality events committed without
	// their monthly-analysis update.
	FinancialIntegrationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "boigordo",
		Name:      "financial_integration_failures_total",
		Help:      "Mortality events whose monthly analysis update was rolled back.",
	})

	StatisticsDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "boigordo",
		Name:      "statistics_degraded_total",
		Help:      "Statistics requests answered in degraded mode.",
	})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boigordo",
		Name:      "jobs_processed_total",
		Help:      "Async jobs by type and outcome.",
	}, []string{"type", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "boigordo",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
