package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goosy_vault_ledger_transitions_total",
			Help: "Total number of ledger transitions by outcome",
		},
		[]string{"transition", "status"},
	)

	LedgerTransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goosy_vault_ledger_transition_duration_seconds",
			Help:    "Duration of ledger transitions",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"transition"},
	)

	DistributionVaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goosy_vault_distribution_vaults_total",
			Help: "Total number of vaults processed by interest distribution runs by outcome",
		},
		[]string{"outcome"},
	)

	DistributionInterestTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goosy_vault_distribution_interest_base_units_total",
			Help: "Total interest paid out by distribution runs, in token base units",
		},
	)

	DistributionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "goosy_vault_distribution_run_duration_seconds",
			Help:    "Duration of interest distribution runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5.5 minutes
		},
	)
)
