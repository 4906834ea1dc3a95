package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics carries the engine's Prometheus counters. Constructed once at
// bootstrap against the process registry; tests pass a fresh registry.
type Metrics struct {
	RulesProcessed *prometheus.CounterVec
	RulesSkipped   *prometheus.CounterVec
	RuleErrors     *prometheus.CounterVec
	Transfers      *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RulesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savings_rules_processed_total",
			Help: "Rules that produced at least one executed transfer, by category.",
		}, []string{"category"}),
		RulesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savings_rules_skipped_total",
			Help: "Rules skipped for a cycle, by category and reason.",
		}, []string{"category", "reason"}),
		RuleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savings_rule_errors_total",
			Help: "Rules whose processing failed with an unexpected error, by category.",
		}, []string{"category"}),
		Transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savings_transfers_total",
			Help: "Executed transfers, by final transaction status.",
		}, []string{"status"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savings_goal_notifications_total",
			Help: "Goal progress notifications published, by kind.",
		}, []string{"kind"}),
	}
}
