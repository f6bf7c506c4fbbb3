// Package metrics provides the centralized Prometheus metrics registry for
// the ingestion and settlement pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Feed metrics
var (
	FeedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "feed_requests_total",
		Help:      "Total feed requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	RateBudgetWaitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "rate_budget_waits_total",
		Help:      "Total times a worker blocked on the shared rate budget",
	})
)

// Ingestion metrics
var (
	IngestionRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "ingestion_runs_total",
		Help:      "Total ingestion runs started",
	})
	IngestionRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pitchside",
		Name:      "ingestion_run_duration_seconds",
		Help:      "Duration of full ingestion runs in seconds",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	OddsFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "odds_fetches_total",
		Help:      "Total per-fixture odds fetches by result",
	}, []string{"result"})
	MarketsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "markets_created_total",
		Help:      "Total markets created by the merger",
	})
	OutcomesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "outcomes_created_total",
		Help:      "Total outcomes created by the merger",
	})
	OutcomesDeactivatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "outcomes_deactivated_total",
		Help:      "Total outcomes soft-deactivated by the merger",
	})
	StaleFixturesRequeuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "stale_fixtures_requeued_total",
		Help:      "Total fixtures re-queued by the staleness sweep",
	})
)

// Settlement metrics
var (
	MatchesFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "matches_finished_total",
		Help:      "Total matches moved to FINISHED by trigger source",
	}, []string{"trigger"})
	WagersSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "wagers_settled_total",
		Help:      "Total wagers settled by final status",
	}, []string{"status"})
	TicketsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "tickets_settled_total",
		Help:      "Total tickets settled by final status",
	}, []string{"status"})
	WalletCreditsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "wallet_credits_total",
		Help:      "Total wallet credits applied by settlement",
	})
	SweepRecoveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "sweep_recoveries_total",
		Help:      "Total entities re-driven by the reconciliation sweep",
	}, []string{"kind"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(FeedRequestsTotal)
		registry.MustRegister(RateBudgetWaitsTotal)

		registry.MustRegister(IngestionRunsTotal)
		registry.MustRegister(IngestionRunDuration)
		registry.MustRegister(OddsFetchesTotal)
		registry.MustRegister(MarketsCreatedTotal)
		registry.MustRegister(OutcomesCreatedTotal)
		registry.MustRegister(OutcomesDeactivatedTotal)
		registry.MustRegister(StaleFixturesRequeuedTotal)

		registry.MustRegister(MatchesFinishedTotal)
		registry.MustRegister(WagersSettledTotal)
		registry.MustRegister(TicketsSettledTotal)
		registry.MustRegister(WalletCreditsTotal)
		registry.MustRegister(SweepRecoveriesTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
