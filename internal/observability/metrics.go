// Package observability defines the prometheus instruments for evaluation
// runs. This repository registers counters only; scraping and exposition
// belong to the serving layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RunsTotal counts evaluation runs by method and outcome
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enerquant",
		Name:      "backtest_runs_total",
		Help:      "Total number of evaluation runs by method and status",
	}, []string{"method", "status"})

	// FoldsTotal counts walk-forward folds by outcome
	FoldsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enerquant",
		Name:      "walkforward_folds_total",
		Help:      "Total number of walk-forward folds by status",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(RunsTotal, FoldsTotal)
}

// RecordRun records one evaluation run. method is one of "backtest",
// "walk_forward", "comparison"; status is "success" or "failure".
func RecordRun(method, status string) {
	RunsTotal.WithLabelValues(method, status).Inc()
}

// RecordFold records the outcome of a single walk-forward fold
func RecordFold(status string) {
	FoldsTotal.WithLabelValues(status).Inc()
}
