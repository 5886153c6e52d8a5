// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharmacy_report_duration_seconds",
		Help:    "Time spent generating a report, by kind",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"kind"})

	ReportFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_report_failures_total",
		Help: "Reports that could not be produced at all, by kind",
	}, []string{"kind"})

	// EstimatedFigures counts figures that fell back to a fixed ratio
	// because no cost data was available.
	EstimatedFigures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_estimated_figures_total",
		Help: "Sale-level figures computed with a fallback ratio, by reason",
	}, []string{"reason"})

	HistoryDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pharmacy_history_depth",
		Help: "Entries on the undo (past) and redo (future) stacks",
	}, []string{"stack"})

	SalesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_sales_completed_total",
		Help: "Completed sales by payment method",
	}, []string{"payment_method"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharmacy_rpc_duration_seconds",
		Help:    "Duration of gRPC calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
