package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics holds all Prometheus metrics for the inventory service.
type LedgerMetrics struct {
	MovementsTotal  *prometheus.CounterVec
	AuthDenials     prometheus.Counter
	AlertsPublished prometheus.Counter
	QueueDepth      prometheus.Gauge
	DrainOutcomes   *prometheus.CounterVec
}

// NewLedgerMetrics initializes and registers the Prometheus metrics.
func NewLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{
		MovementsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rk_solutions",
			Subsystem: "ledger",
			Name:      "movements_total",
			Help:      "Total number of stock movement attempts by status.",
		}, []string{"status"}), // status: recorded, rejected
		AuthDenials: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rk_solutions",
			Subsystem: "auth",
			Name:      "denials_total",
			Help:      "Total number of authorization denials.",
		}),
		AlertsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rk_solutions",
			Subsystem: "alerts",
			Name:      "published_total",
			Help:      "Total number of stock alerts published.",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "rk_solutions",
			Subsystem: "sync",
			Name:      "queue_depth",
			Help:      "Number of operations currently buffered in the offline queue.",
		}),
		DrainOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rk_solutions",
			Subsystem: "sync",
			Name:      "drain_outcomes_total",
			Help:      "Per-item outcomes of offline queue drains.",
		}, []string{"outcome"}), // outcome: synced, failed, superseded
	}
}
