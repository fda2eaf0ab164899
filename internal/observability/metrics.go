package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the checkout subsystem's Prometheus instruments. A single
// instance is created in main and shared by services and workers.
type Metrics struct {
	CheckoutsTotal      *prometheus.CounterVec
	CheckoutDuration    prometheus.Histogram
	StockConflictsTotal prometheus.Counter
	TransitionsTotal    *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	OutboxPublished     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CheckoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artstr",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		CheckoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "artstr",
			Name:      "checkout_duration_seconds",
			Help:      "End-to-end checkout latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		StockConflictsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "artstr",
			Name:      "stock_conflicts_total",
			Help:      "Reservations rejected for insufficient stock.",
		}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artstr",
			Name:      "order_transitions_total",
			Help:      "Order status transitions by target status and outcome.",
		}, []string{"status", "outcome"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artstr",
			Name:      "notifications_total",
			Help:      "Notification dispatches by channel and outcome.",
		}, []string{"channel", "outcome"}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "artstr",
			Name:      "outbox_events_published_total",
			Help:      "Outbox events successfully published to Kafka.",
		}),
	}
}
