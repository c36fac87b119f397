package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexify_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apexify_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexify_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	couponRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexify_coupon_redemptions_total",
			Help: "Coupon redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexify_notifications_total",
			Help: "Notification intents by event and outcome",
		},
		[]string{"event", "outcome"},
	)
)

// RecordOrderOperation counts one order operation.
func RecordOrderOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	orderOperations.WithLabelValues(operation, status).Inc()
}

// RecordCouponRedemption counts one redemption attempt, e.g. "applied" or "limit_reached".
func RecordCouponRedemption(outcome string) {
	couponRedemptions.WithLabelValues(outcome).Inc()
}

// RecordNotification counts one notification intent.
func RecordNotification(event, outcome string) {
	notifications.WithLabelValues(event, outcome).Inc()
}
