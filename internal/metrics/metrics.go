package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labourconnect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labourconnect_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TokenCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labourconnect_token_credits_total",
			Help: "Total number of wallet credits",
		},
		[]string{"type"},
	)

	TokenDebitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labourconnect_token_debits_total",
			Help: "Total number of wallet debits",
		},
		[]string{"type"},
	)

	InsufficientFundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "labourconnect_insufficient_funds_total",
			Help: "Total number of debits rejected for insufficient funds",
		},
	)

	JobTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labourconnect_job_transitions_total",
			Help: "Total number of job status transitions",
		},
		[]string{"to_status"},
	)

	PaymentsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labourconnect_payments_settled_total",
			Help: "Total number of payments reaching a terminal status",
		},
		[]string{"status"},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "labourconnect_websocket_connections",
			Help: "Current number of live websocket connections",
		},
	)

	WebsocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labourconnect_websocket_messages_total",
			Help: "Total number of messages pushed to websocket clients",
		},
		[]string{"channel"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCredit(txType string) {
	TokenCreditsTotal.WithLabelValues(txType).Inc()
}

func RecordDebit(txType string) {
	TokenDebitsTotal.WithLabelValues(txType).Inc()
}

func RecordInsufficientFunds() {
	InsufficientFundsTotal.Inc()
}

func RecordJobTransition(toStatus string) {
	JobTransitionsTotal.WithLabelValues(toStatus).Inc()
}

func RecordPaymentSettled(status string) {
	PaymentsSettledTotal.WithLabelValues(status).Inc()
}

func RecordBroadcast(channel string) {
	WebsocketMessagesTotal.WithLabelValues(channel).Inc()
}
