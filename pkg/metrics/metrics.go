package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomly_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomly_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomly_booking_transitions_total",
		Help: "Booking status transitions by target status and result",
	}, []string{"to", "result"})

	transactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomly_lifecycle_transaction_duration_seconds",
		Help:    "Duration of lifecycle transactions including driver retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"flow", "result"})

	roomReconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomly_room_reconciliations_total",
		Help: "Occupancy reconciliations by outcome (available, full, drift_repaired, error)",
	}, []string{"outcome"})

	tenantsMaterialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomly_tenants_materialized_total",
		Help: "Tenant records created from checked-in bookings",
	}, []string{"result"})

	notificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomly_notifications_dispatched_total",
		Help: "Post-commit notification dispatches by event type and result",
	}, []string{"event_type", "result"})

	kafkaMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomly_kafka_messages_total",
		Help: "Booking event messages by topic, direction, event type and result",
	}, []string{"topic", "direction", "event_type", "result"})

	kafkaMessageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomly_kafka_message_duration_seconds",
		Help:    "Booking event publish and handle duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic", "direction"})
)

func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func ObserveTransition(to, result string) {
	bookingTransitions.WithLabelValues(to, result).Inc()
}

func ObserveTransaction(flow, result string, duration time.Duration) {
	transactionDuration.WithLabelValues(flow, result).Observe(duration.Seconds())
}

func ObserveReconciliation(outcome string) {
	roomReconciliations.WithLabelValues(outcome).Inc()
}

// ReconciliationCount reads the current value of the reconciliation counter
// for one outcome.
func ReconciliationCount(outcome string) float64 {
	var m dto.Metric
	if err := roomReconciliations.WithLabelValues(outcome).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func ObserveTenantMaterialized(result string) {
	tenantsMaterialized.WithLabelValues(result).Inc()
}

func ObserveNotification(eventType, result string) {
	notificationsDispatched.WithLabelValues(eventType, result).Inc()
}

func ObserveKafkaMessage(topic, direction, eventType, result string, duration time.Duration) {
	kafkaMessages.WithLabelValues(topic, direction, eventType, result).Inc()
	kafkaMessageDuration.WithLabelValues(topic, direction).Observe(duration.Seconds())
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
