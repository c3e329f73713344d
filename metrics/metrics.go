package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EnrollmentRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_requests_total",
			Help: "Enrollment requests by outcome (checkout_created, already_enrolled or an error kind)",
		},
		[]string{"outcome"},
	)

	PaymentProcessorCallTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_processor_call_seconds",
			Help:    "Latency of payment processor calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment webhook deliveries by event type and handling result",
		},
		[]string{"type", "result"},
	)

	EnrollmentActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_activations_total",
			Help: "Pending enrollments moved to active, by source (webhook, reconcile)",
		},
		[]string{"source"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(EnrollmentRequests, PaymentProcessorCallTime, WebhookEvents, EnrollmentActivations)
	})
}
