package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	webhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total number of webhook invocations by outcome",
		},
		[]string{"notifier", "outcome"},
	)

	webhookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_request_duration_seconds",
			Help:    "Webhook invocation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"notifier"},
	)

	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_email_sent_total",
			Help: "Total number of emails handed to the sender successfully",
		},
		[]string{"sender"},
	)

	emailsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_email_failed_total",
			Help: "Total number of failed email sends",
		},
		[]string{"sender", "error_type"},
	)

	emailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_email_send_duration_seconds",
			Help:    "Email send call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"sender"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordRequest records one finished invocation.
// outcome is a short label such as "ok", "method_not_allowed" or "send_failed".
func RecordRequest(notifier, outcome string, duration time.Duration) {
	webhookRequestsTotal.WithLabelValues(notifier, outcome).Inc()
	webhookDuration.WithLabelValues(notifier).Observe(duration.Seconds())
}

// RecordEmailSent records a successful send
func RecordEmailSent(sender string, duration time.Duration) {
	emailsSentTotal.WithLabelValues(sender).Inc()
	emailSendDuration.WithLabelValues(sender).Observe(duration.Seconds())
}

// RecordEmailFailed records a failed send
func RecordEmailFailed(sender, errorType string, duration time.Duration) {
	emailsFailedTotal.WithLabelValues(sender, errorType).Inc()
	emailSendDuration.WithLabelValues(sender).Observe(duration.Seconds())
}

func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// MetricsHandler returns the Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
