package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(webhookRequestsTotal.WithLabelValues("echo", "ok"))
	RecordRequest("echo", "ok", 3*time.Millisecond)
	after := testutil.ToFloat64(webhookRequestsTotal.WithLabelValues("echo", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordEmailSentAndFailed(t *testing.T) {
	sentBefore := testutil.ToFloat64(emailsSentTotal.WithLabelValues("fake"))
	failedBefore := testutil.ToFloat64(emailsFailedTotal.WithLabelValues("fake", "temporary"))

	RecordEmailSent("fake", time.Millisecond)
	RecordEmailFailed("fake", "temporary", time.Millisecond)

	assert.Equal(t, sentBefore+1, testutil.ToFloat64(emailsSentTotal.WithLabelValues("fake")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(emailsFailedTotal.WithLabelValues("fake", "temporary")))
}

func TestMetricsHandler(t *testing.T) {
	RecordRateLimited()

	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "webhook_rate_limited_total")
}
