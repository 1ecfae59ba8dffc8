package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("/api/feedback", http.MethodPost, 201, 20*time.Millisecond)
	m.ObserveRequest("/api/feedback", http.MethodPost, 201, 30*time.Millisecond)
	m.ObserveRequest("", http.MethodGet, 404, time.Millisecond)
	m.CountError("validation")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/feedback", "POST", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("validation")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveInference("crop_recommend", "ok", 120*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `krishi_inference_call_duration_seconds_count{call="crop_recommend",outcome="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
