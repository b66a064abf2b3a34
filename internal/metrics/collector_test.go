package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordGeneration(t *testing.T) {
	c := NewCollector("test")

	c.RecordGeneration("img4", "success", 2, time.Second)
	c.RecordGeneration("img4", "success", 1, time.Second)
	c.RecordGeneration("img4", "auth", 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("img4", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("img4", "auth")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.generatedImages.WithLabelValues("img4")))
}

func TestCollector_RecordProbe(t *testing.T) {
	c := NewCollector("test")

	c.RecordProbe("models", true, 200)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.probeUp.WithLabelValues("models")))
	assert.Equal(t, 200.0, testutil.ToFloat64(c.probeStatus.WithLabelValues("models")))

	c.RecordProbe("models", false, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.probeUp.WithLabelValues("models")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.probeStatus.WithLabelValues("models")))
}

func TestCollector_CountersAndHandler(t *testing.T) {
	c := NewCollector("test")
	c.RecordModelFallback("error")
	c.RecordHistory(true)
	c.RecordHistory(false)
	c.RecordHTTPRequest(http.MethodGet, "/api/models", 200, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.modelFallbacks.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.historyRequests.WithLabelValues("failure")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "test_model_fallbacks_total"))
	assert.True(t, strings.Contains(body, `test_http_requests_total{method="GET",path="/api/models",status="200"} 1`))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordGeneration("img4", "success", 1, time.Second)
		c.RecordModelFallback("empty")
		c.RecordHistory(true)
		c.RecordProbe("connection", true, 200)
		c.RecordHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)
	})
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
