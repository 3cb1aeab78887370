package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/api/questions/{id}/status", NormalizePath("/api/questions/0b7f4a52-3f0e-4a7e-9c61-0c5b9f0d2a11/status"))
	assert.Equal(t, "/api/questions/my-questions", NormalizePath("/api/questions/my-questions"))
	assert.Equal(t, "/health", NormalizePath("/health"))
}

func TestPrometheusMiddlewareCountsNormalizedRoute(t *testing.T) {
	counter := httpRequestsTotal.WithLabelValues("GET", "/api/questions/{id}", "404")
	before := testutil.ToFloat64(counter)

	h := PrometheusMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/questions/0b7f4a52-3f0e-4a7e-9c61-0c5b9f0d2a11", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestBusinessCounters(t *testing.T) {
	submitted := questionsSubmittedTotal.WithLabelValues("urgent")
	before := testutil.ToFloat64(submitted)
	RecordQuestionSubmitted("urgent")
	assert.Equal(t, before+1, testutil.ToFloat64(submitted))

	failed := dbQueriesTotal.WithLabelValues("questions.test", "error")
	before = testutil.ToFloat64(failed)
	RecordDBQuery("questions.test", time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(failed))

	UpdateDBConnections(3, 2)
	assert.Equal(t, float64(3), testutil.ToFloat64(dbConnections.WithLabelValues("in_use")))
	assert.Equal(t, float64(2), testutil.ToFloat64(dbConnections.WithLabelValues("idle")))
}
