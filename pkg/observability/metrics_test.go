package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDecision(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordDecision("project", "update", true, "")
	metrics.RecordDecision("project", "update", false, "not_manager")
	metrics.RecordDecision("project", "update", false, "not_manager")

	allowed := metrics.AuthzDecisionsTotal.WithLabelValues("project", "update", "allowed")
	denied := metrics.AuthzDecisionsTotal.WithLabelValues("project", "update", "not_manager")
	assert.Equal(t, float64(1), testutil.ToFloat64(allowed))
	assert.Equal(t, float64(2), testutil.ToFloat64(denied))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/projects", nil))

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/projects", "418")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestMetricsRegisterOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	// Registering the same names twice must panic; each registry gets its own
	// Metrics value.
	assert.Panics(t, func() { NewMetrics(registry) })
}
