package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/sellside/storefront/internal/obs"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/products/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for n := 0; n < 2; n++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/tee", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	count := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues("GET", "/products/{slug}", "200"))
	require.Equal(t, float64(2), count)
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestNewHTTPMetricsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("test", reg)
	second := obs.NewHTTPMetrics("test", reg)
	require.Equal(t, first.ReqTotal, second.ReqTotal)
}
