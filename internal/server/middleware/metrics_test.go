package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Instrument(t *testing.T) {
	m := NewMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{resource}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := m.Instrument(mux)

	for _, path := range []string{"/api/trades", "/api/bots"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/x/y", nil))

	out := scrape(t, m)
	assert.Contains(t, out, `tradedesk_http_requests_total{method="GET",path="GET /api/{resource}",status="200"} 2`)
	assert.Contains(t, out, `tradedesk_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.Contains(t, out, "tradedesk_http_request_duration_seconds_bucket")
	assert.Contains(t, out, "tradedesk_http_in_flight_requests 0")
	assert.Contains(t, out, "go_goroutines")
}

func TestMetrics_RateLimitedCounter(t *testing.T) {
	m := NewMetrics()
	m.rateLimited()
	m.rateLimited()

	assert.Contains(t, scrape(t, m), "tradedesk_http_rate_limited_total 2")

	var nilMetrics *Metrics
	assert.NotPanics(t, nilMetrics.rateLimited)
}
