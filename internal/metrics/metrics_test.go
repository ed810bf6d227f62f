package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters(t *testing.T) {
	t.Parallel()

	metrics := New()
	metrics.FastStarted()
	metrics.FastStarted()
	metrics.FastEnded()
	metrics.MealLogged()

	if got := testutil.ToFloat64(metrics.fastsStarted); got != 2 {
		t.Fatalf("fasts started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.fastsEnded); got != 1 {
		t.Fatalf("fasts ended = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.mealsLogged); got != 1 {
		t.Fatalf("meals logged = %v, want 1", got)
	}
}

func TestObserveRequestLabelsByRoute(t *testing.T) {
	t.Parallel()

	metrics := New()
	metrics.ObserveRequest(http.MethodPost, "/api/fasts/:id/end", http.StatusForbidden, 20*time.Millisecond)

	counter := metrics.requests.WithLabelValues(http.MethodPost, "/api/fasts/:id/end", "403")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("request counter = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.FastStarted()
	metrics.FastEnded()
	metrics.MealLogged()
	metrics.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)
}

func TestHandlerExposesNamespacedMetrics(t *testing.T) {
	t.Parallel()

	metrics := New()
	metrics.FastStarted()

	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	body, err := io.ReadAll(recorder.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "fastlog_fasts_started_total 1") {
		t.Fatalf("expected fasts counter in exposition, got:\n%s", body)
	}
}
