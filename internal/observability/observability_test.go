package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	for _, tc := range []struct{ level, format string }{{"", ""}, {"debug", "json"}, {"WARN", "console"}} {
		logger, err := NewLogger(tc.level, tc.format)
		if err != nil {
			t.Fatalf("NewLogger(%q, %q): %v", tc.level, tc.format, err)
		}
		_ = logger.Sync()
	}
	if _, err := NewLogger("loud", "json"); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := NewLogger("info", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
	if OrNop(nil) == nil {
		t.Fatalf("expected nop logger")
	}
}

func TestObserveCountsByStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.Observe(context.Background(), "render", true, 10*time.Millisecond)
	m.Observe(context.Background(), "render", true, 20*time.Millisecond)
	m.Observe(context.Background(), "render", false, time.Millisecond)
	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("render", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("render", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.CollectAndCount(m.OperationDuration); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
	m.ExportFinished("succeeded")
	m.DataReloaded(false)
	if got := testutil.ToFloat64(m.ExportsTotal.WithLabelValues("succeeded")); got != 1 {
		t.Fatalf("expected export count, got %v", got)
	}
	if got := testutil.ToFloat64(m.DataReloadsTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected reload count, got %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.Observe(context.Background(), "noop", true, 0)
	nilMetrics.ExportFinished("failed")
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/presets/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}), m, zap.NewNop())

	for _, path := range []string{"/api/v1/levels", "/api/v1/presets/missing", "/healthz"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/presets/{id}", "GET", "404")); got != 1 {
		t.Fatalf("expected 404 count, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/levels", "GET", "200")); got != 1 {
		t.Fatalf("expected 200 count, got %v", got)
	}
}

func TestRoute(t *testing.T) {
	cases := map[string]string{
		"/api/v1/levels":                  "/api/v1/levels",
		"/api/v1/exports/abc":             "/api/v1/exports/{id}",
		"/api/v1/exports/abc/artifacts/x": "/api/v1/exports/{id}",
		"/api/v1/presets/":                "/api/v1/presets",
		"/metrics":                        "/metrics",
	}
	for in, want := range cases {
		if got := Route(in); got != want {
			t.Fatalf("Route(%q) = %q, want %q", in, got, want)
		}
	}
}
