package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "expire-stale-orders"

	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	m.IncFailure(job)
	m.IncSkipped(job)
	m.AddAffected(job, 3)
	m.AddAffected(job, 0)

	if got := testutil.ToFloat64(m.runs.WithLabelValues(job, "success")); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(job, "failure")); got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(job, "skipped")); got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.affected.WithLabelValues(job)); got != 3 {
		t.Fatalf("expected affected=3, got %f", got)
	}
	if n := testutil.CollectAndCount(m.duration, "bazaar_cron_job_duration_seconds"); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCronJobMetrics(nil).IncSuccess("job")
	NewHTTPMetrics(nil).Observe("/api/projects", http.MethodGet, 200, time.Millisecond)
	NewMarketplaceMetrics(nil).OrderCreated("INR", 1, true)

	var m *MarketplaceMetrics
	m.PurchaseRecorded("INR", false)
	m.VerificationFailed("amount_mismatch")
	m.RelayMessage(true)
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/projects/{id}", http.MethodGet, 404, 5*time.Millisecond)
	m.Observe("", http.MethodGet, 200, time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/projects/{id}", "GET", "404")); got != 1 {
		t.Fatalf("expected one 404, got %f", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unknown", "GET", "200")); got != 1 {
		t.Fatalf("expected unknown route bucket, got %f", got)
	}
}

func TestMarketplaceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMarketplaceMetrics(reg)

	m.OrderCreated("INR", 2, true)
	m.OrderCreated("INR", 3, false)
	m.PurchaseRecorded("INR", false)
	m.PurchaseRecorded("INR", true)
	m.VerificationFailed("amount_mismatch")
	m.RelayMessage(false)

	if got := testutil.ToFloat64(m.ordersCreated.WithLabelValues("INR", "success")); got != 1 {
		t.Fatalf("expected one successful order, got %f", got)
	}
	if got := testutil.ToFloat64(m.purchases.WithLabelValues("INR", "replay")); got != 1 {
		t.Fatalf("expected one replay, got %f", got)
	}
	if got := testutil.ToFloat64(m.verificationFailures.WithLabelValues("amount_mismatch")); got != 1 {
		t.Fatalf("expected one verification failure, got %f", got)
	}
	if got := testutil.ToFloat64(m.relayMessages.WithLabelValues("failure")); got != 1 {
		t.Fatalf("expected one relay failure, got %f", got)
	}
}

func TestHandlerExposesRegisteredSeries(t *testing.T) {
	reg := NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/health/live", http.MethodGet, 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bazaar_http_requests_total") {
		t.Fatalf("expected http series in output")
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected runtime collector in output")
	}
}

func TestOrderAttemptsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMarketplaceMetrics(reg)
	m.OrderCreated("INR", 1, true)
	m.OrderCreated("INR", 3, true)

	var sample dto.Metric
	if err := m.orderAttempts.Write(&sample); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if got := sample.GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 observations, got %d", got)
	}
	if got := sample.GetHistogram().GetSampleSum(); got != 4 {
		t.Fatalf("expected attempt sum 4, got %f", got)
	}
}
