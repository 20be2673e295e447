package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHealthPingsCounter(t *testing.T) {
	before := testutil.ToFloat64(HealthPings.WithLabelValues(PingSent))
	HealthPings.WithLabelValues(PingSent).Inc()

	if got := testutil.ToFloat64(HealthPings.WithLabelValues(PingSent)); got != before+1 {
		t.Errorf("health_pings_total{result=sent} = %v, want %v", got, before+1)
	}
}

func TestHandler(t *testing.T) {
	ClientRequests.WithLabelValues("/agones.dev.sdk.SDK/Ready", "OK").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "agones_sdk_client_requests_total") {
		t.Error("exposition should contain agones_sdk_client_requests_total")
	}
}
