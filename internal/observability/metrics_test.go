package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.OverlayRegistered("10")
	m.OverlayRegistered("10")
	m.OverlayDuplicate()
	m.LocationOutcome("denied")
	m.ViewportMoved()
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.OverlayRegistrations.WithLabelValues("10")); got != 2 {
		t.Fatalf("overlay_registrations_total{distance=10} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.OverlayDuplicates); got != 1 {
		t.Fatalf("overlay_duplicates_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LocationOutcomes.WithLabelValues("denied")); got != 1 {
		t.Fatalf("location_outcomes_total{outcome=denied} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 3 {
		t.Fatalf("map_sessions_active = %v, want 3", got)
	}
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}

	first.ViewportMoved()
	if got := testutil.ToFloat64(second.ViewportMoves); got != 1 {
		t.Fatalf("shared viewport_moves_total = %v, want 1", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.OverlayRegistered("10")
	m.OverlayDuplicate()
	m.LocationOutcome("fix")
	m.ViewportMoved()
	m.SetActiveSessions(1)
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.OverlayDuplicate()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "overlay_duplicates_total 1") {
		t.Fatalf("metrics body missing overlay_duplicates_total:\n%s", rec.Body.String())
	}
}
