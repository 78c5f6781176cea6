package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors of the overlay engine.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	OverlayRegistrations *prometheus.CounterVec
	OverlayDuplicates    prometheus.Counter
	LocationOutcomes     *prometheus.CounterVec
	ViewportMoves        prometheus.Counter
	ActiveSessions       prometheus.Gauge
}

// NewMetrics registers the collectors against reg, defaulting to the global
// Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	registrations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_registrations_total",
		Help: "Ring overlays materialised on a map view, labeled by ring distance in miles.",
	}, []string{"distance"}), "overlay_registrations_total")
	if err != nil {
		return nil, err
	}

	duplicates, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_duplicates_total",
		Help: "Ring registrations suppressed because the source already existed.",
	}), "overlay_duplicates_total")
	if err != nil {
		return nil, err
	}

	outcomes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "location_outcomes_total",
		Help: "Device location requests, labeled by outcome.",
	}, []string{"outcome"}), "location_outcomes_total")
	if err != nil {
		return nil, err
	}

	moves, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "viewport_moves_total",
		Help: "Map move events applied to viewport state.",
	}), "viewport_moves_total")
	if err != nil {
		return nil, err
	}

	sessions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "map_sessions_active",
		Help: "Currently mounted map sessions.",
	}), "map_sessions_active")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:             gatherer,
		OverlayRegistrations: registrations,
		OverlayDuplicates:    duplicates,
		LocationOutcomes:     outcomes,
		ViewportMoves:        moves,
		ActiveSessions:       sessions,
	}, nil
}

// Handler exposes the gathered metrics over HTTP
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) OverlayRegistered(distance string) {
	if m == nil {
		return
	}
	m.OverlayRegistrations.WithLabelValues(distance).Inc()
}

func (m *Metrics) OverlayDuplicate() {
	if m == nil {
		return
	}
	m.OverlayDuplicates.Inc()
}

func (m *Metrics) LocationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.LocationOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ViewportMoved() {
	if m == nil {
		return
	}
	m.ViewportMoves.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
