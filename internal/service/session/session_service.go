package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lightningtracker/internal/mapview"
	"lightningtracker/internal/model"
	"lightningtracker/internal/observability"
	"lightningtracker/internal/service/location"
	"lightningtracker/internal/service/overlay"
	"lightningtracker/internal/service/storage"
	"lightningtracker/internal/service/viewport"
	"lightningtracker/internal/util"

	"github.com/paulmach/orb/geojson"
)

var (
	ErrSessionNotFound         = errors.New("map session not found")
	ErrLocationAlreadyReported = errors.New("location already reported for this session")
	ErrInvalidLocation         = errors.New("location is out of range")
)

// ViewportPublisher receives every viewport update of a session
type ViewportPublisher interface {
	PublishViewport(ctx context.Context, sessionID string, state model.ViewportState) error
}

// RecorderFactory hands out a location outcome recorder per session
type RecorderFactory interface {
	ForSession(sessionID string) location.OutcomeRecorder
}

// RenderableView is a map view that can render itself as GeoJSON
type RenderableView interface {
	mapview.MapView
	FeatureCollection() *geojson.FeatureCollection
	SourcesAt(p model.GeoPoint) []string
}

// Session is one mounted map: its view controller, ring registry and the
// device location capability that resolves it.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *viewport.Controller
	Registry   *overlay.Registry
	Device     *location.DeviceSource

	cancel context.CancelFunc
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID            string                `json:"id"`
	State         string                `json:"state"`
	Viewport      model.ViewportState   `json:"viewport"`
	UserLocation  *model.GeoPoint       `json:"user_location,omitempty"`
	LocationFound bool                  `json:"location_found"`
	Overlays      []model.OverlayRecord `json:"overlays"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Snapshot captures the current session state
func (s *Session) Snapshot() Snapshot {
	loc := s.Controller.UserLocation()
	return Snapshot{
		ID:            s.ID,
		State:         s.Controller.State().String(),
		Viewport:      s.Controller.Viewport(),
		UserLocation:  loc,
		LocationFound: loc != nil,
		Overlays:      s.Registry.Records(),
		CreatedAt:     s.CreatedAt,
	}
}

// Overlays renders the session map as a GeoJSON feature collection
func (s *Session) Overlays() *geojson.FeatureCollection {
	if view, ok := s.Controller.View().(RenderableView); ok && view.Ready() {
		return view.FeatureCollection()
	}
	return geojson.NewFeatureCollection()
}

// ZonesAt returns the rings whose polygon contains p, nearest ring first
func (s *Session) ZonesAt(p model.GeoPoint) []model.OverlayRecord {
	view, ok := s.Controller.View().(RenderableView)
	if !ok || !view.Ready() {
		return nil
	}

	var result []model.OverlayRecord
	for _, id := range view.SourcesAt(p) {
		if record, ok := s.Registry.Record(id); ok {
			result = append(result, record)
		}
	}
	return result
}

// Service owns the live map sessions
type Service struct {
	opts      viewport.Options
	factory   mapview.Factory
	publisher ViewportPublisher
	recorders RecorderFactory
	metrics   *observability.Metrics
	storage   storage.Storage[string, *Session]
	now       func() time.Time
}

// NewService creates a session service. publisher and recorders may be nil.
func NewService(opts viewport.Options, factory mapview.Factory, publisher ViewportPublisher, recorders RecorderFactory, metrics *observability.Metrics) *Service {
	s := &Service{
		opts:      opts,
		factory:   factory,
		publisher: publisher,
		recorders: recorders,
		metrics:   metrics,
		now:       time.Now,
	}
	s.storage = storage.NewMemoryStorageWithClock[string, *Session](func() time.Time { return s.now() })
	return s
}

// Create mounts a new map session at the default viewport and starts its
// one location request.
func (s *Service) Create() (*Session, error) {
	id := util.ShortUUID()
	ctx, cancel := context.WithCancel(context.Background())

	device := location.NewDeviceSource()
	var recorder location.OutcomeRecorder
	if s.recorders != nil {
		recorder = s.recorders.ForSession(id)
	}

	opts := s.opts
	opts.Container = id

	registry := overlay.NewRegistry(s.metrics)
	adapter := location.NewAdapter(device, recorder, s.metrics)
	controller := viewport.NewController(opts, s.factory, adapter, registry, s.metrics)

	if s.publisher != nil {
		controller.Subscribe(func(state model.ViewportState) {
			if err := s.publisher.PublishViewport(ctx, id, state); err != nil {
				log.Printf("Failed to publish viewport for session %s: %v", id, err)
			}
		})
	}

	if err := controller.Mount(ctx); err != nil {
		cancel()
		return nil, err
	}

	sess := &Session{
		ID:         id,
		CreatedAt:  s.now(),
		Controller: controller,
		Registry:   registry,
		Device:     device,
		cancel:     cancel,
	}
	s.storage.Set(id, sess)
	s.metrics.SetActiveSessions(s.storage.Count())

	log.Printf("Map session %s mounted", id)
	return sess, nil
}

// Get returns a session and marks it as recently used
func (s *Service) Get(id string) (*Session, error) {
	sess, ok := s.storage.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.storage.Touch(id)
	return sess, nil
}

// Destroy unmounts a session: the view and its overlays are removed
func (s *Service) Destroy(id string) error {
	sess, ok := s.storage.Get(id)
	if !ok || !s.storage.Delete(id) {
		return ErrSessionNotFound
	}
	sess.cancel()
	if view := sess.Controller.View(); view != nil {
		view.Remove()
	}
	s.metrics.SetActiveSessions(s.storage.Count())

	log.Printf("Map session %s destroyed", id)
	return nil
}

// ReportLocation resolves the session's device location with point and waits
// until the fix has been applied or ctx ends.
func (s *Service) ReportLocation(ctx context.Context, id string, point model.GeoPoint) (Snapshot, error) {
	sess, err := s.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if !point.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %+v", ErrInvalidLocation, point)
	}
	if !sess.Device.Report(point) {
		return Snapshot{}, ErrLocationAlreadyReported
	}

	select {
	case <-sess.Controller.FixApplied():
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	return sess.Snapshot(), nil
}

// ReportLocationFailure resolves the session's device location with a failure
func (s *Service) ReportLocationFailure(id, reason string, unsupported bool) (Snapshot, error) {
	sess, err := s.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	var resolved bool
	if unsupported {
		resolved = sess.Device.Unsupported()
	} else {
		resolved = sess.Device.Deny(reason)
	}
	if !resolved {
		return Snapshot{}, ErrLocationAlreadyReported
	}
	return sess.Snapshot(), nil
}

// Move applies a user pan/zoom to the session view and returns the updated viewport
func (s *Service) Move(id string, center model.GeoPoint, zoom float64) (model.ViewportState, error) {
	sess, err := s.Get(id)
	if err != nil {
		return model.ViewportState{}, err
	}
	if !center.Valid() {
		return model.ViewportState{}, fmt.Errorf("%w: %+v", ErrInvalidLocation, center)
	}

	sess.Controller.View().JumpTo(center, zoom)
	return sess.Controller.Viewport(), nil
}

// SweepIdle destroys sessions unused for longer than ttl
func (s *Service) SweepIdle(ttl time.Duration) int {
	ids := s.storage.UpdatedBefore(s.now().Add(-ttl))
	destroyed := 0
	for _, id := range ids {
		if err := s.Destroy(id); err == nil {
			destroyed++
		}
	}
	if destroyed > 0 {
		log.Printf("Swept %d idle map sessions, %d remaining", destroyed, s.storage.Count())
	}
	return destroyed
}

// Count returns the number of live sessions
func (s *Service) Count() int {
	return s.storage.Count()
}

// Close destroys every session
func (s *Service) Close() {
	for _, sess := range s.storage.GetAllValues() {
		if err := s.Destroy(sess.ID); err != nil {
			log.Printf("Failed to destroy map session %s on close: %v", sess.ID, err)
		}
	}
}
