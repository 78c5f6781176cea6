package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"lightningtracker/internal/mapview"
	"lightningtracker/internal/model"
	"lightningtracker/internal/service/location"
	"lightningtracker/internal/service/viewport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPublisher struct {
	mu       sync.Mutex
	messages map[string][]model.ViewportState
}

func (p *memoryPublisher) PublishViewport(_ context.Context, sessionID string, state model.ViewportState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = make(map[string][]model.ViewportState)
	}
	p.messages[sessionID] = append(p.messages[sessionID], state)
	return nil
}

func (p *memoryPublisher) count(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[sessionID])
}

type memoryRecorders struct {
	mu       sync.Mutex
	outcomes map[string][]location.Outcome
}

func (r *memoryRecorders) ForSession(id string) location.OutcomeRecorder {
	return recorderFunc(func(_ context.Context, o location.Outcome) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.outcomes == nil {
			r.outcomes = make(map[string][]location.Outcome)
		}
		r.outcomes[id] = append(r.outcomes[id], o)
		return nil
	})
}

type recorderFunc func(context.Context, location.Outcome) error

func (f recorderFunc) RecordOutcome(ctx context.Context, o location.Outcome) error { return f(ctx, o) }

func testViewportOptions() viewport.Options {
	return viewport.Options{
		Style:         "mapbox://styles/mapbox/dark-v11",
		AccessToken:   "pk.test",
		DefaultCenter: model.NewGeoPoint(-98.5795, 39.8283),
		DefaultZoom:   4,
		FixZoom:       8,
		Rings: []model.RingSpec{
			{DistanceMiles: 10, Color: model.ColorHigh},
			{DistanceMiles: 20, Color: model.ColorMedium},
			{DistanceMiles: 30, Color: model.ColorLow},
		},
	}
}

func TestCreateAndDestroy(t *testing.T) {
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), nil, nil, nil)

	sess, err := svc.Create()
	require.NoError(t, err)
	assert.Len(t, sess.ID, 22)
	assert.Equal(t, 1, svc.Count())

	snap := sess.Snapshot()
	assert.Equal(t, "initialized_no_fix", snap.State)
	assert.False(t, snap.LocationFound)
	assert.Empty(t, snap.Overlays)

	got, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	view := sess.Controller.View()
	require.NoError(t, svc.Destroy(sess.ID))
	assert.False(t, view.Ready())
	assert.Zero(t, svc.Count())

	_, err = svc.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Destroy(sess.ID), ErrSessionNotFound)
}

func TestCreateFailsWithoutToken(t *testing.T) {
	opts := testViewportOptions()
	opts.AccessToken = ""
	svc := NewService(opts, mapview.NewMemoryFactory(), nil, nil, nil)

	_, err := svc.Create()
	assert.ErrorIs(t, err, mapview.ErrMissingAccessToken)
	assert.Zero(t, svc.Count())
}

func TestReportLocationMaterialisesRings(t *testing.T) {
	recorders := &memoryRecorders{}
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), nil, recorders, nil)
	sess, err := svc.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	snap, err := svc.ReportLocation(ctx, sess.ID, model.NewGeoPoint(-122.4, 37.8))
	require.NoError(t, err)
	assert.Equal(t, "initialized_fixed", snap.State)
	assert.True(t, snap.LocationFound)
	require.Len(t, snap.Overlays, 3)
	assert.Equal(t, model.ViewportState{Longitude: -122.4, Latitude: 37.8, Zoom: 8}, snap.Viewport)

	fc := sess.Overlays()
	assert.Len(t, fc.Features, 4) // three rings and the user marker

	_, err = svc.ReportLocation(ctx, sess.ID, model.NewGeoPoint(-74, 40.7))
	assert.ErrorIs(t, err, ErrLocationAlreadyReported)

	recorders.mu.Lock()
	defer recorders.mu.Unlock()
	require.Len(t, recorders.outcomes[sess.ID], 1)
	assert.Equal(t, model.LocationOutcomeFix, recorders.outcomes[sess.ID][0].Kind)
}

func TestReportLocationRejectsInvalidPoint(t *testing.T) {
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), nil, nil, nil)
	sess, err := svc.Create()
	require.NoError(t, err)

	_, err = svc.ReportLocation(context.Background(), sess.ID, model.NewGeoPoint(0, 95))
	assert.ErrorIs(t, err, ErrInvalidLocation)
	assert.False(t, sess.Device.Resolved())
}

func TestReportLocationFailure(t *testing.T) {
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), nil, nil, nil)
	sess, err := svc.Create()
	require.NoError(t, err)

	snap, err := svc.ReportLocationFailure(sess.ID, "User denied Geolocation", false)
	require.NoError(t, err)
	assert.Equal(t, "initialized_no_fix", snap.State)

	_, err = svc.ReportLocationFailure(sess.ID, "", true)
	assert.ErrorIs(t, err, ErrLocationAlreadyReported)

	_, err = svc.ReportLocation(context.Background(), sess.ID, model.NewGeoPoint(-122.4, 37.8))
	assert.ErrorIs(t, err, ErrLocationAlreadyReported)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, viewport.StateNoFix, sess.Controller.State())
	assert.Empty(t, sess.Overlays().Features)
}

func TestMovePublishesViewport(t *testing.T) {
	publisher := &memoryPublisher{}
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), publisher, nil, nil)
	sess, err := svc.Create()
	require.NoError(t, err)

	state, err := svc.Move(sess.ID, model.NewGeoPoint(-100.123456, 40.654321), 5.555)
	require.NoError(t, err)
	assert.Equal(t, model.ViewportState{Longitude: -100.1235, Latitude: 40.6543, Zoom: 5.56}, state)
	assert.Equal(t, 1, publisher.count(sess.ID))

	_, err = svc.Move(sess.ID, model.NewGeoPoint(-200, 0), 5)
	assert.ErrorIs(t, err, ErrInvalidLocation)
	_, err = svc.Move("missing", model.NewGeoPoint(0, 0), 5)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestZonesAt(t *testing.T) {
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), nil, nil, nil)
	sess, err := svc.Create()
	require.NoError(t, err)

	assert.Empty(t, sess.ZonesAt(model.NewGeoPoint(-122.4, 37.8)))

	_, err = svc.ReportLocation(context.Background(), sess.ID, model.NewGeoPoint(-122.4, 37.8))
	require.NoError(t, err)

	// the center lies inside all three rings
	zones := sess.ZonesAt(model.NewGeoPoint(-122.4, 37.8))
	require.Len(t, zones, 3)
	assert.Equal(t, "distance-ring-10", zones[0].Key)

	// ~15 miles north: outside the 10 mile ring only
	zones = sess.ZonesAt(model.NewGeoPoint(-122.4, 37.8+0.218))
	require.Len(t, zones, 2)
	assert.Equal(t, "distance-ring-20", zones[0].Key)

	assert.Empty(t, sess.ZonesAt(model.NewGeoPoint(-100, 30)))
}

func TestCloseDestroysEverySession(t *testing.T) {
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), nil, nil, nil)

	var views []mapview.MapView
	for i := 0; i < 3; i++ {
		sess, err := svc.Create()
		require.NoError(t, err)
		views = append(views, sess.Controller.View())
	}
	require.Equal(t, 3, svc.Count())

	svc.Close()
	assert.Zero(t, svc.Count())
	for _, view := range views {
		assert.False(t, view.Ready())
	}

	// closing again is a no-op
	svc.Close()
	assert.Zero(t, svc.Count())
}

func TestSweepIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	svc := NewService(testViewportOptions(), mapview.NewMemoryFactory(), nil, nil, nil)
	svc.now = func() time.Time { return now }

	idle, err := svc.Create()
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	active, err := svc.Create()
	require.NoError(t, err)

	assert.Equal(t, 1, svc.SweepIdle(10*time.Minute))
	_, err = svc.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(active.ID)
	assert.NoError(t, err)

	svc.Close()
	assert.Zero(t, svc.Count())
}
