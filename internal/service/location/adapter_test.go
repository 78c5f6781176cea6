package location

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lightningtracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	point model.GeoPoint
	err   error
}

func (s *countingSource) CurrentPosition(context.Context) (model.GeoPoint, error) {
	s.calls.Add(1)
	return s.point, s.err
}

type panickingSource struct{}

func (panickingSource) CurrentPosition(context.Context) (model.GeoPoint, error) {
	panic("geolocation blew up")
}

type memoryRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *memoryRecorder) RecordOutcome(_ context.Context, outcome Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func receive(t *testing.T, ch <-chan *model.GeoPoint) *model.GeoPoint {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "channel closed without a value")
		// the channel is closed after the single value
		_, more := <-ch
		assert.False(t, more)
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("location result not delivered")
		return nil
	}
}

func TestAcquireSuccess(t *testing.T) {
	src := &countingSource{point: model.NewGeoPoint(-122.4, 37.8)}
	rec := &memoryRecorder{}
	a := NewAdapter(src, rec, nil)

	p := receive(t, a.Acquire(context.Background()))
	require.NotNil(t, p)
	assert.Equal(t, model.NewGeoPoint(-122.4, 37.8), *p)
	assert.Equal(t, int32(1), src.calls.Load())

	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, model.LocationOutcomeFix, rec.outcomes[0].Kind)
}

func TestAcquireFailuresResolveToNil(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		kind   model.LocationOutcome
	}{
		{"missing capability", nil, model.LocationOutcomeUnsupported},
		{"permission denied", StaticSource{Err: ErrPermissionDenied}, model.LocationOutcomeDenied},
		{"unsupported device", StaticSource{Err: ErrUnsupported}, model.LocationOutcomeUnsupported},
		{"out of range", StaticSource{Point: model.NewGeoPoint(200, 10)}, model.LocationOutcomeInvalid},
		{"panic", panickingSource{}, model.LocationOutcomeDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memoryRecorder{}
			a := NewAdapter(tt.source, rec, nil)

			assert.Nil(t, receive(t, a.Acquire(context.Background())))
			require.Len(t, rec.outcomes, 1)
			assert.Equal(t, tt.kind, rec.outcomes[0].Kind)
			assert.Error(t, rec.outcomes[0].Err)
		})
	}
}

func TestDeviceSourceResolvesOnce(t *testing.T) {
	d := NewDeviceSource()
	assert.False(t, d.Resolved())

	a := NewAdapter(d, nil, nil)
	ch := a.Acquire(context.Background())

	assert.True(t, d.Report(model.NewGeoPoint(-122.4, 37.8)))
	assert.False(t, d.Report(model.NewGeoPoint(0, 0)))
	assert.False(t, d.Deny("too late"))
	assert.True(t, d.Resolved())

	p := receive(t, ch)
	require.NotNil(t, p)
	assert.Equal(t, -122.4, p.Longitude)
}

func TestDeviceSourceDeny(t *testing.T) {
	d := NewDeviceSource()
	require.True(t, d.Deny("User denied Geolocation"))

	_, err := d.CurrentPosition(context.Background())
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Contains(t, err.Error(), "User denied Geolocation")

	u := NewDeviceSource()
	require.True(t, u.Unsupported())
	_, err = u.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDeviceSourceEndsWithContext(t *testing.T) {
	d := NewDeviceSource()
	ctx, cancel := context.WithCancel(context.Background())
	a := NewAdapter(d, nil, nil)
	ch := a.Acquire(ctx)

	cancel()
	assert.Nil(t, receive(t, ch))
}
