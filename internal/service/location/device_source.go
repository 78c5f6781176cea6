package location

import (
	"context"
	"fmt"
	"sync"

	"lightningtracker/internal/model"
)

// DeviceSource is resolved by the client device reporting its position (or
// the reason it could not) exactly once.
type DeviceSource struct {
	once  sync.Once
	done  chan struct{}
	point model.GeoPoint
	err   error
}

// NewDeviceSource creates an unresolved device source
func NewDeviceSource() *DeviceSource {
	return &DeviceSource{done: make(chan struct{})}
}

// Report resolves the source with a position. Returns false if already resolved.
func (d *DeviceSource) Report(point model.GeoPoint) bool {
	return d.resolve(point, nil)
}

// Deny resolves the source with a failure reason. Returns false if already resolved.
func (d *DeviceSource) Deny(reason string) bool {
	if reason == "" {
		return d.resolve(model.GeoPoint{}, ErrPermissionDenied)
	}
	return d.resolve(model.GeoPoint{}, fmt.Errorf("%w: %s", ErrPermissionDenied, reason))
}

// Unsupported resolves the source as a device without geolocation
func (d *DeviceSource) Unsupported() bool {
	return d.resolve(model.GeoPoint{}, ErrUnsupported)
}

func (d *DeviceSource) resolve(point model.GeoPoint, err error) bool {
	resolved := false
	d.once.Do(func() {
		d.point = point
		d.err = err
		resolved = true
		close(d.done)
	})
	return resolved
}

// Resolved reports whether a position or failure has been reported
func (d *DeviceSource) Resolved() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// CurrentPosition blocks until the device reports or ctx ends
func (d *DeviceSource) CurrentPosition(ctx context.Context) (model.GeoPoint, error) {
	select {
	case <-d.done:
		return d.point, d.err
	case <-ctx.Done():
		return model.GeoPoint{}, ctx.Err()
	}
}

// StaticSource always answers with the same position or error
type StaticSource struct {
	Point model.GeoPoint
	Err   error
}

func (s StaticSource) CurrentPosition(context.Context) (model.GeoPoint, error) {
	return s.Point, s.Err
}
