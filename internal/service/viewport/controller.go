package viewport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"lightningtracker/internal/mapview"
	"lightningtracker/internal/model"
	"lightningtracker/internal/observability"
)

// State is the controller lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateNoFix
	StateFixed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateNoFix:
		return "initialized_no_fix"
	case StateFixed:
		return "initialized_fixed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	UserMarkerColor = "#3B82F6"
	UserMarkerPopup = "<h3>Your Location</h3>"
)

var ErrAlreadyMounted = errors.New("map view already mounted")

// RingEnsurer materialises one alert ring on a view, at most once per ring key
type RingEnsurer interface {
	EnsureRing(view mapview.MapView, center model.GeoPoint, ring model.RingSpec) bool
}

// Locator asynchronously yields the device position, or nil
type Locator interface {
	Acquire(ctx context.Context) <-chan *model.GeoPoint
}

// Options configure a controller
type Options struct {
	Container     string
	Style         string
	AccessToken   string
	DefaultCenter model.GeoPoint
	DefaultZoom   float64
	FixZoom       float64
	Rings         []model.RingSpec
}

// Controller keeps viewport readouts in sync with the map view and recenters
// the view on the first location fix.
type Controller struct {
	opts    Options
	factory mapview.Factory
	locator Locator
	rings   RingEnsurer
	metrics *observability.Metrics

	mu          sync.RWMutex
	state       State
	view        mapview.MapView
	viewport    model.ViewportState
	location    *model.GeoPoint
	subscribers []func(model.ViewportState)
	fixDone     chan struct{}
}

// NewController creates an unmounted controller. locator may be nil when no
// location capability is available.
func NewController(opts Options, factory mapview.Factory, locator Locator, rings RingEnsurer, metrics *observability.Metrics) *Controller {
	return &Controller{
		opts:     opts,
		factory:  factory,
		locator:  locator,
		rings:    rings,
		metrics:  metrics,
		state:    StateUninitialized,
		viewport: model.ViewportState{
			Longitude: opts.DefaultCenter.Longitude,
			Latitude:  opts.DefaultCenter.Latitude,
			Zoom:      opts.DefaultZoom,
		},
		fixDone: make(chan struct{}),
	}
}

// Mount creates the map view at the default viewport, wires the move listener
// and starts the one location request. It may succeed only once.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}

	view, err := c.factory.Create(mapview.Options{
		Container:   c.opts.Container,
		Style:       c.opts.Style,
		AccessToken: c.opts.AccessToken,
		Center:      c.opts.DefaultCenter,
		Zoom:        c.opts.DefaultZoom,
	})
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to create map view: %w", err)
	}

	view.AddControl(mapview.NavigationControl, "top-right")
	c.view = view
	c.state = StateNoFix
	c.mu.Unlock()

	view.OnMove(c.handleMove)

	if c.locator == nil {
		log.Println("Location access denied: no location capability")
		return nil
	}

	results := c.locator.Acquire(ctx)
	go func() {
		if point, ok := <-results; ok {
			c.HandleLocation(point)
		}
	}()

	return nil
}

// handleMove normalises a move event into viewport state, last write wins
func (c *Controller) handleMove(center model.GeoPoint, zoom float64) {
	state := model.ViewportState{
		Longitude: round(center.Longitude, 4),
		Latitude:  round(center.Latitude, 4),
		Zoom:      round(zoom, 2),
	}

	c.mu.Lock()
	c.viewport = state
	subscribers := make([]func(model.ViewportState), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	c.metrics.ViewportMoved()
	for _, fn := range subscribers {
		fn(state)
	}
}

// HandleLocation applies the first location fix: recenters, zooms, drops the
// user marker and materialises every ring. Returns false if point is nil or a
// fix was already applied.
func (c *Controller) HandleLocation(point *model.GeoPoint) bool {
	if point == nil {
		return false
	}

	c.mu.Lock()
	if c.state != StateNoFix {
		c.mu.Unlock()
		return false
	}
	fix := *point
	c.state = StateFixed
	c.location = &fix
	view := c.view
	c.mu.Unlock()
	defer close(c.fixDone)

	if !view.Ready() {
		log.Println("Map view not ready, skipping recenter")
		return true
	}

	view.SetCenter(fix)
	view.SetZoom(c.opts.FixZoom)

	if err := view.AddMarker(mapview.Marker{
		Position:  fix,
		Color:     UserMarkerColor,
		PopupHTML: UserMarkerPopup,
	}); err != nil {
		log.Printf("Failed to add user marker: %v", err)
	}

	for _, ring := range c.opts.Rings {
		c.rings.EnsureRing(view, fix, ring)
	}

	log.Printf("Location fix applied at lng=%.4f lat=%.4f, ensured %d rings", fix.Longitude, fix.Latitude, len(c.opts.Rings))
	return true
}

// Subscribe registers fn to receive every viewport update
func (c *Controller) Subscribe(fn func(model.ViewportState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// FixApplied is closed once the location fix has been fully applied
func (c *Controller) FixApplied() <-chan struct{} {
	return c.fixDone
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Viewport() model.ViewportState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport
}

// UserLocation returns the fixed location, or nil before the fix
func (c *Controller) UserLocation() *model.GeoPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.location == nil {
		return nil
	}
	p := *c.location
	return &p
}

// View returns the mounted map view, or nil before Mount
func (c *Controller) View() mapview.MapView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
