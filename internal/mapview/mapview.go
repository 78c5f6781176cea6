// Package mapview describes the map rendering surface consumed by the overlay
// engine, plus a headless in-memory implementation used by map sessions.
package mapview

import (
	"errors"

	"lightningtracker/internal/model"

	"github.com/paulmach/orb/geojson"
)

var (
	ErrMissingAccessToken = errors.New("map access token is not configured")
	ErrSourceExists       = errors.New("source already exists")
	ErrLayerExists        = errors.New("layer already exists")
	ErrUnknownSource      = errors.New("layer references unknown source")
	ErrRemoved            = errors.New("map view has been removed")
)

// Options are the map creation parameters. The access token is passed
// explicitly by the caller.
type Options struct {
	Container   string
	Style       string
	AccessToken string
	Center      model.GeoPoint
	Zoom        float64
}

// Control is a UI control attached to a map corner
type Control string

const (
	NavigationControl Control = "navigation"
)

// MoveListener receives the view centre and zoom after every move
type MoveListener func(center model.GeoPoint, zoom float64)

// Source is a named GeoJSON data source
type Source struct {
	ID   string
	Data *geojson.Feature
}

// Layer is a named visual layer bound to a source
type Layer struct {
	ID     string
	Type   string
	Source string
	Paint  model.LineStyle
}

// Marker is a point marker with an attached popup
type Marker struct {
	Position  model.GeoPoint
	Color     string
	PopupHTML string
}

// MapView is the map rendering capability
type MapView interface {
	// Ready reports whether the view can accept sources and layers
	Ready() bool
	AddControl(control Control, position string)

	Center() model.GeoPoint
	SetCenter(center model.GeoPoint)
	Zoom() float64
	SetZoom(zoom float64)
	// JumpTo applies a user pan/zoom as a single move
	JumpTo(center model.GeoPoint, zoom float64)
	OnMove(fn MoveListener) (unsubscribe func())

	GetSource(id string) (Source, bool)
	AddSource(src Source) error
	GetLayer(id string) (Layer, bool)
	AddLayer(layer Layer) error
	AddMarker(marker Marker) error

	// Remove destroys the view together with its sources, layers and markers
	Remove()
}

// Factory creates map views
type Factory interface {
	Create(opts Options) (MapView, error)
}
