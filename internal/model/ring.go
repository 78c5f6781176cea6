package model

import (
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"
)

// ColorToken selects the line colour of an alert ring
type ColorToken string

const (
	ColorHigh   ColorToken = "high"
	ColorMedium ColorToken = "medium"
	ColorLow    ColorToken = "low"
)

// Hex returns the CSS colour used to draw the ring
func (c ColorToken) Hex() string {
	switch c {
	case ColorHigh:
		return "#EF4444" // red
	case ColorMedium:
		return "#F97316" // orange
	case ColorLow:
		return "#EAB308" // yellow
	default:
		return "#9CA3AF"
	}
}

// RiskLabel is the legend text for the colour
func (c ColorToken) RiskLabel() string {
	switch c {
	case ColorHigh:
		return "High Risk"
	case ColorMedium:
		return "Medium Risk"
	case ColorLow:
		return "Low Risk"
	default:
		return "Unknown Risk"
	}
}

// RingSpec is one configured alert zone
type RingSpec struct {
	DistanceMiles float64    `json:"distance_miles"`
	Color         ColorToken `json:"color"`
}

// distanceLabel formats the distance without trailing zeros (10, 12.5)
func (r RingSpec) distanceLabel() string {
	return strconv.FormatFloat(r.DistanceMiles, 'f', -1, 64)
}

// SourceID is the identity key of the ring, shared by its source and layer
func (r RingSpec) SourceID() string {
	return "distance-ring-" + r.distanceLabel()
}

// LayerID names the line layer drawn from the ring source
func (r RingSpec) LayerID() string {
	return "distance-ring-layer-" + r.distanceLabel()
}

// Legend returns the legend entry, e.g. "10 miles - High Risk"
func (r RingSpec) Legend() string {
	return r.distanceLabel() + " miles - " + r.Color.RiskLabel()
}

// LineStyle holds the paint properties of a ring layer
type LineStyle struct {
	Color   string  `json:"line-color"`
	Width   float64 `json:"line-width"`
	Opacity float64 `json:"line-opacity"`
}

// OverlayRecord is a materialised ring overlay. Never updated in place.
type OverlayRecord struct {
	Key       string           `json:"key"`
	LayerID   string           `json:"layer_id"`
	Ring      RingSpec         `json:"ring"`
	Center    GeoPoint         `json:"center"`
	Polygon   CirclePolygon    `json:"-"`
	Feature   *geojson.Feature `json:"-"`
	Style     LineStyle        `json:"style"`
	CreatedAt time.Time        `json:"created_at"`
}
