package model

import (
	"github.com/paulmach/orb"
)

// GeoPoint is an immutable [lon, lat] coordinate in degrees
type GeoPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// NewGeoPoint builds a point from longitude and latitude
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Longitude: lng, Latitude: lat}
}

// Valid reports whether the point lies inside [-180,180] x [-90,90]
func (p GeoPoint) Valid() bool {
	return p.Longitude >= -180 && p.Longitude <= 180 &&
		p.Latitude >= -90 && p.Latitude <= 90
}

// Point converts to an orb point ([lon, lat] order, as GeoJSON expects)
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// GeoPointFromOrb converts an orb point back into a GeoPoint
func GeoPointFromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Longitude: p.Lon(), Latitude: p.Lat()}
}

// CirclePolygon is a closed ring approximating a circle on the map projection.
// It is produced once per (center, radius) and never mutated afterwards.
type CirclePolygon orb.Ring

// Ring returns the polygon as an orb ring
func (c CirclePolygon) Ring() orb.Ring {
	return orb.Ring(c)
}

// Polygon wraps the ring into a single-ring orb polygon
func (c CirclePolygon) Polygon() orb.Polygon {
	return orb.Polygon{orb.Ring(c)}
}

// Closed reports whether the first point is repeated as the last one
func (c CirclePolygon) Closed() bool {
	return len(c) > 1 && c[0] == c[len(c)-1]
}

// Points returns the ring vertices as GeoPoints
func (c CirclePolygon) Points() []GeoPoint {
	points := make([]GeoPoint, len(c))
	for i, p := range c {
		points[i] = GeoPointFromOrb(p)
	}
	return points
}
