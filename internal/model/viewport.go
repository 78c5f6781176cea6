package model

// ViewportState mirrors the live map view readouts
type ViewportState struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Zoom      float64 `json:"zoom"`
}

// Center returns the viewport centre as a point
func (v ViewportState) Center() GeoPoint {
	return GeoPoint{Longitude: v.Longitude, Latitude: v.Latitude}
}
