package config

import (
	"fmt"

	"lightningtracker/internal/model"
)

const (
	DefaultMapStyle  = "mapbox://styles/mapbox/dark-v11" // dark theme for lightning visibility
	DefaultZoom      = 4.0
	FixZoom          = 8.0
	DefaultContainer = "map"
)

// DefaultCenter is the continental-US centroid
var DefaultCenter = model.NewGeoPoint(-98.5795, 39.8283)

// AlertZones are the static lightning alert rings, nearest first
var AlertZones = []model.RingSpec{
	{DistanceMiles: 10, Color: model.ColorHigh},
	{DistanceMiles: 20, Color: model.ColorMedium},
	{DistanceMiles: 30, Color: model.ColorLow},
}

// ValidateRings checks that distances are positive and strictly increasing
// and that every ring has a colour
func ValidateRings(rings []model.RingSpec) error {
	if len(rings) == 0 {
		return fmt.Errorf("no alert rings configured")
	}
	prev := 0.0
	for i, ring := range rings {
		if ring.DistanceMiles <= prev {
			return fmt.Errorf("ring %d: distance %v must be positive and greater than %v", i, ring.DistanceMiles, prev)
		}
		if ring.Color == "" {
			return fmt.Errorf("ring %d: missing colour", i)
		}
		prev = ring.DistanceMiles
	}
	return nil
}
