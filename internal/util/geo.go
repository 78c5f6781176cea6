package util

import (
	"math"

	"lightningtracker/internal/model"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const (
	KilometersPerMile = 1.60934

	// MetersPerDegreeLatitude is treated as latitude independent
	MetersPerDegreeLatitude = 110540.0

	// MetersPerDegreeLongitudeAtEquator shrinks with cos(latitude)
	MetersPerDegreeLongitudeAtEquator = 111320.0

	// CircleSegments is the number of sampled angles per ring
	CircleSegments = 64

	earthRadiusMeters = 6371000.0
)

// MilesToMeters converts statute miles to meters (miles -> km -> m)
func MilesToMeters(miles float64) float64 {
	return miles * KilometersPerMile * 1000
}

// MetersToMiles is the inverse of MilesToMeters
func MetersToMiles(meters float64) float64 {
	return meters / 1000 / KilometersPerMile
}

// LongitudeMetersPerDegree returns the length of one degree of longitude at the given latitude.
// Meridians converge toward the poles, so the value is non-increasing in |latitude|.
func LongitudeMetersPerDegree(atLatitude float64) float64 {
	return MetersPerDegreeLongitudeAtEquator * math.Cos(atLatitude*math.Pi/180)
}

// MetersToDegreeOffsets converts a distance into longitude and latitude degree offsets.
// Near ±90° the longitude offset grows without bound (or becomes +Inf); it is not clamped.
func MetersToDegreeOffsets(meters, atLatitude float64) (lonDegrees, latDegrees float64) {
	lonDegrees = meters / LongitudeMetersPerDegree(atLatitude)
	latDegrees = meters / MetersPerDegreeLatitude
	return lonDegrees, latDegrees
}

// MilesToDegreeOffsets converts miles into longitude and latitude degree offsets
func MilesToDegreeOffsets(miles, atLatitude float64) (lonDegrees, latDegrees float64) {
	return MetersToDegreeOffsets(MilesToMeters(miles), atLatitude)
}

// GenerateCircle approximates a circle of radiusMeters around center.
// This is a planar small-angle approximation, fine for tens of miles and
// increasingly distorted at high latitudes or large radii.
func GenerateCircle(center model.GeoPoint, radiusMeters float64) model.CirclePolygon {
	distanceX, distanceY := MetersToDegreeOffsets(radiusMeters, center.Latitude)

	ring := make(orb.Ring, 0, CircleSegments+1)
	for i := 0; i < CircleSegments; i++ {
		theta := float64(i) / CircleSegments * (2 * math.Pi)
		x := distanceX * math.Cos(theta)
		y := distanceY * math.Sin(theta)
		ring = append(ring, orb.Point{center.Longitude + x, center.Latitude + y})
	}
	// Close the polygon
	ring = append(ring, ring[0])

	return model.CirclePolygon(ring)
}

// RadiusSpread measures the great-circle distance from center to every vertex
// and returns the minimum and maximum, showing how far the approximation drifts.
func RadiusSpread(center model.GeoPoint, circle model.CirclePolygon) (minMeters, maxMeters float64) {
	minMeters = math.Inf(1)
	for _, p := range circle {
		d := HaversineDistance(center.Latitude, center.Longitude, p.Lat(), p.Lon())
		minMeters = math.Min(minMeters, d)
		maxMeters = math.Max(maxMeters, d)
	}
	if len(circle) == 0 {
		minMeters = 0
	}
	return minMeters, maxMeters
}

// HaversineDistance returns the great-circle distance in meters
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	return angle.Radians() * earthRadiusMeters
}
