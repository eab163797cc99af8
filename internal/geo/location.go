// Package geo holds the coordinate types and the containment predicates used
// to describe spatial queries. Geometry is always SRID 4326 (WGS-84 degrees).
package geo

import (
	"fmt"
	"math"
)

// SRID is the spatial reference id of every stored geometry.
const SRID = 4326

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6_371_000.0

// MetersPerDegree converts a metric radius into SRID 4326 degrees. It is the
// length of one degree of latitude; along longitude it is only exact at the
// equator, so planar buffers become ellipses away from it.
const MetersPerDegree = 111_320.0

// Location is a WGS-84 coordinate.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the location as "lat,lon".
func (l Location) String() string {
	return fmt.Sprintf("%g,%g", l.Latitude, l.Longitude)
}

// WKT returns the PostGIS point literal. X is longitude.
func (l Location) WKT() string {
	return fmt.Sprintf("POINT(%g %g)", l.Longitude, l.Latitude)
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DegreesFromMeters converts radiusMeters into a planar degree radius.
func DegreesFromMeters(radiusMeters float64) float64 {
	return radiusMeters / MetersPerDegree
}
