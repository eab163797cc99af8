package geo

import (
	"fmt"
	"math"
	"strings"
)

// Proximity selects how "point within radius R of origin" is evaluated.
type Proximity int

const (
	// Planar buffers the origin in degree space, the way ST_Buffer does on a
	// SRID 4326 geometry. The metric radius is converted with MetersPerDegree,
	// which is an approximation at every latitude but the equator.
	Planar Proximity = iota

	// Geodesic measures great-circle distance in meters.
	Geodesic
)

// ParseProximity maps a configuration value onto a Proximity mode.
// The empty string selects Planar.
func ParseProximity(s string) (Proximity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "planar", "buffer":
		return Planar, nil
	case "geodesic", "geography":
		return Geodesic, nil
	default:
		return Planar, fmt.Errorf("geo: unknown proximity mode %q", s)
	}
}

func (p Proximity) String() string {
	switch p {
	case Planar:
		return "planar"
	case Geodesic:
		return "geodesic"
	default:
		return fmt.Sprintf("Proximity(%d)", int(p))
	}
}

// Within reports whether pt lies inside the buffer of radiusMeters around origin.
func (p Proximity) Within(origin, pt Location, radiusMeters float64) bool {
	if p == Geodesic {
		return DistanceMeters(origin, pt) <= radiusMeters
	}
	dx := pt.Longitude - origin.Longitude
	dy := pt.Latitude - origin.Latitude
	return math.Hypot(dx, dy) <= DegreesFromMeters(radiusMeters)
}
