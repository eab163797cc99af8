package geo

import (
	"errors"
	"fmt"

	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
)

// Boundary is a named administrative polygon (a district).
type Boundary struct {
	Name  string
	shape geojson.Object
}

// ParseBoundary decodes a GeoJSON Polygon, MultiPolygon, Feature or
// FeatureCollection into a Boundary.
func ParseBoundary(name, data string) (*Boundary, error) {
	obj, err := geojson.Parse(data, &geojson.ParseOptions{RequireValid: true})
	if err != nil {
		return nil, fmt.Errorf("geo: parse boundary %q: %w", name, err)
	}
	return &Boundary{Name: name, shape: obj}, nil
}

// NewBoundary builds a Boundary from a closed exterior ring.
func NewBoundary(name string, ring []Location) (*Boundary, error) {
	if len(ring) < 4 {
		return nil, errors.New("geo: boundary ring needs at least 4 points")
	}
	if ring[0] != ring[len(ring)-1] {
		return nil, errors.New("geo: boundary ring is not closed")
	}
	pts := make([]geometry.Point, len(ring))
	for i, l := range ring {
		pts[i] = geometry.Point{X: l.Longitude, Y: l.Latitude}
	}
	poly := geometry.NewPoly(pts, nil, nil)
	return &Boundary{Name: name, shape: geojson.NewPolygon(poly)}, nil
}

// Contains reports whether l lies inside the boundary polygon.
func (b *Boundary) Contains(l Location) bool {
	if b == nil || b.shape == nil {
		return false
	}
	return b.shape.Contains(geojson.NewPoint(geometry.Point{X: l.Longitude, Y: l.Latitude}))
}

