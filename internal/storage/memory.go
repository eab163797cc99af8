package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/jintaekimmm/cn-bis/internal/geo"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

// Dataset is a complete snapshot of the reference tables.
type Dataset struct {
	Stations   []transit.Station
	RouteStops []transit.RouteStop
	Districts  []*geo.Boundary
}

// MemoryStore answers the repository queries from an in-process Dataset. It
// mirrors the PostGIS queries row for row and is safe for concurrent use
// because the dataset is never mutated after construction.
type MemoryStore struct {
	data      Dataset
	proximity geo.Proximity
}

var (
	_ StationsRepository   = (*MemoryStore)(nil)
	_ RouteStopsRepository = (*MemoryStore)(nil)
)

// NewMemoryStore creates a MemoryStore over a copy of data.
func NewMemoryStore(data Dataset, proximity geo.Proximity) *MemoryStore {
	return &MemoryStore{
		data: Dataset{
			Stations:   slices.Clone(data.Stations),
			RouteStops: slices.Clone(data.RouteStops),
			Districts:  slices.Clone(data.Districts),
		},
		proximity: proximity,
	}
}

func (m *MemoryStore) FindStationsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]transit.Station, 0)
	for _, s := range m.data.Stations {
		if m.proximity.Within(origin, s.Location, radiusMeters) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b transit.Station) int {
		return cmp.Or(
			cmp.Compare(geo.DistanceMeters(origin, a.Location), geo.DistanceMeters(origin, b.Location)),
			cmp.Compare(a.MobileID, b.MobileID),
		)
	})
	return out, nil
}

func (m *MemoryStore) FindStationsByName(ctx context.Context, text string) ([]transit.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]transit.Station, 0)
	for _, s := range m.data.Stations {
		if strings.Contains(s.NodeName, text) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b transit.Station) int {
		return cmp.Or(cmp.Compare(a.NodeName, b.NodeName), cmp.Compare(a.MobileID, b.MobileID))
	})
	return out, nil
}

func (m *MemoryStore) FindRouteStopsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.RouteStop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := collapseStops(m.data.RouteStops, func(s transit.RouteStop) bool {
		return m.proximity.Within(origin, s.Location, radiusMeters)
	})
	slices.SortStableFunc(out, func(a, b transit.RouteStop) int {
		return cmp.Or(
			cmp.Compare(geo.DistanceMeters(origin, a.Location), geo.DistanceMeters(origin, b.Location)),
			cmp.Compare(a.ArsID, b.ArsID),
		)
	})
	return out, nil
}

func (m *MemoryStore) FindRouteStopsByStationName(ctx context.Context, text string) ([]transit.RouteStop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := collapseStops(m.data.RouteStops, func(s transit.RouteStop) bool {
		return strings.Contains(s.StationName, text)
	})
	slices.SortStableFunc(out, func(a, b transit.RouteStop) int {
		return cmp.Or(cmp.Compare(a.StationName, b.StationName), cmp.Compare(a.ArsID, b.ArsID))
	})
	return out, nil
}

func (m *MemoryStore) FindRouteStopsByRouteName(ctx context.Context, text string) ([]transit.RouteStop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]transit.RouteStop, 0)
	for _, s := range m.data.RouteStops {
		if strings.Contains(s.RouteName, text) {
			out = append(out, s)
		}
	}
	transit.SortRouteStops(out)
	return out, nil
}

func (m *MemoryStore) FindDestinationPairs(ctx context.Context, dest, district string) ([]transit.DestinationPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := m.matchInDistrict(dest, district)
	slices.SortStableFunc(matched, func(a, b transit.RouteStop) int {
		return cmp.Compare(a.StationName, b.StationName)
	})

	pairs := make([]transit.DestinationPair, 0)
	for _, b := range matched {
		route := make([]transit.RouteStop, 0)
		for _, a := range m.data.RouteStops {
			if a.RouteName == b.RouteName {
				route = append(route, a)
			}
		}
		transit.SortRouteStops(route)
		for _, a := range route {
			pairs = append(pairs, transit.DestinationPair{
				Stop:            a,
				DestArsID:       b.ArsID,
				DestStationName: b.StationName,
			})
		}
	}
	return pairs, nil
}

func (m *MemoryStore) FindRouteNamesByDestination(ctx context.Context, dest, district string) ([]transit.RouteName, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[transit.RouteName]struct{})
	names := make([]transit.RouteName, 0)
	for _, b := range m.matchInDistrict(dest, district) {
		n := transit.RouteName{RouteID: b.RouteID, RouteName: b.RouteName}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b transit.RouteName) int {
		return cmp.Or(cmp.Compare(a.RouteName, b.RouteName), cmp.Compare(a.RouteID, b.RouteID))
	})
	return names, nil
}

func (m *MemoryStore) FindRouteInDistrict(ctx context.Context, routeName, district string) ([]transit.RouteStop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boundary := m.district(district)
	route := make([]transit.RouteStop, 0)
	inside := false
	for _, s := range m.data.RouteStops {
		if s.RouteName != routeName {
			continue
		}
		route = append(route, s)
		if boundary.Contains(s.Location) {
			inside = true
		}
	}
	if !inside {
		return []transit.RouteStop{}, nil
	}
	transit.SortRouteStops(route)
	return route, nil
}

// matchInDistrict returns route stops whose station name contains dest and
// whose point lies inside the named district.
func (m *MemoryStore) matchInDistrict(dest, district string) []transit.RouteStop {
	boundary := m.district(district)
	if boundary == nil {
		return nil
	}

	var out []transit.RouteStop
	for _, s := range m.data.RouteStops {
		if strings.Contains(s.StationName, dest) && boundary.Contains(s.Location) {
			out = append(out, s)
		}
	}
	return out
}

func (m *MemoryStore) district(name string) *geo.Boundary {
	for _, d := range m.data.Districts {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// collapseStops keeps stops accepted by keep, one per (ars_id, station_name,
// location), with route fields cleared.
func collapseStops(stops []transit.RouteStop, keep func(transit.RouteStop) bool) []transit.RouteStop {
	type key struct {
		arsID int64
		name  string
		loc   geo.Location
	}

	seen := make(map[key]struct{})
	out := make([]transit.RouteStop, 0)
	for _, s := range stops {
		if !keep(s) {
			continue
		}
		k := key{s.ArsID, s.StationName, s.Location}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, transit.RouteStop{ArsID: s.ArsID, StationName: s.StationName, Location: s.Location})
	}
	return out
}
