// Package storage provides the read-only data access used by station and route
// queries, backed by PostGIS or by an in-memory dataset.
package storage

import (
	"context"

	"github.com/jintaekimmm/cn-bis/internal/geo"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

// StationsRepository defines read operations on the bus_station registry.
type StationsRepository interface {
	// FindStationsNear returns stations inside the buffer of radiusMeters
	// around origin, nearest first.
	FindStationsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.Station, error)

	// FindStationsByName returns stations whose node_name contains text
	// (case-sensitive), ordered by name.
	FindStationsByName(ctx context.Context, text string) ([]transit.Station, error)
}

// RouteStopsRepository defines read operations on the bus_route table and its
// spatial join with district boundaries.
type RouteStopsRepository interface {
	// FindRouteStopsNear returns route stops inside the buffer, collapsed to one
	// row per (ars_id, station_name, location). Route fields are left zero.
	FindRouteStopsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.RouteStop, error)

	// FindRouteStopsByStationName returns route stops whose station_name
	// contains text, collapsed like FindRouteStopsNear.
	FindRouteStopsByStationName(ctx context.Context, text string) ([]transit.RouteStop, error)

	// FindRouteStopsByRouteName returns every stop of the routes whose name
	// contains text, ordered by (route_name, route_order).
	FindRouteStopsByRouteName(ctx context.Context, text string) ([]transit.RouteStop, error)

	// FindDestinationPairs matches route stops whose station_name contains dest
	// and whose point lies inside district, then joins every stop sharing the
	// matched stop's route_name. Pairs are not deduplicated.
	FindDestinationPairs(ctx context.Context, dest, district string) ([]transit.DestinationPair, error)

	// FindRouteNamesByDestination returns the distinct routes visiting a stop
	// whose station_name contains dest inside district, ordered by name.
	FindRouteNamesByDestination(ctx context.Context, dest, district string) ([]transit.RouteName, error)

	// FindRouteInDistrict returns the stops of the route named routeName in
	// route order, or nothing when none of its stops lies inside district.
	FindRouteInDistrict(ctx context.Context, routeName, district string) ([]transit.RouteStop, error)
}
