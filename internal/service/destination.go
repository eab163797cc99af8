package service

import (
	"context"

	"github.com/jintaekimmm/cn-bis/internal/storage"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

// DestinationResolver answers "which routes reach a destination inside a
// district". Routes are related by route_name, not route_id.
type DestinationResolver struct {
	stops storage.RouteStopsRepository
}

// NewDestinationResolver creates a DestinationResolver.
func NewDestinationResolver(stops storage.RouteStopsRepository) *DestinationResolver {
	return &DestinationResolver{stops: stops}
}

// FindRoutesServingDestination returns every stop of every route that visits a
// stop named like dest inside district. Rows for the matched stop itself carry
// Destination = true. Rows are unique and keep the store's order.
func (r *DestinationResolver) FindRoutesServingDestination(ctx context.Context, dest, district string) ([]transit.DestinationRow, error) {
	pairs, err := r.stops.FindDestinationPairs(ctx, dest, district)
	if err != nil {
		return nil, err
	}
	return transit.TagDestinations(pairs), nil
}

// FindRouteNamesServingDestination returns only the distinct routes.
func (r *DestinationResolver) FindRouteNamesServingDestination(ctx context.Context, dest, district string) ([]transit.RouteName, error) {
	return r.stops.FindRouteNamesByDestination(ctx, dest, district)
}

// FindRouteInDistrict returns the stops of routeName in order, provided the
// route touches district.
func (r *DestinationResolver) FindRouteInDistrict(ctx context.Context, routeName, district string) ([]transit.RouteStop, error) {
	return r.stops.FindRouteInDistrict(ctx, routeName, district)
}
