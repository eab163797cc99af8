package service

import (
	"context"

	"github.com/jintaekimmm/cn-bis/internal/geo"
	"github.com/jintaekimmm/cn-bis/internal/storage"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

// StationLocator finds stations and route stops by proximity or by name.
// Repository errors are returned unchanged; an empty result is not an error.
type StationLocator struct {
	stations storage.StationsRepository
	stops    storage.RouteStopsRepository
}

// NewStationLocator creates a StationLocator over the two read repositories.
func NewStationLocator(stations storage.StationsRepository, stops storage.RouteStopsRepository) *StationLocator {
	return &StationLocator{stations: stations, stops: stops}
}

// FindStationsNear returns registry stations within radiusMeters of origin.
func (l *StationLocator) FindStationsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.StationResult, error) {
	rows, err := l.stations.FindStationsNear(ctx, origin, radiusMeters)
	if err != nil {
		return nil, err
	}
	return stationResults(rows), nil
}

// FindRouteStopsNear returns route stops within radiusMeters of origin, one per
// physical stop. It covers stops missing from the registry.
func (l *StationLocator) FindRouteStopsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.StationResult, error) {
	rows, err := l.stops.FindRouteStopsNear(ctx, origin, radiusMeters)
	if err != nil {
		return nil, err
	}
	return stopResults(rows), nil
}

func (l *StationLocator) FindStationsByName(ctx context.Context, text string) ([]transit.StationResult, error) {
	rows, err := l.stations.FindStationsByName(ctx, text)
	if err != nil {
		return nil, err
	}
	return stationResults(rows), nil
}

func (l *StationLocator) FindRouteStopsByStationName(ctx context.Context, text string) ([]transit.StationResult, error) {
	rows, err := l.stops.FindRouteStopsByStationName(ctx, text)
	if err != nil {
		return nil, err
	}
	return stopResults(rows), nil
}

// FindRouteStopsByRouteName returns flat stop rows of every route whose name
// contains text, ordered by route name then route order.
func (l *StationLocator) FindRouteStopsByRouteName(ctx context.Context, text string) ([]transit.RouteStop, error) {
	return l.stops.FindRouteStopsByRouteName(ctx, text)
}

func stationResults(rows []transit.Station) []transit.StationResult {
	out := make([]transit.StationResult, len(rows))
	for i, s := range rows {
		out[i] = s.Result()
	}
	return out
}

func stopResults(rows []transit.RouteStop) []transit.StationResult {
	out := make([]transit.StationResult, len(rows))
	for i, s := range rows {
		out[i] = s.StationResult()
	}
	return out
}
