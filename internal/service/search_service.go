package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"

	"github.com/jintaekimmm/cn-bis/internal/geo"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

const (
	// DefaultRadiusMeters is the proximity radius used when a query leaves it unset.
	DefaultRadiusMeters = 150.0
	// DefaultDistrict scopes destination queries when the caller names none.
	DefaultDistrict = "성동구"
)

// ProximityQuery asks for stations around a point. A zero Radius selects the
// service default. Extended also searches stops known only from route data.
type ProximityQuery struct {
	Latitude  float64 `form:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `form:"lon" validate:"gte=-180,lte=180"`
	Radius    float64 `form:"radius" validate:"gt=0,lte=50000"`
	Extended  bool    `form:"extend"`
}

// TextQuery searches station names and route names at once.
type TextQuery struct {
	Text string `form:"query" validate:"notblank"`
}

// DestinationQuery names a destination station (substring) inside a district.
type DestinationQuery struct {
	Destination string `form:"dest" validate:"notblank"`
	District    string `form:"district"`
}

// RouteQuery names one route exactly, scoped to a district.
type RouteQuery struct {
	RouteName string `form:"node" validate:"notblank"`
	District  string `form:"district"`
}

// SearchResult is the combined answer of a text search.
type SearchResult struct {
	Stations []transit.StationResult `json:"bus_station"`
	Routes   []transit.RouteTree     `json:"bus_route"`
}

// SearchService is the entry point for every station and route query. It
// validates queries, runs the lookups, merges and assembles the results.
type SearchService struct {
	locator  *StationLocator
	resolver *DestinationResolver
	validate *validator.Validate
	logger   *zap.Logger

	defaultRadius   float64
	defaultDistrict string
}

// Option configures a SearchService.
type Option func(*SearchService)

// WithLogger sets the logger used to report failed queries.
func WithLogger(l *zap.Logger) Option {
	return func(s *SearchService) { s.logger = l }
}

// WithDefaultRadius sets the radius used when a ProximityQuery leaves it zero.
func WithDefaultRadius(meters float64) Option {
	return func(s *SearchService) { s.defaultRadius = meters }
}

// WithDefaultDistrict sets the district used when a query leaves it empty.
func WithDefaultDistrict(name string) Option {
	return func(s *SearchService) { s.defaultDistrict = name }
}

// NewSearchService creates a SearchService.
func NewSearchService(locator *StationLocator, resolver *DestinationResolver, opts ...Option) *SearchService {
	s := &SearchService{
		locator:         locator,
		resolver:        resolver,
		validate:        newValidator(),
		logger:          zap.NewNop(),
		defaultRadius:   DefaultRadiusMeters,
		defaultDistrict: DefaultDistrict,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StationsNear returns the stations within the query radius. With Extended
// set, route stops are merged in by ars_id and win on collision.
func (s *SearchService) StationsNear(ctx context.Context, q ProximityQuery) ([]transit.StationResult, error) {
	if q.Radius == 0 {
		q.Radius = s.defaultRadius
	}
	if err := s.check(q); err != nil {
		return nil, err
	}

	origin := geo.Location{Latitude: q.Latitude, Longitude: q.Longitude}
	stations, err := s.locator.FindStationsNear(ctx, origin, q.Radius)
	if err != nil {
		return nil, s.fail("StationsNear", err, zap.Stringer("origin", origin), zap.Float64("radius", q.Radius))
	}
	if !q.Extended {
		return stations, nil
	}

	extra, err := s.locator.FindRouteStopsNear(ctx, origin, q.Radius)
	if err != nil {
		return nil, s.fail("StationsNear", err, zap.Stringer("origin", origin), zap.Float64("radius", q.Radius), zap.Bool("extend", true))
	}
	return transit.MergeStations(stations, extra), nil
}

// Search matches q.Text against station names and route names. Stations from
// the registry and from route data are merged by ars_id and sorted by name;
// routes come back as one tree per route name.
func (s *SearchService) Search(ctx context.Context, q TextQuery) (*SearchResult, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}

	stations, err := s.locator.FindStationsByName(ctx, q.Text)
	if err != nil {
		return nil, s.fail("Search", err, zap.String("query", q.Text))
	}
	stops, err := s.locator.FindRouteStopsByStationName(ctx, q.Text)
	if err != nil {
		return nil, s.fail("Search", err, zap.String("query", q.Text))
	}
	routes, err := s.locator.FindRouteStopsByRouteName(ctx, q.Text)
	if err != nil {
		return nil, s.fail("Search", err, zap.String("query", q.Text))
	}

	merged := transit.MergeStations(stations, stops)
	transit.SortStationsByName(merged)
	transit.SortRouteStops(routes)

	return &SearchResult{
		Stations: merged,
		Routes:   transit.GroupRoutes(routes),
	}, nil
}

// RoutesToDestination returns, per matched destination station, every route
// reaching it with all of its stops.
func (s *SearchService) RoutesToDestination(ctx context.Context, q DestinationQuery) ([]transit.StationRouteTree, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	district := s.district(q.District)

	rows, err := s.resolver.FindRoutesServingDestination(ctx, q.Destination, district)
	if err != nil {
		return nil, s.fail("RoutesToDestination", err, zap.String("dest", q.Destination), zap.String("district", district))
	}

	transit.SortDestinationRows(rows)
	return transit.GroupDestinations(rows), nil
}

// RouteNamesToDestination returns only the routes reaching the destination.
func (s *SearchService) RouteNamesToDestination(ctx context.Context, q DestinationQuery) ([]transit.RouteName, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	district := s.district(q.District)

	names, err := s.resolver.FindRouteNamesServingDestination(ctx, q.Destination, district)
	if err != nil {
		return nil, s.fail("RouteNamesToDestination", err, zap.String("dest", q.Destination), zap.String("district", district))
	}
	return names, nil
}

// RouteInDistrict returns the named route as a single tree. Stops is empty when
// the route does not exist or never enters the district.
func (s *SearchService) RouteInDistrict(ctx context.Context, q RouteQuery) (*transit.RouteTree, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	district := s.district(q.District)

	stops, err := s.resolver.FindRouteInDistrict(ctx, q.RouteName, district)
	if err != nil {
		return nil, s.fail("RouteInDistrict", err, zap.String("route_name", q.RouteName), zap.String("district", district))
	}

	tree := &transit.RouteTree{RouteName: q.RouteName, Stops: make([]transit.RouteStopResult, len(stops))}
	for i, st := range stops {
		tree.Stops[i] = st.Result()
	}
	return tree, nil
}

func (s *SearchService) district(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return s.defaultDistrict
}

// fail logs a store failure with its query context and wraps it.
func (s *SearchService) fail(op string, err error, fields ...zap.Field) error {
	s.logger.Error("query failed", append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return &QueryError{Op: op, Err: err}
}

// check validates q and converts the first failure into a ValidationError.
func (s *SearchService) check(q any) error {
	err := s.validate.Struct(q)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "query", Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

// newValidator reports fields by their query parameter names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("form"), ","); name != "" {
			return name
		}
		return f.Name
	})
	return v
}
