package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jintaekimmm/cn-bis/internal/geo"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

// queryTimeout is applied to every database query.
const queryTimeout = 5 * time.Second

// originSQL is the query origin; callers bind $1 = longitude, $2 = latitude.
var originSQL = fmt.Sprintf("ST_SetSRID(ST_MakePoint($1, $2), %d)", geo.SRID)

// districtJoinSQL restricts the route stop alias b to the district named by $2.
const districtJoinSQL = `JOIN hang_jeong_gu h
		  ON h.sig_kor_name = $2
		 AND ST_Contains(h.geometry, b.location)`

// proximitySQL renders the buffer predicate for col. The radius is bound as $3
// and must be converted with proximityRadius.
func proximitySQL(mode geo.Proximity, col string) string {
	if mode == geo.Geodesic {
		return fmt.Sprintf("ST_DWithin(%s::geography, %s::geography, $3)", col, originSQL)
	}
	return fmt.Sprintf("ST_Contains(ST_Buffer(%s, $3), %s)", originSQL, col)
}

// proximityRadius converts radiusMeters into the unit proximitySQL expects:
// meters on geography, degrees on the SRID 4326 geometry.
func proximityRadius(mode geo.Proximity, radiusMeters float64) float64 {
	if mode == geo.Geodesic {
		return radiusMeters
	}
	return geo.DegreesFromMeters(radiusMeters)
}

// ---------------------------------------------------------------------------
// StationsRepository
// ---------------------------------------------------------------------------

// pgStationsRepository is the pgx-backed implementation of StationsRepository.
type pgStationsRepository struct {
	pool      *pgxpool.Pool
	proximity geo.Proximity
}

// NewStationsRepository creates a StationsRepository backed by the given pool.
func NewStationsRepository(pool *pgxpool.Pool, proximity geo.Proximity) StationsRepository {
	return &pgStationsRepository{pool: pool, proximity: proximity}
}

func (r *pgStationsRepository) FindStationsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.Station, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT node_id, node_name, mobile_id, ST_AsText(location) AS geom,
		       COALESCE(city_code, 0), COALESCE(city_name, ''), COALESCE(admin_name, '')
		FROM bus_station
		WHERE `+proximitySQL(r.proximity, "location")+`
		ORDER BY ST_Distance(location, `+originSQL+`), mobile_id`,
		origin.Longitude, origin.Latitude, proximityRadius(r.proximity, radiusMeters))
	if err != nil {
		return nil, fmt.Errorf("storage: FindStationsNear: %w", err)
	}
	stations, err := scanStations(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: FindStationsNear: %w", err)
	}
	return stations, nil
}

func (r *pgStationsRepository) FindStationsByName(ctx context.Context, text string) ([]transit.Station, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT node_id, node_name, mobile_id, ST_AsText(location) AS geom,
		       COALESCE(city_code, 0), COALESCE(city_name, ''), COALESCE(admin_name, '')
		FROM bus_station
		WHERE strpos(node_name, $1) > 0
		ORDER BY node_name, mobile_id`, text)
	if err != nil {
		return nil, fmt.Errorf("storage: FindStationsByName: %w", err)
	}
	stations, err := scanStations(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: FindStationsByName: %w", err)
	}
	return stations, nil
}

func scanStations(rows pgx.Rows) ([]transit.Station, error) {
	defer rows.Close()

	stations := make([]transit.Station, 0)
	for rows.Next() {
		var s transit.Station
		var geom *string
		if err := rows.Scan(&s.NodeID, &s.NodeName, &s.MobileID, &geom, &s.CityCode, &s.CityName, &s.AdminName); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		loc, err := locationFromWKT(geom)
		if err != nil {
			return nil, fmt.Errorf("station mobile_id=%d: %w", s.MobileID, err)
		}
		s.Location = loc
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// ---------------------------------------------------------------------------
// RouteStopsRepository
// ---------------------------------------------------------------------------

// pgRouteStopsRepository is the pgx-backed implementation of RouteStopsRepository.
type pgRouteStopsRepository struct {
	pool      *pgxpool.Pool
	proximity geo.Proximity
}

// NewRouteStopsRepository creates a RouteStopsRepository backed by the given pool.
func NewRouteStopsRepository(pool *pgxpool.Pool, proximity geo.Proximity) RouteStopsRepository {
	return &pgRouteStopsRepository{pool: pool, proximity: proximity}
}

func (r *pgRouteStopsRepository) FindRouteStopsNear(ctx context.Context, origin geo.Location, radiusMeters float64) ([]transit.RouteStop, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT ars_id, station_name, ST_AsText(location) AS geom
		FROM bus_route
		WHERE `+proximitySQL(r.proximity, "location")+`
		GROUP BY ars_id, station_name, location
		ORDER BY ST_Distance(location, `+originSQL+`), ars_id`,
		origin.Longitude, origin.Latitude, proximityRadius(r.proximity, radiusMeters))
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteStopsNear: %w", err)
	}
	stops, err := scanStationStops(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteStopsNear: %w", err)
	}
	return stops, nil
}

func (r *pgRouteStopsRepository) FindRouteStopsByStationName(ctx context.Context, text string) ([]transit.RouteStop, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT ars_id, station_name, ST_AsText(location) AS geom
		FROM bus_route
		WHERE strpos(station_name, $1) > 0
		GROUP BY ars_id, station_name, location
		ORDER BY station_name, ars_id`, text)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteStopsByStationName: %w", err)
	}
	stops, err := scanStationStops(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteStopsByStationName: %w", err)
	}
	return stops, nil
}

func (r *pgRouteStopsRepository) FindRouteStopsByRouteName(ctx context.Context, text string) ([]transit.RouteStop, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT route_id, route_name, route_order, node_id, ars_id, station_name, ST_AsText(location) AS geom
		FROM bus_route
		WHERE strpos(route_name, $1) > 0
		ORDER BY route_name, route_order`, text)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteStopsByRouteName: %w", err)
	}
	stops, err := scanRouteStops(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteStopsByRouteName: %w", err)
	}
	return stops, nil
}

func (r *pgRouteStopsRepository) FindDestinationPairs(ctx context.Context, dest, district string) ([]transit.DestinationPair, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// Joined on route_name, not route_id: routes sharing a display name merge.
	rows, err := r.pool.Query(ctx, `
		SELECT a.route_id, a.route_name, a.route_order, a.node_id, a.ars_id, a.station_name,
		       ST_AsText(a.location) AS geom,
		       b.ars_id, b.station_name
		FROM bus_route b
		`+districtJoinSQL+`
		JOIN bus_route a ON a.route_name = b.route_name
		WHERE strpos(b.station_name, $1) > 0
		ORDER BY b.station_name, a.route_name, a.route_order`, dest, district)
	if err != nil {
		return nil, fmt.Errorf("storage: FindDestinationPairs: %w", err)
	}
	defer rows.Close()

	pairs := make([]transit.DestinationPair, 0)
	for rows.Next() {
		var p transit.DestinationPair
		var geom *string
		if err := rows.Scan(
			&p.Stop.RouteID, &p.Stop.RouteName, &p.Stop.RouteOrder, &p.Stop.NodeID,
			&p.Stop.ArsID, &p.Stop.StationName, &geom,
			&p.DestArsID, &p.DestStationName,
		); err != nil {
			return nil, fmt.Errorf("storage: FindDestinationPairs: scan: %w", err)
		}
		loc, err := locationFromWKT(geom)
		if err != nil {
			return nil, fmt.Errorf("storage: FindDestinationPairs: route %q order %d: %w", p.Stop.RouteName, p.Stop.RouteOrder, err)
		}
		p.Stop.Location = loc
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: FindDestinationPairs: rows: %w", err)
	}
	return pairs, nil
}

func (r *pgRouteStopsRepository) FindRouteNamesByDestination(ctx context.Context, dest, district string) ([]transit.RouteName, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT b.route_id, b.route_name
		FROM bus_route b
		`+districtJoinSQL+`
		WHERE strpos(b.station_name, $1) > 0
		ORDER BY b.route_name, b.route_id`, dest, district)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteNamesByDestination: %w", err)
	}
	defer rows.Close()

	names := make([]transit.RouteName, 0)
	for rows.Next() {
		var n transit.RouteName
		if err := rows.Scan(&n.RouteID, &n.RouteName); err != nil {
			return nil, fmt.Errorf("storage: FindRouteNamesByDestination: scan: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: FindRouteNamesByDestination: rows: %w", err)
	}
	return names, nil
}

func (r *pgRouteStopsRepository) FindRouteInDistrict(ctx context.Context, routeName, district string) ([]transit.RouteStop, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT a.route_id, a.route_name, a.route_order, a.node_id, a.ars_id, a.station_name,
		       ST_AsText(a.location) AS geom
		FROM bus_route a
		WHERE a.route_name = $1
		  AND EXISTS (
		      SELECT 1
		      FROM bus_route b
		      `+districtJoinSQL+`
		      WHERE b.route_name = a.route_name
		  )
		ORDER BY a.route_order`, routeName, district)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteInDistrict: %w", err)
	}
	stops, err := scanRouteStops(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: FindRouteInDistrict: %w", err)
	}
	return stops, nil
}

// scanStationStops reads (ars_id, station_name, geom) rows.
func scanStationStops(rows pgx.Rows) ([]transit.RouteStop, error) {
	defer rows.Close()

	stops := make([]transit.RouteStop, 0)
	for rows.Next() {
		var s transit.RouteStop
		var geom *string
		if err := rows.Scan(&s.ArsID, &s.StationName, &geom); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		loc, err := locationFromWKT(geom)
		if err != nil {
			return nil, fmt.Errorf("route stop ars_id=%d: %w", s.ArsID, err)
		}
		s.Location = loc
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// scanRouteStops reads full route stop rows.
func scanRouteStops(rows pgx.Rows) ([]transit.RouteStop, error) {
	defer rows.Close()

	stops := make([]transit.RouteStop, 0)
	for rows.Next() {
		var s transit.RouteStop
		var geom *string
		if err := rows.Scan(&s.RouteID, &s.RouteName, &s.RouteOrder, &s.NodeID, &s.ArsID, &s.StationName, &geom); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		loc, err := locationFromWKT(geom)
		if err != nil {
			return nil, fmt.Errorf("route %q order %d: %w", s.RouteName, s.RouteOrder, err)
		}
		s.Location = loc
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// locationFromWKT converts a nullable ST_AsText result into a Location.
func locationFromWKT(geom *string) (geo.Location, error) {
	if geom == nil {
		return geo.Location{}, fmt.Errorf("NULL geometry (data integrity issue)")
	}
	lat, lon, err := parsePointWKT(*geom)
	if err != nil {
		return geo.Location{}, err
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

// parsePointWKT parses a WKT POINT string into (lat, lon).
// PostGIS ST_AsText(GEOMETRY(POINT, 4326)) returns "POINT(lon lat)".
func parsePointWKT(wkt string) (lat, lon float64, err error) {
	wkt = strings.TrimSpace(wkt)
	if !strings.HasPrefix(wkt, "POINT(") || !strings.HasSuffix(wkt, ")") {
		return 0, 0, fmt.Errorf("unexpected WKT format: %q", wkt)
	}

	inner := wkt[len("POINT(") : len(wkt)-1]
	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected WKT coordinates: %q", inner)
	}

	lon, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lon %q: %w", parts[0], err)
	}

	lat, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lat %q: %w", parts[1], err)
	}

	return lat, lon, nil
}
