// Package transit holds the bus station and route domain model together with
// the pure, store-independent steps of query assembly: keyed merging,
// destination tagging and sequential grouping of sorted rows.
package transit

import "github.com/jintaekimmm/cn-bis/internal/geo"

// Station is a row of the national bus station registry.
type Station struct {
	NodeID    string
	NodeName  string
	Location  geo.Location
	MobileID  int64 // public display id; exposed as ars_id
	CityCode  int64
	CityName  string
	AdminName string
}

// RouteStop is one occurrence of a stop on a named route. The same physical
// stop appears once per route that visits it.
type RouteStop struct {
	RouteID     int64
	RouteName   string
	RouteOrder  int
	NodeID      int64
	ArsID       int64
	StationName string
	Location    geo.Location
}

// StationResult is the flat station shape returned by proximity and text search.
type StationResult struct {
	Location    geo.Location `json:"location"`
	StationName string       `json:"station_name"`
	ArsID       int64        `json:"ars_id"`
}

// Result converts a registry station into its response shape.
func (s Station) Result() StationResult {
	return StationResult{Location: s.Location, StationName: s.NodeName, ArsID: s.MobileID}
}

// StationResult converts a route stop into the station response shape.
func (r RouteStop) StationResult() StationResult {
	return StationResult{Location: r.Location, StationName: r.StationName, ArsID: r.ArsID}
}

// RouteStopResult is a stop inside a RouteTree. Destination is only set for
// destination-filtered queries.
type RouteStopResult struct {
	Order       int          `json:"order"`
	ArsID       int64        `json:"ars_id"`
	StationName string       `json:"station_name"`
	Location    geo.Location `json:"location"`
	Destination *bool        `json:"destination,omitempty"`
}

// Result converts a route stop into a RouteStopResult without a destination flag.
func (r RouteStop) Result() RouteStopResult {
	return RouteStopResult{
		Order:       r.RouteOrder,
		ArsID:       r.ArsID,
		StationName: r.StationName,
		Location:    r.Location,
	}
}

// RouteTree is a route with its stops in visiting order.
type RouteTree struct {
	RouteName string            `json:"route_name"`
	Stops     []RouteStopResult `json:"route"`
}

// StationRouteTree groups the routes reaching one destination station.
type StationRouteTree struct {
	StationName string      `json:"station_name"`
	Routes      []RouteTree `json:"bus_route"`
}

// RouteName identifies a route by id and display name.
type RouteName struct {
	RouteID   int64  `json:"route_id"`
	RouteName string `json:"route_name"`
}

// DestinationPair is one row of the route self-join: Stop is any stop of a
// route that also visits the matched destination (DestArsID, DestStationName).
type DestinationPair struct {
	Stop            RouteStop
	DestArsID       int64
	DestStationName string
}

// DestinationRow is a tagged stop of a route serving a matched destination.
type DestinationRow struct {
	RouteName       string
	RouteOrder      int
	Location        geo.Location
	StationName     string
	ArsID           int64
	DestArsID       int64
	DestStationName string
	Destination     bool
}
