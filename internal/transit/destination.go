package transit

import (
	"cmp"
	"slices"
)

// TagDestinations turns self-join pairs into destination rows. A row is the
// destination when its stop is the matched stop itself. Duplicate rows are
// dropped, keeping the first occurrence.
func TagDestinations(pairs []DestinationPair) []DestinationRow {
	seen := make(map[DestinationRow]struct{}, len(pairs))
	rows := make([]DestinationRow, 0, len(pairs))

	for _, p := range pairs {
		row := DestinationRow{
			RouteName:       p.Stop.RouteName,
			RouteOrder:      p.Stop.RouteOrder,
			Location:        p.Stop.Location,
			StationName:     p.Stop.StationName,
			ArsID:           p.Stop.ArsID,
			DestArsID:       p.DestArsID,
			DestStationName: p.DestStationName,
			Destination:     p.Stop.ArsID == p.DestArsID,
		}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}
	return rows
}

// SortRouteStops orders rows by (route_name, route_order), the precondition
// of GroupRoutes.
func SortRouteStops(rows []RouteStop) {
	slices.SortStableFunc(rows, func(a, b RouteStop) int {
		return cmp.Or(
			cmp.Compare(a.RouteName, b.RouteName),
			cmp.Compare(a.RouteOrder, b.RouteOrder),
		)
	})
}

// SortDestinationRows orders rows by (dest_station_name, route_name,
// route_order), the precondition of GroupDestinations.
func SortDestinationRows(rows []DestinationRow) {
	slices.SortStableFunc(rows, func(a, b DestinationRow) int {
		return cmp.Or(
			cmp.Compare(a.DestStationName, b.DestStationName),
			cmp.Compare(a.RouteName, b.RouteName),
			cmp.Compare(a.RouteOrder, b.RouteOrder),
		)
	})
}
