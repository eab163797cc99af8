package transit

// GroupRoutes folds rows sorted by (route_name, route_order) into one
// RouteTree per run of equal route names. It does not sort: a route name
// that appears in two separate runs yields two trees.
func GroupRoutes(rows []RouteStop) []RouteTree {
	trees := make([]RouteTree, 0)

	for _, r := range rows {
		if len(trees) == 0 || trees[len(trees)-1].RouteName != r.RouteName {
			trees = append(trees, RouteTree{RouteName: r.RouteName})
		}
		cur := &trees[len(trees)-1]
		cur.Stops = append(cur.Stops, r.Result())
	}

	return trees
}

// GroupDestinations folds rows sorted by (dest_station_name, route_name,
// route_order) into destination station trees. A new station tree starts when
// the destination name changes; inside it a new route starts when the route
// name differs from the last route of that tree.
func GroupDestinations(rows []DestinationRow) []StationRouteTree {
	trees := make([]StationRouteTree, 0)

	for _, r := range rows {
		if len(trees) == 0 || trees[len(trees)-1].StationName != r.DestStationName {
			trees = append(trees, StationRouteTree{StationName: r.DestStationName})
		}
		station := &trees[len(trees)-1]

		if len(station.Routes) == 0 || station.Routes[len(station.Routes)-1].RouteName != r.RouteName {
			station.Routes = append(station.Routes, RouteTree{RouteName: r.RouteName})
		}
		route := &station.Routes[len(station.Routes)-1]

		dest := r.Destination
		route.Stops = append(route.Stops, RouteStopResult{
			Order:       r.RouteOrder,
			ArsID:       r.ArsID,
			StationName: r.StationName,
			Location:    r.Location,
			Destination: &dest,
		})
	}

	return trees
}
