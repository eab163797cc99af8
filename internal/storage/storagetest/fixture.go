// Package storagetest provides a small in-memory transit dataset for tests.
package storagetest

import (
	"github.com/jintaekimmm/cn-bis/internal/geo"
	"github.com/jintaekimmm/cn-bis/internal/storage"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

// District names used by Dataset.
const (
	Seongdong = "성동구"
	Junggu    = "중구"
)

// CityHall is the location of the only registry station near the square's centre.
var CityHall = geo.Location{Latitude: 37.50, Longitude: 127.00}

// Dataset returns a fresh copy of the fixture:
//
//   - stations: City Hall (ars 1) at CityHall, two stations far away;
//   - route R1: A (ars 10), B(dest) (ars 20), both inside 성동구;
//   - route R2: B(dest) (ars 30) inside 성동구;
//   - route R3: B(dest) West (ars 40) inside 중구;
//   - route R4: City Hall Stop (ars 1) at CityHall, then Ttukseom (ars 50).
func Dataset() storage.Dataset {
	return storage.Dataset{
		Stations: []transit.Station{
			{NodeID: "SDB001", NodeName: "City Hall", MobileID: 1, Location: CityHall, CityCode: 11, CityName: "Seoul"},
			{NodeID: "SDB002", NodeName: "Wangsimni Station", MobileID: 2, Location: geo.Location{Latitude: 37.5612, Longitude: 127.0371}},
			{NodeID: "SDB003", NodeName: "Seongsu Station", MobileID: 3, Location: geo.Location{Latitude: 37.5445, Longitude: 127.0559}},
		},
		RouteStops: []transit.RouteStop{
			// Deliberately not in route order.
			{RouteID: 100, RouteName: "R1", RouteOrder: 2, NodeID: 1002, ArsID: 20, StationName: "B(dest)", Location: geo.Location{Latitude: 37.505, Longitude: 127.005}},
			{RouteID: 100, RouteName: "R1", RouteOrder: 1, NodeID: 1001, ArsID: 10, StationName: "A", Location: geo.Location{Latitude: 37.495, Longitude: 126.995}},
			{RouteID: 200, RouteName: "R2", RouteOrder: 1, NodeID: 2001, ArsID: 30, StationName: "B(dest)", Location: geo.Location{Latitude: 37.506, Longitude: 127.006}},
			{RouteID: 300, RouteName: "R3", RouteOrder: 1, NodeID: 3001, ArsID: 40, StationName: "B(dest) West", Location: geo.Location{Latitude: 37.56, Longitude: 126.975}},
			{RouteID: 400, RouteName: "R4", RouteOrder: 1, NodeID: 4001, ArsID: 1, StationName: "City Hall Stop", Location: CityHall},
			{RouteID: 400, RouteName: "R4", RouteOrder: 2, NodeID: 4002, ArsID: 50, StationName: "Ttukseom", Location: geo.Location{Latitude: 37.5472, Longitude: 127.0474}},
		},
		Districts: []*geo.Boundary{
			square(Seongdong, 37.49, 126.99, 37.51, 127.01),
			junggu(),
		},
	}
}

// Store returns a planar MemoryStore over Dataset.
func Store() *storage.MemoryStore {
	return storage.NewMemoryStore(Dataset(), geo.Planar)
}

// junggu is loaded from GeoJSON, the format district boundaries ship in.
func junggu() *geo.Boundary {
	b, err := geo.ParseBoundary(Junggu, `{
		"type": "Feature",
		"properties": {"SIG_KOR_NM": "중구"},
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[126.97, 37.55], [126.98, 37.55], [126.98, 37.57], [126.97, 37.57], [126.97, 37.55]]]
		}
	}`)
	if err != nil {
		panic(err)
	}
	return b
}

func square(name string, minLat, minLon, maxLat, maxLon float64) *geo.Boundary {
	b, err := geo.NewBoundary(name, []geo.Location{
		{Latitude: minLat, Longitude: minLon},
		{Latitude: minLat, Longitude: maxLon},
		{Latitude: maxLat, Longitude: maxLon},
		{Latitude: maxLat, Longitude: minLon},
		{Latitude: minLat, Longitude: minLon},
	})
	if err != nil {
		panic(err)
	}
	return b
}
