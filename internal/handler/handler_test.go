package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jintaekimmm/cn-bis/internal/service"
	"github.com/jintaekimmm/cn-bis/internal/storage/storagetest"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

// failingSearcher returns err from every query and records the last query.
type failingSearcher struct {
	err       error
	proximity service.ProximityQuery
}

func (f *failingSearcher) StationsNear(_ context.Context, q service.ProximityQuery) ([]transit.StationResult, error) {
	f.proximity = q
	return nil, f.err
}

func (f *failingSearcher) Search(context.Context, service.TextQuery) (*service.SearchResult, error) {
	return nil, f.err
}

func (f *failingSearcher) RoutesToDestination(context.Context, service.DestinationQuery) ([]transit.StationRouteTree, error) {
	return nil, f.err
}

func (f *failingSearcher) RouteNamesToDestination(context.Context, service.DestinationQuery) ([]transit.RouteName, error) {
	return nil, f.err
}

func (f *failingSearcher) RouteInDistrict(context.Context, service.RouteQuery) (*transit.RouteTree, error) {
	return nil, f.err
}

func newRouter(s Searcher) *gin.Engine {
	r := gin.New()
	New(s).Register(r)
	return r
}

func newFixtureRouter() *gin.Engine {
	store := storagetest.Store()
	return newRouter(service.NewSearchService(
		service.NewStationLocator(store, store),
		service.NewDestinationResolver(store),
	))
}

func get(t *testing.T, r *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Field   string `json:"field"`
	} `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var body envelope[T]
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	r := newFixtureRouter()
	for _, path := range []string{"/", "/health"} {
		w := get(t, r, path)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, w.Code)
		}
		if body := decode[any](t, w); body.Message != "ok" {
			t.Errorf("%s: message = %q, want ok", path, body.Message)
		}
	}
}

// ---------------------------------------------------------------------------
// GET /v1/station/location
// ---------------------------------------------------------------------------

func TestStationsNear_OK(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v1/station/location?lat=37.50&lon=127.00")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	body := decode[[]transit.StationResult](t, w)
	if body.Message != "ok" {
		t.Errorf("message = %q, want ok", body.Message)
	}
	if len(body.Data) != 1 || body.Data[0].ArsID != 1 || body.Data[0].StationName != "City Hall" {
		t.Errorf("data = %+v, want City Hall (ars 1)", body.Data)
	}
	if body.Data[0].Location != storagetest.CityHall {
		t.Errorf("location = %+v, want %+v", body.Data[0].Location, storagetest.CityHall)
	}
}

func TestStationsNear_Extend(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v1/station/location?lat=37.50&lon=127.00&radius=150&extend=true")

	body := decode[[]transit.StationResult](t, w)
	if len(body.Data) != 1 || body.Data[0].StationName != "City Hall Stop" {
		t.Errorf("data = %+v, want the route stop to replace the registry entry", body.Data)
	}
}

func TestStationsNear_EmptyIsArray(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v1/station/location?lat=-12.04&lon=-77.04")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw.Data) != "[]" {
		t.Errorf("data = %s, want []", raw.Data)
	}
}

func TestStationsNear_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing lat", "lon=127", "lat"},
		{"missing lon", "lat=37.5", "lon"},
		{"non-numeric lat", "lat=abc&lon=127", "lat"},
		{"lat out of range", "lat=91&lon=127", "lat"},
		{"lon out of range", "lat=37.5&lon=181", "lon"},
		{"bad radius", "lat=37.5&lon=127&radius=x", "radius"},
		{"negative radius", "lat=37.5&lon=127&radius=-1", "radius"},
		{"radius too large", "lat=37.5&lon=127&radius=99999", "radius"},
		{"bad extend", "lat=37.5&lon=127&extend=maybe", "extend"},
	}

	r := newFixtureRouter()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(t, r, "/v1/station/location?"+tc.query)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			body := decode[any](t, w)
			if body.Error == nil || body.Error.Field != tc.field || body.Error.Code != "invalid_request" {
				t.Errorf("error = %+v, want field %q", body.Error, tc.field)
			}
		})
	}
}

func TestStationsNear_PassesQuery(t *testing.T) {
	s := &failingSearcher{err: errors.New("unused")}
	get(t, newRouter(s), "/v1/station/location?lat=37.5&lon=127.1&radius=300&extend=1")

	want := service.ProximityQuery{Latitude: 37.5, Longitude: 127.1, Radius: 300, Extended: true}
	if s.proximity != want {
		t.Errorf("query = %+v, want %+v", s.proximity, want)
	}
}

// ---------------------------------------------------------------------------
// GET /v1/station/search
// ---------------------------------------------------------------------------

func TestSearchStations_OK(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v1/station/search?query=R1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode[service.SearchResult](t, w)
	if len(body.Data.Routes) != 1 || body.Data.Routes[0].RouteName != "R1" {
		t.Fatalf("routes = %+v, want one R1 tree", body.Data.Routes)
	}
	if n := len(body.Data.Routes[0].Stops); n != 2 {
		t.Errorf("R1 stops = %d, want 2", n)
	}
}

func TestSearchStations_MissingQuery(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v1/station/search")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decode[any](t, w); body.Error == nil || body.Error.Field != "query" {
		t.Errorf("error = %+v, want field query", body.Error)
	}
}

// ---------------------------------------------------------------------------
// Destination routes
// ---------------------------------------------------------------------------

func TestRoutesToDestination_OK(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v1/route/search?dest=B")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// Decode loosely to check the wire names.
	body := decode[[]struct {
		StationName string `json:"station_name"`
		BusRoute    []struct {
			RouteName string `json:"route_name"`
			Route     []struct {
				Order       int   `json:"order"`
				ArsID       int64 `json:"ars_id"`
				Destination *bool `json:"destination"`
			} `json:"route"`
		} `json:"bus_route"`
	}](t, w)

	if len(body.Data) != 1 || body.Data[0].StationName != "B(dest)" {
		t.Fatalf("data = %+v", body.Data)
	}
	routes := body.Data[0].BusRoute
	if len(routes) != 2 || routes[0].RouteName != "R1" || routes[1].RouteName != "R2" {
		t.Fatalf("routes = %+v, want R1 and R2", routes)
	}
	for _, stop := range routes[0].Route {
		if stop.Destination == nil {
			t.Fatalf("stop %+v lacks destination flag", stop)
		}
		if *stop.Destination != (stop.ArsID == 20) {
			t.Errorf("stop ars %d destination = %v", stop.ArsID, *stop.Destination)
		}
	}
}

func TestRoutesToDestination_District(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v1/route/search?dest=B&district="+url.QueryEscape(storagetest.Junggu))

	body := decode[[]transit.StationRouteTree](t, w)
	if len(body.Data) != 1 || body.Data[0].StationName != "B(dest) West" {
		t.Errorf("data = %+v, want B(dest) West", body.Data)
	}
}

func TestRouteNamesToDestination_OK(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v2/route/search?dest=B")

	body := decode[[]transit.RouteName](t, w)
	if len(body.Data) != 2 || body.Data[0].RouteID != 100 || body.Data[1].RouteName != "R2" {
		t.Errorf("data = %+v, want R1 and R2", body.Data)
	}
}

func TestRouteInDistrict_OK(t *testing.T) {
	w := get(t, newFixtureRouter(), "/v2/route/node/search?node=R4")

	body := decode[transit.RouteTree](t, w)
	if body.Data.RouteName != "R4" || len(body.Data.Stops) != 2 {
		t.Errorf("data = %+v, want R4 with 2 stops", body.Data)
	}
}

func TestDestinationEndpoints_MissingParam(t *testing.T) {
	tests := []struct {
		path, field string
	}{
		{"/v1/route/search", "dest"},
		{"/v2/route/search?district=x", "dest"},
		{"/v2/route/node/search", "node"},
	}

	r := newFixtureRouter()
	for _, tc := range tests {
		w := get(t, r, tc.path)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.path, w.Code)
			continue
		}
		if body := decode[any](t, w); body.Error == nil || body.Error.Field != tc.field {
			t.Errorf("%s: error = %+v, want field %q", tc.path, body.Error, tc.field)
		}
	}
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestQueryFailure_IsOpaque500(t *testing.T) {
	s := &failingSearcher{err: &service.QueryError{Op: "Search", Err: errors.New("pq: relation bus_route does not exist")}}
	r := newRouter(s)

	paths := []string{
		"/v1/station/location?lat=37.5&lon=127",
		"/v1/station/search?query=x",
		"/v1/route/search?dest=x",
		"/v2/route/search?dest=x",
		"/v2/route/node/search?node=x",
	}
	for _, path := range paths {
		w := get(t, r, path)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s: status = %d, want 500", path, w.Code)
			continue
		}
		body := decode[any](t, w)
		if body.Error == nil || body.Error.Message != "search failed" || body.Error.Code != "search_failed" {
			t.Errorf("%s: error = %+v", path, body.Error)
		}
	}
}

func TestQueryFailure_DeadlineIs503(t *testing.T) {
	s := &failingSearcher{err: &service.QueryError{Op: "Search", Err: context.DeadlineExceeded}}

	w := get(t, newRouter(s), "/v1/station/search?query=x")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
