package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jintaekimmm/cn-bis/internal/service"
)

// StationsNear handles GET /v1/station/location
//
// Query params:
//   - lat    (required) float64, WGS-84 latitude
//   - lon    (required) float64, WGS-84 longitude
//   - radius (optional) float64, metres; server default when absent
//   - extend (optional) bool, also search stops known only from route data
//
// Response 200:
//
//	{"message":"ok","data":[{"location":{"latitude":37.5,"longitude":127.0},"station_name":"City Hall","ars_id":1}]}
func (h *Handler) StationsNear(c *gin.Context) {
	lat, ok := parseRequiredFloat(c, "lat")
	if !ok {
		return
	}
	lon, ok := parseRequiredFloat(c, "lon")
	if !ok {
		return
	}
	radius, ok := parseOptionalFloat(c, "radius")
	if !ok {
		return
	}
	extend, ok := parseOptionalBool(c, "extend")
	if !ok {
		return
	}

	stations, err := h.search.StationsNear(c.Request.Context(), service.ProximityQuery{
		Latitude:  lat,
		Longitude: lon,
		Radius:    radius,
		Extended:  extend,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stations)
}

// SearchStations handles GET /v1/station/search?query=
//
// The text is matched against station names and route names. data holds
// "bus_station" (flat, sorted by name) and "bus_route" (one tree per route).
func (h *Handler) SearchStations(c *gin.Context) {
	result, err := h.search.Search(c.Request.Context(), service.TextQuery{Text: c.Query("query")})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
