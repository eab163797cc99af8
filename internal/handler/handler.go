// Package handler exposes the station and route queries over HTTP.
//
// Every success response is {"message":"ok","data":...}. Errors are
// {"error":{"message":...,"code":...}}; validation errors also name the
// offending query parameter in "field".
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jintaekimmm/cn-bis/internal/service"
	"github.com/jintaekimmm/cn-bis/internal/transit"
)

// Searcher is the query surface the handlers need. *service.SearchService
// implements it.
type Searcher interface {
	StationsNear(ctx context.Context, q service.ProximityQuery) ([]transit.StationResult, error)
	Search(ctx context.Context, q service.TextQuery) (*service.SearchResult, error)
	RoutesToDestination(ctx context.Context, q service.DestinationQuery) ([]transit.StationRouteTree, error)
	RouteNamesToDestination(ctx context.Context, q service.DestinationQuery) ([]transit.RouteName, error)
	RouteInDistrict(ctx context.Context, q service.RouteQuery) (*transit.RouteTree, error)
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	search Searcher
}

// New creates a Handler.
func New(search Searcher) *Handler {
	return &Handler{search: search}
}

// Register mounts every endpoint on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Health)
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	{
		v1.GET("/station/location", h.StationsNear)
		v1.GET("/station/search", h.SearchStations)
		v1.GET("/route/search", h.RoutesToDestination)
	}

	v2 := r.Group("/v2")
	{
		v2.GET("/route/search", h.RouteNamesToDestination)
		v2.GET("/route/node/search", h.RouteInDistrict)
	}
}

// Health handles GET / and GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"message": "ok", "data": data})
}

func respondInvalid(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"message": message, "code": "invalid_request", "field": field},
	})
}

// respondError maps a service error to a status code. Store failures are
// reported without detail; the service has already logged them.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		respondInvalid(c, vErr.Field, vErr.Field+" "+vErr.Message)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{"message": "request timed out", "code": "timeout"},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{"message": "search failed", "code": "search_failed"},
	})
}

// parseRequiredFloat extracts a required float64 query parameter.
// On failure it writes a 400 response and returns (0, false).
func parseRequiredFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		respondInvalid(c, name, name+" query parameter is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondInvalid(c, name, name+" must be a valid number")
		return 0, false
	}
	return v, true
}

// parseOptionalFloat returns 0 when the parameter is absent.
func parseOptionalFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondInvalid(c, name, name+" must be a valid number")
		return 0, false
	}
	return v, true
}

func parseOptionalBool(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondInvalid(c, name, name+" must be true or false")
		return false, false
	}
	return v, true
}
