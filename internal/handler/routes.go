package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jintaekimmm/cn-bis/internal/service"
)

// RoutesToDestination handles GET /v1/route/search?dest=[&district=]
//
// data is a list of destination stations, each with every route reaching it
// and all stops of those routes. Stops at the destination carry
// "destination": true. Responses can be large; the server gzips them.
func (h *Handler) RoutesToDestination(c *gin.Context) {
	trees, err := h.search.RoutesToDestination(c.Request.Context(), destinationQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, trees)
}

// RouteNamesToDestination handles GET /v2/route/search?dest=[&district=]
//
// Response 200:
//
//	{"message":"ok","data":[{"route_id":100100118,"route_name":"2014"}]}
func (h *Handler) RouteNamesToDestination(c *gin.Context) {
	names, err := h.search.RouteNamesToDestination(c.Request.Context(), destinationQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, names)
}

// RouteInDistrict handles GET /v2/route/node/search?node=[&district=]
//
// node is an exact route name. data.route is empty when the route never
// enters the district.
func (h *Handler) RouteInDistrict(c *gin.Context) {
	tree, err := h.search.RouteInDistrict(c.Request.Context(), service.RouteQuery{
		RouteName: c.Query("node"),
		District:  c.Query("district"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tree)
}

func destinationQuery(c *gin.Context) service.DestinationQuery {
	return service.DestinationQuery{
		Destination: c.Query("dest"),
		District:    c.Query("district"),
	}
}
