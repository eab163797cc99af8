package transit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairsFor(dest RouteStop, route []RouteStop) []DestinationPair {
	pairs := make([]DestinationPair, 0, len(route))
	for _, a := range route {
		if a.RouteName == dest.RouteName {
			pairs = append(pairs, DestinationPair{Stop: a, DestArsID: dest.ArsID, DestStationName: dest.StationName})
		}
	}
	return pairs
}

func TestTagDestinations_ExactlyOneDestinationPerMatch(t *testing.T) {
	r1 := []RouteStop{
		stop("R1", 1, 10, "A"),
		stop("R1", 2, 20, "B(dest)"),
		stop("R1", 3, 40, "D"),
	}
	matched := r1[1]

	rows := TagDestinations(pairsFor(matched, r1))
	require.Len(t, rows, 3)

	var tagged int
	for _, r := range rows {
		assert.Equal(t, matched.ArsID, r.DestArsID)
		assert.Equal(t, matched.StationName, r.DestStationName)
		if r.Destination {
			tagged++
			assert.Equal(t, matched.ArsID, r.ArsID)
		}
	}
	assert.Equal(t, 1, tagged)
}

func TestTagDestinations_DropsDuplicates(t *testing.T) {
	r1 := []RouteStop{stop("R1", 1, 10, "A"), stop("R1", 2, 20, "B")}
	pairs := append(pairsFor(r1[1], r1), pairsFor(r1[1], r1)...)

	rows := TagDestinations(pairs)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].RouteOrder)
	assert.Equal(t, 2, rows[1].RouteOrder)
}

func TestTagDestinations_DistinctMatchesOnSameRouteKeepBoth(t *testing.T) {
	r1 := []RouteStop{stop("R1", 1, 10, "Bank"), stop("R1", 2, 20, "Bank Annex")}
	pairs := append(pairsFor(r1[0], r1), pairsFor(r1[1], r1)...)

	rows := TagDestinations(pairs)

	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, r.ArsID == r.DestArsID, r.Destination)
	}
}

func TestTagDestinations_Empty(t *testing.T) {
	rows := TagDestinations(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
