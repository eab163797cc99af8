package transit

import (
	"cmp"
	"slices"
)

// MergeStations merges station result sets keyed by ars_id. Sets are applied
// in argument order; a later entry replaces an earlier one with the same id
// but keeps the position where that id was first seen.
func MergeStations(primary []StationResult, extra ...[]StationResult) []StationResult {
	index := make(map[int64]int, len(primary))
	out := make([]StationResult, 0, len(primary))

	put := func(s StationResult) {
		if i, ok := index[s.ArsID]; ok {
			out[i] = s
			return
		}
		index[s.ArsID] = len(out)
		out = append(out, s)
	}

	for _, s := range primary {
		put(s)
	}
	for _, set := range extra {
		for _, s := range set {
			put(s)
		}
	}
	return out
}

// SortStationsByName orders stations by station name, keeping merge order for ties.
func SortStationsByName(stations []StationResult) {
	slices.SortStableFunc(stations, func(a, b StationResult) int {
		return cmp.Compare(a.StationName, b.StationName)
	})
}
