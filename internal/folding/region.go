// Package folding computes collapsible source regions from a syntax tree.
// It is a pure library: it borrows a tree and a line-indexed text for the
// duration of one Extract call and keeps no state across calls.
package folding

import (
	"sort"
)

// RegionID identifies a region within one extraction result. IDs are
// assigned in traversal order and are meaningless across calls.
type RegionID uint32

// Region is a collapsible byte range. Start < End <= text length. End is
// normalized to the end of the region's last line, terminator included, so
// the fold boundary lands on a line break.
type Region struct {
	Start     uint32
	End       uint32
	Collapsed bool
}

// Stats reports what an extraction skipped or dropped. BadMappings counts
// nodes whose offsets could not be mapped onto the text (a stale tree over
// an edited buffer); those nodes are skipped, never fatal.
type Stats struct {
	BadMappings int
	Cancelled   bool
}

// Sorted returns the regions ordered by start offset, then end offset.
// Map iteration order is random; every consumer that prints or serializes
// regions wants this.
func Sorted(regions map[RegionID]Region) []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].End < out[j].End
		}
		return out[i].Start < out[j].Start
	})
	return out
}
