package slots

import (
	"meetslot/internal/models"
	"slices"
)

// Merge normalises busy intervals into a sorted timeline with no overlapping or
// touching entries. The input slice is left untouched.
func Merge(intervals []models.Interval) []models.Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b models.Interval) int {
		return a.Start.Compare(b.Start)
	})

	merged := []models.Interval{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !cur.Start.After(last.End) {
			if cur.End.After(last.End) {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}
