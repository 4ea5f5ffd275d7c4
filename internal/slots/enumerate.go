package slots

import (
	"meetslot/internal/models"
	"time"
)

// Enumerate walks window against a merged busy timeline and returns every free
// slot of length d, in ascending start order, Step apart within each gap.
// Busy intervals that do not overlap the window are ignored.
func (p Policy) Enumerate(window models.Interval, busy []models.Interval, d time.Duration) []models.Slot {
	if d <= 0 || p.Step <= 0 {
		return nil
	}

	var out []models.Slot
	cursor := window.Start
	fill := func(limit time.Time) {
		for !cursor.Add(d).After(limit) {
			out = append(out, models.Slot{Start: cursor, End: cursor.Add(d)})
			cursor = cursor.Add(p.Step)
		}
	}

	for _, b := range busy {
		if !b.Overlaps(window) {
			continue
		}
		fill(b.Start)
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	fill(window.End)

	return out
}
