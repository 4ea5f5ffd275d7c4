package slots_test

import (
	"meetslot/internal/models"
	"meetslot/internal/slots"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.January, 2, hour, minute, 0, 0, time.UTC)
}

func iv(sh, sm, eh, em int) models.Interval {
	return models.Interval{Start: at(sh, sm), End: at(eh, em)}
}

func TestMerge(t *testing.T) {
	tests := map[string]struct {
		input    []models.Interval
		expected []models.Interval
	}{
		"Empty": {
			input:    nil,
			expected: nil,
		},
		"Single": {
			input:    []models.Interval{iv(9, 0, 10, 0)},
			expected: []models.Interval{iv(9, 0, 10, 0)},
		},
		"Overlapping_ScenarioD": {
			input:    []models.Interval{iv(9, 0, 10, 0), iv(9, 30, 10, 30)},
			expected: []models.Interval{iv(9, 0, 10, 30)},
		},
		"Touching": {
			input:    []models.Interval{iv(10, 0, 11, 0), iv(9, 0, 10, 0)},
			expected: []models.Interval{iv(9, 0, 11, 0)},
		},
		"Contained": {
			input:    []models.Interval{iv(9, 0, 12, 0), iv(10, 0, 10, 30)},
			expected: []models.Interval{iv(9, 0, 12, 0)},
		},
		"Duplicates": {
			input:    []models.Interval{iv(14, 0, 15, 0), iv(14, 0, 15, 0), iv(14, 0, 15, 0)},
			expected: []models.Interval{iv(14, 0, 15, 0)},
		},
		"Disjoint_Unsorted": {
			input:    []models.Interval{iv(15, 0, 16, 0), iv(9, 0, 9, 30), iv(12, 0, 13, 0)},
			expected: []models.Interval{iv(9, 0, 9, 30), iv(12, 0, 13, 0), iv(15, 0, 16, 0)},
		},
		"SameStart_DifferentEnds": {
			input:    []models.Interval{iv(9, 0, 9, 30), iv(9, 0, 11, 0), iv(11, 30, 12, 0)},
			expected: []models.Interval{iv(9, 0, 11, 0), iv(11, 30, 12, 0)},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, slots.Merge(tc.input))
		})
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	input := []models.Interval{iv(11, 0, 12, 0), iv(9, 0, 10, 0), iv(9, 30, 11, 30)}
	snapshot := append([]models.Interval(nil), input...)

	slots.Merge(input)

	assert.Equal(t, snapshot, input)
}

func TestMerge_Idempotent(t *testing.T) {
	input := []models.Interval{iv(9, 0, 10, 0), iv(9, 45, 10, 15), iv(13, 0, 14, 0), iv(16, 0, 16, 30)}

	once := slots.Merge(input)
	twice := slots.Merge(once)

	assert.Equal(t, once, twice)
}

func TestMerge_OrderIndependent(t *testing.T) {
	base := []models.Interval{iv(9, 0, 10, 0), iv(9, 30, 10, 30), iv(10, 30, 11, 0), iv(13, 0, 14, 0)}
	expected := []models.Interval{iv(9, 0, 11, 0), iv(13, 0, 14, 0)}

	permute(base, 0, func(p []models.Interval) {
		assert.Equal(t, expected, slots.Merge(p))
	})
}

func TestMerge_TimelineInvariant(t *testing.T) {
	input := []models.Interval{
		iv(8, 0, 8, 45), iv(8, 30, 9, 0), iv(9, 15, 9, 45), iv(9, 45, 10, 0),
		iv(12, 0, 12, 5), iv(11, 0, 12, 0), iv(17, 0, 18, 0),
	}

	merged := slots.Merge(input)

	for i := 1; i < len(merged); i++ {
		assert.True(t, merged[i-1].End.Before(merged[i].Start), "entries %d and %d must be separated", i-1, i)
	}
}

// permute calls fn with every ordering of s.
func permute(s []models.Interval, k int, fn func([]models.Interval)) {
	if k == len(s) {
		fn(append([]models.Interval(nil), s...))
		return
	}
	for i := k; i < len(s); i++ {
		s[k], s[i] = s[i], s[k]
		permute(s, k+1, fn)
		s[k], s[i] = s[i], s[k]
	}
}
