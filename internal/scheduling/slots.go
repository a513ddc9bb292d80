package scheduling

import (
	"time"

	"hospital-scheduling-server/internal/models"
)

// SlotDuration is the width of a bookable slot and of a visit.
const SlotDuration = 30 * time.Minute

// SlotGrid returns slot start times in [start, end). A slot is included
// only when it ends at or before end.
func SlotGrid(start, end models.TimeOfDay) []models.TimeOfDay {
	var grid []models.TimeOfDay
	for t := start; t.Add(SlotDuration) <= end; t = t.Add(SlotDuration) {
		grid = append(grid, t)
	}
	return grid
}

// Overlaps reports whether the half-open slots starting at a and b intersect.
func Overlaps(a, b models.TimeOfDay) bool {
	return a < b.Add(SlotDuration) && b < a.Add(SlotDuration)
}
