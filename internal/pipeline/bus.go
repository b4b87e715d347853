// Package pipeline derives dashboard analytics from decoded upload
// responses and runs the two-step bookings/marketing upload workflow.
package pipeline

import (
	"github.com/samber/lo"

	"github.com/theirongolddev/chargesense/internal/model"
)

// BusSlotCount is the size of the fixed day by session grid.
var BusSlotCount = len(model.Weekdays) * len(model.Sessions)

// ServiceName builds the "<Day> <Session>" name used by bus observations.
func ServiceName(day, session string) string {
	return day + " " + session
}

// NormalizeBusUsage projects sparse observations onto every canonical
// slot in day-major order. Slots with no observation carry 0. When several
// observations share a name the first one wins; names outside the grid
// are dropped.
func NormalizeBusUsage(obs []model.BusObservation) []model.BusSlot {
	slots := make([]model.BusSlot, 0, BusSlotCount)
	for _, day := range model.Weekdays {
		for _, session := range model.Sessions {
			name := ServiceName(day, session)
			match, _ := lo.Find(obs, func(o model.BusObservation) bool {
				return o.Service == name
			})
			slots = append(slots, model.BusSlot{
				Day:     day,
				Session: session,
				Service: name,
				Usage:   match.Usage,
			})
		}
	}
	return slots
}

// BusMatrix reshapes a normalized grid into rows per weekday.
func BusMatrix(slots []model.BusSlot) [][]int {
	matrix := make([][]int, len(model.Weekdays))
	for i := range matrix {
		matrix[i] = make([]int, len(model.Sessions))
	}
	for i, s := range slots {
		d, sess := i/len(model.Sessions), i%len(model.Sessions)
		if d >= len(matrix) {
			break
		}
		matrix[d][sess] = s.Usage
	}
	return matrix
}

// PeakUsage returns the busiest slot's usage, or 0 for an empty grid.
func PeakUsage(slots []model.BusSlot) int {
	if len(slots) == 0 {
		return 0
	}
	return lo.MaxBy(slots, func(a, b model.BusSlot) bool { return a.Usage > b.Usage }).Usage
}
