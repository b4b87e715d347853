package pipeline

import (
	"github.com/samber/lo"

	"github.com/theirongolddev/chargesense/internal/model"
)

// AllocateCustomerCharges gives each segment a predicted charge of
// avg * bookingCount rounded to 2 places. The segment's own total charge
// is carried through for display but never used in the prediction.
func AllocateCustomerCharges(segments []model.Segment, avg float64) []model.CustomerSegment {
	return lo.Map(segments, func(s model.Segment, _ int) model.CustomerSegment {
		return model.CustomerSegment{
			ID:           s.ID,
			Day:          s.Day,
			BookingCount: s.BookingCount,
			TotalCharge:  s.TotalCharge,
			Predicted:    round2(avg * float64(s.BookingCount)),
		}
	})
}

// TopStudents returns at most n segments in their original order.
func TopStudents(students []model.CustomerSegment, n int) []model.CustomerSegment {
	if n <= 0 || len(students) <= n {
		return students
	}
	return students[:n]
}
