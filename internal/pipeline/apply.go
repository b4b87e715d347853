package pipeline

import (
	"time"

	"github.com/theirongolddev/chargesense/internal/model"
)

// Apply builds the next dashboard from the previous one and a run result.
// prev is never modified. Bookings sections are always replaced. The
// marketing section is replaced on OutcomeComplete, cleared on
// OutcomeMarketingEmpty and carried over otherwise.
func Apply(prev *model.Dashboard, res *Result, now time.Time) *model.Dashboard {
	next := &model.Dashboard{
		RunID:               res.RunID,
		GeneratedAt:         now,
		WeekStart:           res.Bookings.WeekStart,
		WeeklyWithPredicted: res.Bookings.Weekly,
		Trend:               res.Bookings.Trend,
		AvgChargePerBooking: res.Bookings.AvgChargePerBooking,
		StudentData:         res.Bookings.Students,
		NormalizedBus:       res.Bookings.Bus,
	}

	switch res.Outcome {
	case OutcomeComplete:
		next.MarketingAnalytics = res.Marketing
	case OutcomeMarketingEmpty:
		next.MarketingAnalytics = nil
	default:
		if prev != nil {
			next.MarketingAnalytics = prev.MarketingAnalytics
		}
	}
	return next
}
