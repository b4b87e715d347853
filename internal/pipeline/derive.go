package pipeline

import "github.com/theirongolddev/chargesense/internal/model"

// Bookings holds everything derived from a bookings upload. The three
// derivations read disjoint parts of the response.
type Bookings struct {
	WeekStart           string
	Weekly              []model.WeeklyChargePoint
	Trend               model.TrendLine
	AvgChargePerBooking float64
	Students            []model.CustomerSegment
	Bus                 []model.BusSlot
	// Empty is set when the response carried no charges, segments or bus rows.
	Empty bool
}

// Derive runs the bus, forecast and allocation derivations on one upload.
func Derive(u *model.Upload) Bookings {
	if u == nil {
		u = &model.Upload{}
	}

	weekly, line := ForecastWeeklyCharges(u.Charges)
	avg := AverageChargePerBooking(weekly, u.Segments)

	return Bookings{
		WeekStart:           u.WeekStart,
		Weekly:              weekly,
		Trend:               line,
		AvgChargePerBooking: avg,
		Students:            AllocateCustomerCharges(u.Segments, avg),
		Bus:                 NormalizeBusUsage(u.Bus),
		Empty:               u.Empty(),
	}
}
