package pipeline

import (
	"github.com/samber/lo"

	"github.com/theirongolddev/chargesense/internal/model"
)

// WeekdayTotals sums charge amounts per canonical weekday. The result always
// has one entry per weekday in Mon..Fri order; entries for other day labels
// are ignored.
func WeekdayTotals(charges []model.ChargeEntry) []float64 {
	totals := make([]float64, len(model.Weekdays))
	for _, c := range charges {
		if i := lo.IndexOf(model.Weekdays, c.Day); i >= 0 {
			totals[i] += c.Amount
		}
	}
	return totals
}

// FitLine fits predicted(x) = slope*x + intercept over the points
// (i, ys[i]) with the closed-form least squares solution.
func FitLine(ys []float64) model.TrendLine {
	n := float64(len(ys))
	if n == 0 {
		return model.TrendLine{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	// Zero only for a single point; indices 0..4 give 50.
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return model.TrendLine{Intercept: sumY / n}
	}

	slope := (n*sumXY - sumX*sumY) / den
	return model.TrendLine{
		Slope:     slope,
		Intercept: (sumY - slope*sumX) / n,
	}
}

// ForecastWeeklyCharges returns exactly one point per weekday with the
// actual total (unrounded) and the trend value rounded to 2 places.
func ForecastWeeklyCharges(charges []model.ChargeEntry) ([]model.WeeklyChargePoint, model.TrendLine) {
	totals := WeekdayTotals(charges)
	line := FitLine(totals)

	points := make([]model.WeeklyChargePoint, len(model.Weekdays))
	for i, day := range model.Weekdays {
		points[i] = model.WeeklyChargePoint{
			Day:       day,
			Actual:    totals[i],
			Predicted: round2(line.At(float64(i))),
		}
	}
	return points, line
}

// AverageChargePerBooking divides the week's actual total by the total
// number of bookings across segments. It is 0 when there are no bookings.
func AverageChargePerBooking(points []model.WeeklyChargePoint, segments []model.Segment) float64 {
	bookings := lo.SumBy(segments, func(s model.Segment) int { return s.BookingCount })
	if bookings == 0 {
		return 0
	}
	total := lo.SumBy(points, func(p model.WeeklyChargePoint) float64 { return p.Actual })
	return total / float64(bookings)
}
