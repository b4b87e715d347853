package model

import "time"

// Dashboard is the view-model handed to every presentation layer. A new
// value is assembled for each successful run; existing values are never
// modified in place.
type Dashboard struct {
	RunID               string              `json:"runId"`
	GeneratedAt         time.Time           `json:"generatedAt"`
	WeekStart           string              `json:"weekStart,omitempty"`
	WeeklyWithPredicted []WeeklyChargePoint `json:"weeklyWithPredicted"`
	Trend               TrendLine           `json:"trend"`
	AvgChargePerBooking float64             `json:"avgChargePerBooking"`
	StudentData         []CustomerSegment   `json:"studentData"`
	NormalizedBus       []BusSlot           `json:"normalizedBus"`
	MarketingAnalytics  *MarketingSummary   `json:"marketingAnalytics"`
}

// TotalActual sums the actual weekday totals.
func (d *Dashboard) TotalActual() float64 {
	if d == nil {
		return 0
	}
	var total float64
	for _, p := range d.WeeklyWithPredicted {
		total += p.Actual
	}
	return total
}

// TotalBookings sums booking counts across students.
func (d *Dashboard) TotalBookings() int {
	if d == nil {
		return 0
	}
	var n int
	for _, s := range d.StudentData {
		n += s.BookingCount
	}
	return n
}

// TotalBusUsage sums usage across the bus grid.
func (d *Dashboard) TotalBusUsage() int {
	if d == nil {
		return 0
	}
	var n int
	for _, b := range d.NormalizedBus {
		n += b.Usage
	}
	return n
}
