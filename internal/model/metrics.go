package model

// WeeklyChargePoint is the actual and fitted total for one weekday.
type WeeklyChargePoint struct {
	Day       string  `json:"day"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// TrendLine is a fitted straight line predicted(x) = Slope*x + Intercept.
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at x.
func (l TrendLine) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// CustomerSegment is a segment with its allocated predicted charge.
type CustomerSegment struct {
	ID           string  `json:"segment"`
	Day          string  `json:"day,omitempty"`
	BookingCount int     `json:"bookingCount"`
	TotalCharge  float64 `json:"totalCharge"`
	Predicted    float64 `json:"predicted"`
}

// BusSlot is one cell of the fixed day by session bus grid.
type BusSlot struct {
	Day     string `json:"day"`
	Session string `json:"session"`
	Service string `json:"busService"`
	Usage   int    `json:"usage"`
}

// MarketingWeekPoint is a per-week chart row.
type MarketingWeekPoint struct {
	Label   string  `json:"label"`
	Spend   float64 `json:"spend"`
	Revenue float64 `json:"revenue"`
}

// MarketingSummary reduces a non-empty list of marketing weeks. It is built
// fresh from each marketing upload and never modified afterwards.
type MarketingSummary struct {
	CampaignCount         int                  `json:"campaignCount"`
	TotalSpend            float64              `json:"totalSpend"`
	TotalPredictedRevenue float64              `json:"totalPredictedRevenue"`
	ChannelROAS           ChannelROAS          `json:"channelRoas"`
	RevenueForecast       float64              `json:"revenueForecast"`
	Weeks                 []MarketingWeekPoint `json:"weeks"`
}
