package model

// Weekdays are the canonical booking days in display order. The index of a
// day in this slice is its x coordinate for the weekly trend fit.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// Sessions are the canonical bus sessions run on each weekday.
var Sessions = []string{"AM", "Explorers 1", "Explorers 2", "Explorers 3"}

// ChargeEntry is one charge line from the weekly bookings export.
type ChargeEntry struct {
	Day    string
	Amount float64
}

// Segment is a customer (student) aggregate for the week.
type Segment struct {
	ID           string
	Day          string
	BookingCount int
	TotalCharge  float64
}

// BusObservation is a usage count for a bus service named "<Day> <Session>".
type BusObservation struct {
	Service string
	Usage   int
}

// MarketingWeek is one campaign week from the marketing export.
type MarketingWeek struct {
	SearchSpend   float64
	SocialSpend   float64
	EmailSpend    float64
	Revenue       float64
	TotalBookings int
}

// Spend is the combined spend across all channels.
func (w MarketingWeek) Spend() float64 {
	return w.SearchSpend + w.SocialSpend + w.EmailSpend
}

// ChannelROAS is the return on ad spend per marketing channel.
type ChannelROAS struct {
	Search float64 `json:"search"`
	Social float64 `json:"social"`
	Email  float64 `json:"email"`
}

// MarketingUpload is the marketing section of an upload response.
type MarketingUpload struct {
	Weeks           []MarketingWeek
	ROAS            ChannelROAS
	RevenueForecast float64
}

// Upload is a fully decoded upload response with every default applied.
// Marketing is nil when the response carried no marketing section.
type Upload struct {
	Charges   []ChargeEntry
	Segments  []Segment
	Bus       []BusObservation
	Marketing *MarketingUpload
	WeekStart string
	Message   string
}

// Empty reports whether the response carried no bookings analytics at all.
func (u *Upload) Empty() bool {
	return u == nil || (len(u.Charges) == 0 && len(u.Segments) == 0 && len(u.Bus) == 0)
}
