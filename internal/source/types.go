package source

import "time"

// UploadResponse is the JSON body returned by the upload service. Every
// field is optional; DecodeUpload turns it into a model.Upload.
type UploadResponse struct {
	CustomerSegments   []RawSegment      `json:"customerSegments"`
	WeeklyCharges      []RawWeeklyCharge `json:"weeklyCharges"`
	BusUsage           []RawBusUsage     `json:"busUsage"`
	MarketingAnalytics *RawMarketing     `json:"marketingAnalytics"`
	WeekStart          *string           `json:"week_start"`
	Message            string            `json:"message"`
}

// RawWeeklyCharge is one charge line tagged with its weekday.
type RawWeeklyCharge struct {
	Day         string `json:"day"`
	TotalCharge Number `json:"totalCharge"`
}

// RawSegment is a per-student aggregate.
type RawSegment struct {
	Segment      string `json:"segment"`
	Day          string `json:"day"`
	BookingCount Number `json:"bookingCount"`
	TotalCharge  Number `json:"totalCharge"`
}

// RawBusUsage is an observed count for a "<Day> <Session>" service.
type RawBusUsage struct {
	BusService string `json:"busService"`
	Usage      Number `json:"usage"`
}

// RawMarketing is the marketing analytics block.
type RawMarketing struct {
	WeeksData            []RawMarketingWeek `json:"weeks_data"`
	ChannelROAS          *RawChannelROAS    `json:"channel_roas"`
	TotalRevenueForecast Number             `json:"total_revenue_forecast"`
}

// RawMarketingWeek is a single campaign week row.
type RawMarketingWeek struct {
	SearchSpend   Number `json:"search_spend"`
	SocialSpend   Number `json:"social_spend"`
	EmailSpend    Number `json:"email_spend"`
	Revenue       Number `json:"revenue"`
	TotalBookings Number `json:"total_bookings"`
	UploadedAt    string `json:"uploaded_at,omitempty"`
}

// RawChannelROAS holds upstream regression coefficients per channel.
type RawChannelROAS struct {
	Search Number `json:"search"`
	Social Number `json:"social"`
	Email  Number `json:"email"`
}

// FileKind classifies an export found in the inbox.
type FileKind string

const (
	KindBookings  FileKind = "bookings"
	KindMarketing FileKind = "marketing"
)

// DiscoveredFile is a spreadsheet export found during directory scanning.
type DiscoveredFile struct {
	Path    string
	Name    string
	Kind    FileKind
	ModTime time.Time
	Size    int64
}
