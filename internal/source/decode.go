package source

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/theirongolddev/chargesense/internal/model"
)

// DecodeUpload reads an upload response body and converts it into strict
// internal entities. Only malformed JSON is an error; missing fields are
// defaulted here so nothing downstream has to guess.
func DecodeUpload(r io.Reader) (*model.Upload, error) {
	var resp UploadResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	return resp.ToModel(), nil
}

// ToModel applies the defaulting rules: absent amounts and usage are 0,
// an absent booking count is 1 (an explicit 0 is kept), an absent
// marketing block stays nil.
func (r *UploadResponse) ToModel() *model.Upload {
	u := &model.Upload{
		Charges:  make([]model.ChargeEntry, 0, len(r.WeeklyCharges)),
		Segments: make([]model.Segment, 0, len(r.CustomerSegments)),
		Bus:      make([]model.BusObservation, 0, len(r.BusUsage)),
		Message:  r.Message,
	}
	if r.WeekStart != nil {
		u.WeekStart = *r.WeekStart
	}

	for _, c := range r.WeeklyCharges {
		u.Charges = append(u.Charges, model.ChargeEntry{
			Day:    strings.TrimSpace(c.Day),
			Amount: c.TotalCharge.Or(0),
		})
	}

	for _, s := range r.CustomerSegments {
		u.Segments = append(u.Segments, model.Segment{
			ID:           strings.TrimSpace(s.Segment),
			Day:          strings.TrimSpace(s.Day),
			BookingCount: whole(s.BookingCount.Or(1)),
			TotalCharge:  s.TotalCharge.Or(0),
		})
	}

	for _, b := range r.BusUsage {
		u.Bus = append(u.Bus, model.BusObservation{
			Service: b.BusService,
			Usage:   whole(b.Usage.Or(0)),
		})
	}

	if r.MarketingAnalytics != nil {
		u.Marketing = r.MarketingAnalytics.toModel()
	}
	return u
}

func (m *RawMarketing) toModel() *model.MarketingUpload {
	out := &model.MarketingUpload{
		Weeks:           make([]model.MarketingWeek, 0, len(m.WeeksData)),
		RevenueForecast: m.TotalRevenueForecast.Or(0),
	}
	for _, w := range m.WeeksData {
		out.Weeks = append(out.Weeks, model.MarketingWeek{
			SearchSpend:   w.SearchSpend.Or(0),
			SocialSpend:   w.SocialSpend.Or(0),
			EmailSpend:    w.EmailSpend.Or(0),
			Revenue:       w.Revenue.Or(0),
			TotalBookings: whole(w.TotalBookings.Or(0)),
		})
	}
	if m.ChannelROAS != nil {
		out.ROAS = model.ChannelROAS{
			Search: m.ChannelROAS.Search.Or(0),
			Social: m.ChannelROAS.Social.Or(0),
			Email:  m.ChannelROAS.Email.Or(0),
		}
	}
	return out
}

// whole rounds counts that arrive as floats ("2.0" from a spreadsheet).
func whole(v float64) int {
	return int(math.Round(v))
}
