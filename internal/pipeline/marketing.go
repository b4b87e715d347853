package pipeline

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/theirongolddev/chargesense/internal/model"
)

// AggregateMarketing summarizes a marketing upload. It returns nil when the
// upload is absent or has no weeks; callers report that as "no marketing
// analytics", which is different from a summary of zeros.
func AggregateMarketing(m *model.MarketingUpload) *model.MarketingSummary {
	if m == nil || len(m.Weeks) == 0 {
		return nil
	}

	weeks := lo.Map(m.Weeks, func(w model.MarketingWeek, i int) model.MarketingWeekPoint {
		return model.MarketingWeekPoint{
			Label:   fmt.Sprintf("Week %d", i+1),
			Spend:   w.Spend(),
			Revenue: w.Revenue,
		}
	})

	return &model.MarketingSummary{
		CampaignCount:         len(m.Weeks),
		TotalSpend:            lo.SumBy(m.Weeks, model.MarketingWeek.Spend),
		TotalPredictedRevenue: lo.SumBy(m.Weeks, func(w model.MarketingWeek) float64 { return w.Revenue }),
		ChannelROAS:           m.ROAS,
		RevenueForecast:       m.RevenueForecast,
		Weeks:                 weeks,
	}
}
