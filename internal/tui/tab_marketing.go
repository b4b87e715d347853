package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/tui/components"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

func (a App) renderMarketingTab(cw int) string {
	t := theme.Active
	m := a.dashboard.MarketingAnalytics
	if m == nil {
		body := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(
			"No marketing analytics.\n\nPress u and add a marketing export to upload it\nafter the bookings file.")
		return components.ContentCard("Marketing", body, min(cw, 64))
	}

	metrics := []components.Metric{
		{Label: "Campaign weeks", Value: cli.FormatNumber(int64(m.CampaignCount))},
		{Label: "Total spend", Value: cli.FormatCurrency(m.TotalSpend)},
		{Label: "Predicted revenue", Value: cli.FormatCurrency(m.TotalPredictedRevenue)},
		{Label: "Revenue forecast", Value: cli.FormatCurrency(m.RevenueForecast)},
	}

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}

	labels := make([]string, len(m.Weeks))
	revenue := make([]float64, len(m.Weeks))
	spend := make([]float64, len(m.Weeks))
	for i, w := range m.Weeks {
		labels[i] = "W" + strings.TrimPrefix(w.Label, "Week ")
		revenue[i] = w.Revenue
		spend[i] = w.Spend
	}

	revenueCard := components.ContentCard("Revenue by week",
		components.BarChart(revenue, labels, t.Green, components.CardInnerWidth(halves[0]), 8),
		halves[0])

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	roasLine := func(name string, v float64) string {
		return label.Render(fmt.Sprintf("%-8s", name)) + value.Render(fmt.Sprintf("%8s", cli.FormatROAS(v)))
	}
	roas := strings.Join([]string{
		roasLine("Search", m.ChannelROAS.Search),
		roasLine("Social", m.ChannelROAS.Social),
		roasLine("Email", m.ChannelROAS.Email),
		"",
		label.Render("Cost   ") + components.ProgressBar(spendShare(m.TotalSpend, m.TotalPredictedRevenue),
			max(components.CardInnerWidth(halves[1])-13, 4)),
		label.Render("Spend  ") + components.Sparkline(spend, t.Orange),
		label.Render("Revenue") + components.Sparkline(revenue, t.Green),
	}, "\n")
	roasCard := components.ContentCard("Return on ad spend", roas, halves[1])

	var row string
	if a.isCompactLayout() {
		row = revenueCard + "\n" + roasCard
	} else {
		row = components.CardRow([]string{revenueCard, roasCard})
	}
	return components.MetricCardRow(metrics, cw) + "\n" + row
}

// spendShare is spend as a fraction of predicted revenue.
func spendShare(spend, revenue float64) float64 {
	if revenue <= 0 {
		if spend > 0 {
			return 1
		}
		return 0
	}
	return spend / revenue
}
