package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/tui/components"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabStudents
	tabBus
	tabMarketing
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	d := a.dashboard

	metrics := []components.Metric{
		{Label: "Charges", Value: cli.FormatCurrency(d.TotalActual()), Delta: "Mon to Fri"},
		{Label: "Avg per booking", Value: cli.FormatCurrency(d.AvgChargePerBooking),
			Delta: cli.FormatNumber(int64(d.TotalBookings())) + " bookings"},
		{Label: "Trend", Value: cli.FormatSlope(d.Trend.Slope),
			Delta: "Fri forecast " + cli.FormatCurrency(d.Trend.At(4))},
		{Label: "Students", Value: cli.FormatNumber(int64(len(d.StudentData))),
			Delta: cli.FormatNumber(int64(d.TotalBusUsage())) + " bus riders"},
	}
	if a.isCompactLayout() {
		metrics = metrics[:3]
	}

	labels := make([]string, len(d.WeeklyWithPredicted))
	actual := make([]float64, len(d.WeeklyWithPredicted))
	predicted := make([]float64, len(d.WeeklyWithPredicted))
	for i, p := range d.WeeklyWithPredicted {
		labels[i] = p.Day
		actual[i] = p.Actual
		predicted[i] = p.Predicted
	}

	chart := components.PairedBars(labels,
		components.Series{Name: "Actual", Values: actual, Color: t.Blue},
		components.Series{Name: "Predicted", Values: predicted, Color: t.Accent},
		components.CardInnerWidth(cw),
		cli.FormatCurrency,
	)

	fit := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(
		fmt.Sprintf("predicted = %.2f × day + %.2f", d.Trend.Slope, d.Trend.Intercept))

	return components.MetricCardRow(metrics, cw) + "\n" +
		components.ContentCard("Weekly Charges", chart+"\n"+fit, cw)
}
