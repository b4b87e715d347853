package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/model"
)

var flagJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Weekly charges, forecast and headline figures",
	RunE:  runSummary,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, summaryCmd} {
		c.Flags().BoolVar(&flagJSON, "json", false, "Print the dashboard view-model as JSON")
	}
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	l, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	d := l.Dashboard

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(summaryTitle(d)))
	fmt.Println()

	fmt.Print(cli.RenderKeyValues([]cli.KeyValue{
		{Key: "Total charges", Value: cli.FormatCurrency(d.TotalActual()), Money: true},
		{Key: "Avg per booking", Value: cli.FormatCurrency(d.AvgChargePerBooking), Money: true},
		{Key: "Trend", Value: cli.FormatSlope(d.Trend.Slope)},
		{Key: "Students", Value: cli.FormatNumber(int64(len(d.StudentData)))},
		{Key: "Bookings", Value: cli.FormatNumber(int64(d.TotalBookings()))},
		{Key: "Bus riders", Value: cli.FormatNumber(int64(d.TotalBusUsage()))},
	}))
	fmt.Println()

	fmt.Print(renderWeeklyTable(d))
	fmt.Println()

	if m := d.MarketingAnalytics; m != nil {
		fmt.Print(cli.RenderKeyValues([]cli.KeyValue{
			{Key: "Campaigns", Value: cli.FormatNumber(int64(m.CampaignCount))},
			{Key: "Marketing spend", Value: cli.FormatCurrency(m.TotalSpend), Money: true},
			{Key: "Predicted revenue", Value: cli.FormatCurrency(m.TotalPredictedRevenue), Money: true},
			{Key: "ROAS (search)", Value: cli.FormatROAS(m.ChannelROAS.Search)},
		}))
	} else {
		fmt.Println("  " + cli.Muted("No marketing analytics. Upload one with --marketing."))
	}
	fmt.Println()
	return nil
}

func summaryTitle(d *model.Dashboard) string {
	if d.WeekStart != "" {
		return "WEEKLY BOOKINGS  w/c " + d.WeekStart
	}
	return "WEEKLY BOOKINGS"
}

func renderWeeklyTable(d *model.Dashboard) string {
	actuals := make([]float64, 0, len(d.WeeklyWithPredicted))
	rows := make([][]string, 0, len(d.WeeklyWithPredicted)+2)
	for _, p := range d.WeeklyWithPredicted {
		actuals = append(actuals, p.Actual)
		rows = append(rows, []string{
			p.Day,
			cli.FormatCurrency(p.Actual),
			cli.FormatCurrency(p.Predicted),
			cli.FormatDelta(p.Actual, p.Predicted),
		})
	}
	rows = append(rows, []string{cli.Separator})
	rows = append(rows, []string{"Total", cli.FormatCurrency(d.TotalActual()), "", cli.RenderSparkline(actuals)})

	return cli.RenderTable(cli.Table{
		Title:   "Charges by day",
		Headers: []string{"Day", "Actual", "Predicted", "Diff"},
		Rows:    rows,
	})
}
