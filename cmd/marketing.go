package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/model"
)

var marketingCmd = &cobra.Command{
	Use:   "marketing",
	Short: "Marketing spend, predicted revenue and channel ROAS",
	RunE:  runMarketing,
}

func init() {
	rootCmd.AddCommand(marketingCmd)
}

func runMarketing(cmd *cobra.Command, _ []string) error {
	l, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	m := l.Dashboard.MarketingAnalytics
	if m == nil {
		fmt.Println()
		fmt.Println("  No marketing analytics.")
		fmt.Println("  Upload a marketing export with --marketing alongside --bookings.")
		fmt.Println()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MARKETING  " + cli.Pluralize(m.CampaignCount, "campaign week")))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues([]cli.KeyValue{
		{Key: "Total spend", Value: cli.FormatCurrency(m.TotalSpend), Money: true},
		{Key: "Predicted revenue", Value: cli.FormatCurrency(m.TotalPredictedRevenue), Money: true},
		{Key: "Revenue forecast", Value: cli.FormatCurrency(m.RevenueForecast), Money: true},
	}))
	fmt.Println()
	fmt.Print(renderROASTable(m.ChannelROAS))
	fmt.Println()
	fmt.Print(renderMarketingWeeks(m))
	fmt.Println()
	return nil
}

func renderROASTable(r model.ChannelROAS) string {
	return cli.RenderTable(cli.Table{
		Title:   "Return on ad spend",
		Headers: []string{"Channel", "ROAS"},
		Rows: [][]string{
			{"Search", cli.FormatROAS(r.Search)},
			{"Social", cli.FormatROAS(r.Social)},
			{"Email", cli.FormatROAS(r.Email)},
		},
	})
}

func renderMarketingWeeks(m *model.MarketingSummary) string {
	peak := 0.0
	for _, w := range m.Weeks {
		peak = max(peak, w.Spend, w.Revenue)
	}
	rows := make([][]string, 0, len(m.Weeks))
	for _, w := range m.Weeks {
		rows = append(rows, []string{
			w.Label,
			cli.FormatCurrency(w.Spend),
			cli.FormatCurrency(w.Revenue),
			cli.RenderBar(w.Revenue, peak, 20),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   "Spend vs revenue",
		Headers: []string{"Week", "Spend", "Revenue", ""},
		Rows:    rows,
	})
}
