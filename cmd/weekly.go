package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Actual vs predicted charges per weekday",
	RunE:  runWeekly,
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}

func runWeekly(cmd *cobra.Command, _ []string) error {
	l, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	d := l.Dashboard

	fmt.Println()
	fmt.Print(renderWeeklyTable(d))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues([]cli.KeyValue{
		{Key: "Fit", Value: fmt.Sprintf("predicted = %.2f * day + %.2f", d.Trend.Slope, d.Trend.Intercept)},
		{Key: "Slope", Value: cli.FormatSlope(d.Trend.Slope)},
		{Key: "Avg per booking", Value: cli.FormatCurrency(d.AvgChargePerBooking), Money: true},
	}))
	fmt.Println()
	return nil
}
