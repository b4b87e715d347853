package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/pipeline"
)

var flagBusMatrix bool

var busCmd = &cobra.Command{
	Use:   "bus",
	Short: "Bus usage for every day and session",
	RunE:  runBus,
}

func init() {
	busCmd.Flags().BoolVar(&flagBusMatrix, "matrix", false, "Show a day by session grid instead of a list")
	rootCmd.AddCommand(busCmd)
}

func runBus(cmd *cobra.Command, _ []string) error {
	l, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	slots := l.Dashboard.NormalizedBus

	fmt.Println()
	if flagBusMatrix {
		fmt.Print(renderBusMatrix(slots))
	} else {
		fmt.Print(renderBusList(slots))
	}
	fmt.Printf("\n  %s riders in total\n\n", cli.FormatNumber(int64(l.Dashboard.TotalBusUsage())))
	return nil
}

func renderBusList(slots []model.BusSlot) string {
	peak := float64(pipeline.PeakUsage(slots))
	rows := make([][]string, 0, len(slots)+len(model.Weekdays))
	for i, s := range slots {
		if i > 0 && s.Day != slots[i-1].Day {
			rows = append(rows, []string{cli.Separator})
		}
		rows = append(rows, []string{
			s.Day,
			s.Session,
			cli.FormatNumber(int64(s.Usage)),
			cli.RenderBar(float64(s.Usage), peak, 20),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:    "Bus Usage",
		Headers:  []string{"Day", "Session", "Riders", ""},
		Rows:     rows,
		LeftCols: 2,
	})
}

func renderBusMatrix(slots []model.BusSlot) string {
	matrix := pipeline.BusMatrix(slots)
	headers := append([]string{"Day"}, model.Sessions...)
	rows := make([][]string, 0, len(matrix))
	for i, day := range model.Weekdays {
		row := []string{day}
		for _, v := range matrix[i] {
			row = append(row, cli.FormatNumber(int64(v)))
		}
		rows = append(rows, row)
	}
	return cli.RenderTable(cli.Table{
		Title:   "Bus Usage",
		Headers: headers,
		Rows:    rows,
	})
}
