package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/pipeline"
)

var flagAllStudents bool

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Per-student predicted charges",
	RunE:  runStudents,
}

func init() {
	studentsCmd.Flags().BoolVarP(&flagAllStudents, "all", "a", false, "Show every student, not just the top rows")
	rootCmd.AddCommand(studentsCmd)
}

func runStudents(cmd *cobra.Command, _ []string) error {
	l, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	d := l.Dashboard

	if len(d.StudentData) == 0 {
		fmt.Println("\n  No students in this upload.")
		return nil
	}

	limit := topStudents()
	if flagAllStudents {
		limit = 0
	}
	shown := pipeline.TopStudents(d.StudentData, limit)

	rows := make([][]string, 0, len(shown))
	for _, s := range shown {
		rows = append(rows, []string{
			cli.Truncate(s.ID, 32),
			s.Day,
			cli.FormatNumber(int64(s.BookingCount)),
			cli.FormatCurrency(s.TotalCharge),
			cli.FormatCurrency(s.Predicted),
		})
	}

	title := "Top Students"
	if len(shown) < len(d.StudentData) {
		title = fmt.Sprintf("Top Students (%d of %d)", len(shown), len(d.StudentData))
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    title,
		Headers:  []string{"Student", "Day", "Bookings", "Charged", "Predicted"},
		Rows:     rows,
		LeftCols: 2,
	}))
	fmt.Printf("\n  Predicted = %s per booking\n\n", cli.FormatCurrency(d.AvgChargePerBooking))
	return nil
}
