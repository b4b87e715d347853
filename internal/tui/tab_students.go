package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/tui/components"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

// studentsState is the Students tab's scroll and view mode.
type studentsState struct {
	showAll bool
	offset  int
}

func (s *studentsState) scroll(delta, total int) {
	s.offset = min(max(s.offset+delta, 0), max(total-1, 0))
}

// handleKey reports whether the key was consumed by the tab.
func (s *studentsState) handleKey(key string, total, page int) bool {
	switch key {
	case "a":
		s.showAll = !s.showAll
		s.offset = 0
	case "j", "down":
		s.scroll(1, total)
	case "k", "up":
		s.scroll(-1, total)
	case "ctrl+d":
		s.scroll(page/2, total)
	case "ctrl+u":
		s.scroll(-page/2, total)
	case "g":
		s.offset = 0
	case "G":
		s.scroll(total, total)
	default:
		return false
	}
	return true
}

func (a App) visibleStudents() []model.CustomerSegment {
	d := a.dashboard
	if a.students.showAll {
		return d.StudentData
	}
	return pipeline.TopStudents(d.StudentData, a.cfg.Dashboard.TopStudents)
}

func (a App) renderStudentsTab(cw int) string {
	t := theme.Active
	d := a.dashboard
	rows := a.visibleStudents()

	title := fmt.Sprintf("Top %d Students", len(rows))
	if a.students.showAll {
		title = fmt.Sprintf("All %d Students", len(rows))
	}
	if len(rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No students in this upload.")
		return components.ContentCard("Students", empty, cw)
	}

	inner := components.CardInnerWidth(cw)
	numW := 12
	idW := max(inner-4*numW, 12)

	head := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	money := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("%-*s%*s%*s%*s%*s", idW, "Student", numW, "Day", numW, "Bookings", numW, "Charged", numW, "Predicted")))
	b.WriteString("\n")

	start := min(a.students.offset, len(rows)-1)
	end := min(start+a.pageSize(), len(rows))
	for _, s := range rows[start:end] {
		b.WriteString(cell.Render(fmt.Sprintf("%-*s%*s%*s%*s",
			idW, cli.Truncate(s.ID, idW-1),
			numW, s.Day,
			numW, cli.FormatNumber(int64(s.BookingCount)),
			numW, cli.FormatCurrency(s.TotalCharge))))
		b.WriteString(money.Render(fmt.Sprintf("%*s", numW, cli.FormatCurrency(s.Predicted))))
		b.WriteString("\n")
	}

	foot := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	b.WriteString(foot.Render(fmt.Sprintf("%d–%d of %d · predicted at %s per booking · [a] toggle all",
		start+1, end, len(rows), cli.FormatCurrency(d.AvgChargePerBooking))))

	return components.ContentCard(title, b.String(), cw)
}
