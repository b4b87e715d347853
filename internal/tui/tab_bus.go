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

func (a App) renderBusTab(cw int) string {
	d := a.dashboard
	matrix := a.renderBusMatrix(cw)

	peak := pipeline.PeakUsage(d.NormalizedBus)
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw}
	}

	labelW := 0
	for _, s := range d.NormalizedBus {
		labelW = max(labelW, lipgloss.Width(s.Service))
	}

	// Mon..Wed on the left, Thu..Fri on the right.
	split := 3 * len(model.Sessions)
	groups := [][]model.BusSlot{d.NormalizedBus}
	if len(halves) == 2 && len(d.NormalizedBus) > split {
		groups = [][]model.BusSlot{d.NormalizedBus[:split], d.NormalizedBus[split:]}
	}

	cards := make([]string, len(groups))
	for i, g := range groups {
		barW := max(components.CardInnerWidth(halves[i])-labelW-7, 6)
		lines := make([]string, 0, len(g))
		for _, s := range g {
			lines = append(lines, components.UsageBar(s.Service, s.Usage, peak, labelW, barW))
		}
		title := "Riders by service"
		if i > 0 {
			title = ""
		}
		cards[i] = components.ContentCard(title, strings.Join(lines, "\n"), halves[i])
	}

	return matrix + "\n" + components.CardRow(cards)
}

func (a App) renderBusMatrix(cw int) string {
	t := theme.Active
	d := a.dashboard
	matrix := pipeline.BusMatrix(d.NormalizedBus)

	head := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	colW := 14

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("%-6s", "")))
	for _, s := range model.Sessions {
		b.WriteString(head.Render(fmt.Sprintf("%*s", colW, s)))
	}
	b.WriteString(head.Render(fmt.Sprintf("%*s", colW, "Total")))

	for i, day := range model.Weekdays {
		b.WriteString("\n")
		b.WriteString(head.Render(fmt.Sprintf("%-6s", day)))
		total := 0
		for _, v := range matrix[i] {
			total += v
			b.WriteString(cell.Render(fmt.Sprintf("%*s", colW, cli.FormatNumber(int64(v)))))
		}
		b.WriteString(head.Render(fmt.Sprintf("%*s", colW, cli.FormatNumber(int64(total)))))
	}

	title := fmt.Sprintf("Bus Usage (%s riders)", cli.FormatNumber(int64(d.TotalBusUsage())))
	return components.ContentCard(title, b.String(), cw)
}
