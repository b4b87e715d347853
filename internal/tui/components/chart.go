package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders one block character per value, scaled to the peak.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = min(max(idx, 0), len(sparkBlocks)-1)
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// Series is one named set of values drawn by PairedBars.
type Series struct {
	Name   string
	Values []float64
	Color  lipgloss.Color
}

// PairedBars draws two horizontal bars per label, one for each series,
// scaled to the largest value across both. format renders the value shown
// after each bar.
func PairedBars(labels []string, a, b Series, width int, format func(float64) string) string {
	t := theme.Active
	if len(labels) == 0 {
		return ""
	}

	peak := 0.0
	valW := 0
	for i := range labels {
		for _, s := range []Series{a, b} {
			if i < len(s.Values) {
				peak = max(peak, s.Values[i])
				valW = max(valW, lipgloss.Width(format(s.Values[i])))
			}
		}
	}
	if peak <= 0 {
		peak = 1
	}

	labelW := 0
	for _, l := range labels {
		labelW = max(labelW, lipgloss.Width(l))
	}
	barW := max(width-labelW-valW-4, 4)

	bg := lipgloss.NewStyle().Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	trackStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	row := func(label string, s Series, i int) string {
		v := 0.0
		if i < len(s.Values) {
			v = s.Values[i]
		}
		filled := min(max(int(math.Round(v/peak*float64(barW))), 0), barW)
		fill := lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface)
		return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
			bg.Render(" ") +
			fill.Render(strings.Repeat("█", filled)) +
			trackStyle.Render(strings.Repeat("·", barW-filled)) +
			bg.Render(" ") +
			valueStyle.Render(fmt.Sprintf("%*s", valW, format(v)))
	}

	var out strings.Builder
	for i, l := range labels {
		out.WriteString(row(l, a, i))
		out.WriteString("\n")
		out.WriteString(row("", b, i))
		if i < len(labels)-1 {
			out.WriteString("\n")
		}
	}

	legend := lipgloss.NewStyle().Foreground(a.Color).Background(t.Surface).Render("█ "+a.Name) +
		bg.Render("   ") +
		lipgloss.NewStyle().Foreground(b.Color).Background(t.Surface).Render("█ "+b.Name)
	return out.String() + "\n\n" + legend
}

// BarChart renders a vertical bar chart with a y axis and x labels.
// Narrow areas fall back to a sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	step := tickStep(peak)
	for int(math.Ceil(peak/step)) > max(height/2, 2) {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	intervals := max(int(math.Round(ceiling/step)), 1)
	rowsPerTick := max(height/intervals, 2)
	chartH := rowsPerTick * intervals

	yLabelW := max(len(axisLabel(ceiling))+1, 4)
	ticks := make(map[int]string, intervals)
	for i := 1; i <= intervals; i++ {
		ticks[i*rowsPerTick] = axisLabel(step * float64(i))
	}

	n := len(values)
	gap := 1
	if n == 1 {
		gap = 0
	}
	chartW := max(width-yLabelW-1, 5)
	barW := min(max((chartW-(n-1)*gap)/n, 1), 8)
	axisLen := n*barW + (n-1)*gap

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	partial := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		barColor := color
		if float64(row)/float64(chartH) > 0.8 {
			barColor = t.AccentBright
		}
		bar := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)

		b.WriteString(axis.Render(fmt.Sprintf("%*s", yLabelW, ticks[row])))
		b.WriteString(axis.Render("│"))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := min(max(int((v-bottom)/(top-bottom)*8), 1), 8)
				b.WriteString(bar.Render(strings.Repeat(string(partial[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axis.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axis.Render("└" + strings.Repeat("─", axisLen)))

	if len(labels) == n {
		line := []rune(strings.Repeat(" ", axisLen))
		lastEnd := -1
		for i, l := range labels {
			pos := i * (barW + gap)
			r := []rune(l)
			if pos <= lastEnd || pos+len(r) > axisLen {
				continue
			}
			copy(line[pos:], r)
			lastEnd = pos + len(r)
		}
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axis.Render(strings.TrimRight(string(line), " ")))
	}
	return b.String()
}

// tickStep picks a 1/2/5 interval giving about five ticks.
func tickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func axisLabel(v float64) string {
	trim := func(x float64, unit string) string {
		if x == math.Trunc(x) {
			return fmt.Sprintf("%.0f%s", x, unit)
		}
		return fmt.Sprintf("%.1f%s", x, unit)
	}
	switch {
	case v >= 1e6:
		return trim(v/1e6, "M")
	case v >= 1e3:
		return trim(v/1e3, "k")
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
