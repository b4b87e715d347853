package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

func TestTickStep(t *testing.T) {
	assert.InDelta(t, 20.0, tickStep(100), 1e-9)
	assert.InDelta(t, 50.0, tickStep(230), 1e-9)
	assert.InDelta(t, 1.0, tickStep(0), 1e-9)
}

func TestAxisLabel(t *testing.T) {
	assert.Equal(t, "2k", axisLabel(2000))
	assert.Equal(t, "1.5k", axisLabel(1500))
	assert.Equal(t, "40", axisLabel(40))
	assert.Equal(t, "3M", axisLabel(3e6))
}

func TestPairedBarsRowsPerLabel(t *testing.T) {
	theme.SetActive("terminal")
	out := PairedBars(
		[]string{"Mon", "Tue"},
		Series{Name: "Actual", Values: []float64{100, 50}, Color: theme.Active.Blue},
		Series{Name: "Predicted", Values: []float64{80, 92}, Color: theme.Active.Accent},
		50,
		func(v float64) string { return axisLabel(v) },
	)
	lines := strings.Split(out, "\n")
	// Two rows per label, a blank line, then the legend.
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[5], "Predicted")
	assert.Equal(t, lipgloss.Width(lines[0]), lipgloss.Width(lines[1]))
}

func TestBarChartNarrowFallsBackToSparkline(t *testing.T) {
	theme.SetActive("terminal")
	out := BarChart([]float64{1, 2, 3}, nil, theme.Active.Blue, 10, 8)
	assert.Equal(t, 1, lipgloss.Height(out))
}
