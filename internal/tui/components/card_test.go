package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	assert.Equal(t, []int{34, 33, 33}, LayoutRow(100, 3))
	assert.Equal(t, []int{25, 25, 25, 25}, LayoutRow(100, 4))
	assert.Nil(t, LayoutRow(100, 0))
}

func TestCardRowPadsShortCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "Content", 22)
	tall := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4", 22)
	shortLines := lipgloss.Height(short)
	tallLines := lipgloss.Height(tall)
	require.Less(t, shortLines, tallLines)

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	require.Len(t, lines, tallLines)

	// Rows below the short card still carry background styling.
	for i := shortLines; i < len(lines); i++ {
		assert.Contains(t, lines[i], "\x1b[", "line %d has no styling", i)
	}

	want := lipgloss.Width(lines[0])
	for i, l := range lines {
		assert.Equal(t, want, lipgloss.Width(l), "line %d width", i)
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("terminal")
	row := MetricCardRow([]Metric{
		{Label: "Charges", Value: "£520.00"},
		{Label: "Avg", Value: "£104.00", Delta: "per booking"},
	}, 60)
	for _, l := range strings.Split(row, "\n") {
		assert.Equal(t, 60, lipgloss.Width(l))
	}
}

func TestProgressBarClamps(t *testing.T) {
	full := ProgressBar(1.5, 10)
	assert.Contains(t, full, "100%")
	assert.Equal(t, 10, strings.Count(full, "█"))

	empty := ProgressBar(-1, 10)
	assert.Contains(t, empty, "0%")
	assert.Equal(t, 10, strings.Count(empty, "░"))
}
