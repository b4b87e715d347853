package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := map[float64]string{
		0:           "£0.00",
		208:         "£208.00",
		1234.5:      "£1,234.50",
		1234567.891: "£1,234,567.89",
		-12.345:     "-£12.35",
		0.004:       "£0.00",
		-0.004:      "£0.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(in), "%v", in)
	}
}

func TestFormatDeltaAndSlope(t *testing.T) {
	assert.Equal(t, "+£8.00", FormatDelta(100, 108))
	assert.Equal(t, "-£20.00", FormatDelta(120, 100))
	assert.Equal(t, "+£12.00/day", FormatSlope(12))
	assert.Equal(t, "-£3.50/day", FormatSlope(-3.5))
}

func TestFormatROAS(t *testing.T) {
	assert.Equal(t, "2.10x", FormatROAS(2.1))
	assert.Equal(t, "0.00x", FormatROAS(0))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-12,000", FormatNumber(-12000))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Ada", Truncate("Ada", 5))
	assert.Equal(t, "Ada L…", Truncate("Ada Lovelace", 6))
	assert.Equal(t, "…", Truncate("Ada", 1))
}

func TestRenderTable_AlignsWideRunes(t *testing.T) {
	DisableColor()
	out := RenderTable(Table{
		Headers: []string{"Day", "Actual"},
		Rows: [][]string{
			{"Mon", "£100.00"},
			{Separator},
			{"Total", "£1,520.00"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 7)
	width := len([]rune(lines[0]))
	for _, l := range lines {
		assert.Equal(t, width, len([]rune(l)), l)
	}
	assert.Contains(t, out, "│ Mon   │   £100.00 │")
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderSparklineAndBar(t *testing.T) {
	DisableColor()
	assert.Equal(t, "▁▄█", RenderSparkline([]float64{0, 50, 100}))
	assert.Equal(t, "▁▁", RenderSparkline([]float64{0, 0}))
	assert.Equal(t, "█████", RenderBar(10, 10, 5))
	assert.Equal(t, "█", RenderBar(0.1, 10, 5))
	assert.Empty(t, RenderBar(0, 10, 5))
}
