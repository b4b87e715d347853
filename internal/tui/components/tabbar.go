package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

// Tab is one entry in the tab bar.
type Tab struct {
	Name string
	Key  string
}

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: "o"},
	{Name: "Students", Key: "s"},
	{Name: "Bus", Key: "b"},
	{Name: "Marketing", Key: "m"},
}

// TabIdxByKey returns the tab bound to key, or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

func tabLabel(tab Tab, active bool) string {
	if active {
		return tab.Name
	}
	// Shortcut letters are the first letter of every tab name.
	return "[" + tab.Name[:1] + "]" + tab.Name[1:]
}

// TabVisualWidth is the rendered width of one tab, including padding.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(tabLabel(tab, active)) + 2
}

// RenderTabBar renders a single-row tab bar padded to width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)
	sepStyle := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tabLabel(tab, true))
		} else {
			parts[i] = inactiveStyle.Render(tabLabel(tab, false))
		}
	}
	row := strings.Join(parts, sepStyle.Render("│"))

	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(row)
}
