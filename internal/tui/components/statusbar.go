package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

// NoticeColor maps a notice level to a theme color.
func NoticeColor(l notify.Level) lipgloss.Color {
	t := theme.Active
	switch l {
	case notify.LevelSuccess:
		return t.Green
	case notify.LevelWarn:
		return t.Orange
	case notify.LevelError:
		return t.Red
	default:
		return t.Blue
	}
}

// RenderStatusBar renders the bottom bar. A current notice replaces the
// key hints on the left; info is right-aligned.
func RenderStatusBar(width int, info string, notice *notify.Notice, busy string) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := hint.Render(" [?]help  [u]pload  [r]erun  [q]uit")
	if busy != "" {
		left = lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render(" " + busy)
	}
	if notice != nil {
		left = lipgloss.NewStyle().
			Foreground(NoticeColor(notice.Level)).
			Background(t.Surface).
			Bold(true).
			Render(" " + notice.Message)
	}

	right := base.Render(info + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		maxLeft := max(width-lipgloss.Width(right)-1, 0)
		left = lipgloss.NewStyle().MaxWidth(maxLeft).Render(left)
		gap = max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	}
	return left + base.Render(strings.Repeat(" ", gap)) + right
}
