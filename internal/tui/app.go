// Package tui provides the interactive Bubble Tea dashboard.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/tui/components"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

// Recorder stores dashboards after each successful run.
type Recorder interface {
	SaveRun(bookingsFile, marketingFile, outcome string, d *model.Dashboard) error
}

// Options configure a new App.
type Options struct {
	Config     config.Config
	APIURLFlag string
	Request    pipeline.Request
	Initial    *model.Dashboard
	// NewUploader builds the uploader for a run from the current config.
	NewUploader func(cfg config.Config, apiURLFlag string) (pipeline.Uploader, error)
	Recorder    Recorder
}

// runDoneMsg carries the result of a background run.
type runDoneMsg struct {
	res *pipeline.Result
	err error
}

// noticeExpiredMsg asks to clear the notice with this ID.
type noticeExpiredMsg struct {
	id uint64
}

type formKind int

const (
	formNone formKind = iota
	formSetup
	formFiles
)

// App is the root Bubble Tea model.
type App struct {
	opts Options
	cfg  config.Config
	req  pipeline.Request

	dashboard *model.Dashboard
	lastRun   *pipeline.Result

	width     int
	height    int
	activeTab int
	showHelp  bool

	running bool
	spinner spinner.Model
	notice  *notify.Notice

	form     *huh.Form
	formKind formKind
	vals     *formValues

	students studentsState
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:      opts,
		cfg:       opts.Config,
		req:       opts.Request,
		dashboard: opts.Initial,
		spinner:   sp,
		vals:      &formValues{},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return func() tea.Msg { return initMsg{} }
}

type initMsg struct{}

func (a App) needsSetup() bool {
	url, _ := config.GetAPIURL(a.cfg, a.opts.APIURLFlag)
	return url == ""
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case initMsg:
		cmds := []tea.Cmd{tea.EnableMouseCellMotion}
		switch {
		case a.needsSetup():
			cmds = append(cmds, a.openForm(formSetup))
		case a.req.BookingsPath != "":
			cmds = append(cmds, a.startRun())
		case a.dashboard == nil:
			cmds = append(cmds, a.openForm(formFiles))
		}
		return a, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 80)).WithHeight(msg.Height)
		}
		return a, nil

	case runDoneMsg:
		return a, a.finishRun(msg)

	case noticeExpiredMsg:
		if a.notice != nil && a.notice.ID == msg.id {
			a.notice = nil
		}
		return a, nil

	case spinner.TickMsg:
		if !a.running {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.form != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		if a.showHelp {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		case tea.MouseButtonWheelUp:
			a.students.scroll(-1, a.studentCount())
		case tea.MouseButtonWheelDown:
			a.students.scroll(1, a.studentCount())
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.activeTab == tabStudents {
		if handled := a.students.handleKey(key, a.studentCount(), a.pageSize()); handled {
			return a, nil
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		return a, a.startRun()
	case "u":
		if a.running {
			return a, nil
		}
		return a, a.openForm(formFiles)
	case ",":
		if a.running {
			return a, nil
		}
		return a, a.openForm(formSetup)
	case "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if idx := components.TabIdxByKey(key); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// startRun begins a background run for the current request. It is a
// no-op while a run is in flight.
func (a *App) startRun() tea.Cmd {
	if a.running {
		return nil
	}
	if a.req.BookingsPath == "" {
		return a.postNotice(notify.LevelError, pipeline.ErrorMessage(pipeline.ErrNoBookingsFile))
	}
	if a.opts.NewUploader == nil {
		return a.postNotice(notify.LevelError, "No uploader configured.")
	}
	up, err := a.opts.NewUploader(a.cfg, a.opts.APIURLFlag)
	if err != nil {
		return a.postNotice(notify.LevelError, pipeline.ErrorMessage(err))
	}

	a.running = true
	req := a.req
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		res, err := pipeline.Run(context.Background(), up, req)
		return runDoneMsg{res: res, err: err}
	})
}

func (a *App) finishRun(msg runDoneMsg) tea.Cmd {
	a.running = false
	if msg.err != nil {
		slog.Warn("run failed", "err", msg.err)
		return a.postNotice(notify.LevelError, pipeline.ErrorMessage(msg.err))
	}

	next := pipeline.Apply(a.dashboard, msg.res, time.Now())
	a.dashboard = next
	a.lastRun = msg.res
	a.students = studentsState{}

	if a.opts.Recorder != nil {
		req := msg.res.Request
		if err := a.opts.Recorder.SaveRun(req.BookingsPath, req.MarketingPath, msg.res.Outcome.String(), next); err != nil {
			slog.Warn("saving run failed", "err", err)
		}
	}
	return a.postNotice(msg.res.Notice())
}

// postNotice shows msg and schedules its clear. A later notice supersedes
// it, so the scheduled clear only applies while the ID still matches.
func (a *App) postNotice(level notify.Level, msg string) tea.Cmd {
	ttl := a.cfg.NoticeTTL()
	n := notify.New(level, msg, ttl)
	a.notice = &n
	id := n.ID
	return tea.Tick(ttl, func(time.Time) tea.Msg { return noticeExpiredMsg{id: id} })
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) pageSize() int {
	return max(a.height-12, minContentHeight)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.form != nil {
		return a.viewForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  chargesense needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	bindings := []struct{ key, desc string }{
		{"o s b m", "Jump to tab"},
		{"← →", "Previous / next tab"},
		{"j k", "Scroll students"},
		{"a", "All students / top only"},
		{"u", "Choose exports and upload"},
		{"r", "Upload the same exports again"},
		{",", "Settings"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderContextLine(w)

	busy := ""
	if a.running {
		busy = a.spinner.View() + " Uploading " + a.req.Describe()
	}
	statusBar := components.RenderStatusBar(w, a.statusInfo(), a.notice, busy)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.dashboard == nil:
		content = a.renderEmpty(cw)
	case a.activeTab == tabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == tabStudents:
		content = a.renderStudentsTab(cw)
	case a.activeTab == tabBus:
		content = a.renderBusTab(cw)
	case a.activeTab == tabMarketing:
		content = a.renderMarketingTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderContextLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	line := dim.Render(" ")
	if d := a.dashboard; d != nil && d.WeekStart != "" {
		line += dim.Render("w/c ") + accent.Render(d.WeekStart) + dim.Render("  ")
	}
	if a.req.BookingsPath != "" {
		line += dim.Render(a.req.Describe())
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(line)
}

func (a App) statusInfo() string {
	if a.dashboard == nil {
		return "No data"
	}
	info := "Updated " + a.dashboard.GeneratedAt.Local().Format("Mon 15:04")
	if a.lastRun != nil {
		info += fmt.Sprintf(" (%.1fs)", a.lastRun.Elapsed.Seconds())
	}
	return info
}

func (a App) renderEmpty(cw int) string {
	t := theme.Active
	body := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(
		"No analytics yet.\n\nPress u to choose your Weekly Bookings export\n" +
			"(and optionally a marketing export), then upload.")
	return components.ContentCard("Welcome", body, min(cw, 64))
}

// tabAtX returns the tab index at column x of the tab bar, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

func (a App) studentCount() int {
	if a.dashboard == nil {
		return 0
	}
	return len(a.dashboard.StudentData)
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	n := strings.Count(s, "\n") + 1
	if n >= h {
		return s
	}
	return s + strings.Repeat("\n", h-n)
}

// fillLinesWithBackground pads every line to w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
