package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/source"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

// formValues backs the huh forms. It lives behind a pointer so the form
// keeps writing to the same place as the App value is copied.
type formValues struct {
	apiURL    string
	theme     string
	bookings  string
	marketing string
}

func newSetupForm(v *formValues) *huh.Form {

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to chargesense").
				Description("Uploads go to your analytics backend.\nThe URL is saved to "+config.Path()+"."),
			huh.NewInput().
				Title("Analytics API URL").
				Placeholder("https://analytics.example.com").
				Value(&v.apiURL).
				Validate(requireAPIURL),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.theme),
		),
	).WithShowHelp(false)
}

func newFilesForm(v *formValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Weekly Bookings export").
				Description("Path to the .xlsx file for this week.").
				Value(&v.bookings).
				Validate(requireFile),
			huh.NewInput().
				Title("Marketing export (optional)").
				Description("Uploaded after the bookings file. Leave blank to skip.").
				Value(&v.marketing).
				Validate(optionalFile),
		),
	).WithShowHelp(false)
}

func requireAPIURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("an API URL is required")
	}
	return config.ValidateAPIURL(s)
}

func requireFile(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New(pipeline.ErrorMessage(pipeline.ErrNoBookingsFile))
	}
	return optionalFile(s)
}

func optionalFile(s string) error {
	s = expandHome(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	st, err := os.Stat(s)
	if err != nil {
		return errors.New("file not found")
	}
	if st.IsDir() {
		return errors.New("that is a folder, not a file")
	}
	return nil
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}

// openForm shows the given form, prefilled from the current state.
func (a *App) openForm(kind formKind) tea.Cmd {
	*a.vals = formValues{
		apiURL:    a.cfg.Upload.APIURL,
		theme:     theme.Active.Name,
		bookings:  a.req.BookingsPath,
		marketing: a.req.MarketingPath,
	}
	if kind == formFiles && a.req.BookingsPath == "" {
		a.prefillFromFolder()
	}

	switch kind {
	case formSetup:
		a.form = newSetupForm(a.vals)
	case formFiles:
		a.form = newFilesForm(a.vals)
	default:
		return nil
	}
	a.formKind = kind
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 80)).WithHeight(a.height)
	}
	return a.form.Init()
}

// prefillFromFolder suggests the newest exports in the working directory.
func (a *App) prefillFromFolder() {
	files, err := source.ScanDir(".")
	if err != nil {
		return
	}
	if f, ok := source.Latest(files, source.KindBookings); ok {
		a.vals.bookings = f.Path
	}
	if f, ok := source.Latest(files, source.KindMarketing); ok {
		a.vals.marketing = f.Path
	}
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind := a.formKind
		a.form, a.formKind = nil, formNone
		return a, a.completeForm(kind)
	case huh.StateAborted:
		a.form, a.formKind = nil, formNone
		return a, nil
	}
	return a, cmd
}

func (a *App) completeForm(kind formKind) tea.Cmd {
	switch kind {
	case formSetup:
		a.cfg.Upload.APIURL = strings.TrimSpace(a.vals.apiURL)
		a.cfg.Appearance.Theme = a.vals.theme
		theme.SetActive(a.vals.theme)
		if err := config.Save(a.cfg); err != nil {
			return a.postNotice(notify.LevelWarn, "Could not save config: "+err.Error())
		}
		if a.req.BookingsPath == "" {
			return a.openForm(formFiles)
		}
		return a.startRun()

	case formFiles:
		a.req = pipeline.Request{
			BookingsPath:  expandHome(strings.TrimSpace(a.vals.bookings)),
			MarketingPath: expandHome(strings.TrimSpace(a.vals.marketing)),
		}
		return a.startRun()
	}
	return nil
}

func (a App) viewForm() string {
	t := theme.Active
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.form.View(),
		lipgloss.WithWhitespaceBackground(t.Background))
}
