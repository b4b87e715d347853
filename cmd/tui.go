package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/logging"
	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/store"
	"github.com/theirongolddev/chargesense/internal/tui"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
	"github.com/theirongolddev/chargesense/internal/upload"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling always produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would tear the alt screen; send them to a file instead.
	logPath := filepath.Join(pipeline.CacheDir(), "tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err == nil {
		//nolint:gosec // log path is derived from the user's cache dir
		if f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600); err == nil {
			defer func() { _ = f.Close() }()
			_, _ = logging.Setup(firstNonEmpty(flagLogLevel, cfg.Logging.Level), "json", f)
		}
	}

	opts := tui.Options{
		Config:      cfg,
		APIURLFlag:  flagAPIURL,
		Request:     pipeline.Request{BookingsPath: flagBookings, MarketingPath: flagMarketing},
		NewUploader: tuiUploader,
	}

	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			slog.Warn("cache unavailable", "err", err)
		} else {
			defer func() { _ = cache.Close() }()
			opts.Recorder = cache
			var prev *model.Dashboard
			if prev, err = cache.LatestDashboard(); err != nil {
				slog.Warn("reading last dashboard failed", "err", err)
			}
			opts.Initial = prev
		}
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// tuiUploader builds an uploader without a terminal progress bar.
func tuiUploader(c config.Config, apiURLFlag string) (pipeline.Uploader, error) {
	apiURL, _ := config.GetAPIURL(c, apiURLFlag)
	client, err := upload.NewClient(apiURL, upload.WithTimeout(c.UploadTimeout()))
	if err != nil {
		return nil, err
	}
	return client, nil
}
