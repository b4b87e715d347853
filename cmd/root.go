// Package cmd implements the chargesense CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/logging"
	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/store"
	"github.com/theirongolddev/chargesense/internal/upload"
)

var (
	flagBookings  string
	flagMarketing string
	flagAPIURL    string
	flagNoCache   bool
	flagQuiet     bool
	flagNoColor   bool
	flagLogLevel  string
	flagLogFormat string
	flagTop       int

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chargesense",
	Short: "School transport booking analytics",
	Long: "Upload a weekly bookings export (and optionally a marketing export) to the analytics\n" +
		"backend and review charge forecasts, per-student allocations, bus usage and marketing ROAS.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "  "+cli.Error(userMessage(err)))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagBookings, "bookings", "b", "", "Weekly bookings export to upload (.xlsx)")
	pf.StringVarP(&flagMarketing, "marketing", "m", "", "Optional marketing export to upload after the bookings file")
	pf.StringVar(&flagAPIURL, "api-url", "", "Analytics backend URL (overrides $"+config.APIURLEnv+" and config)")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Do not read or write the local run history")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.IntVarP(&flagTop, "top", "n", 0, "Rows in the top students table (default from config)")
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	level := firstNonEmpty(flagLogLevel, cfg.Logging.Level)
	format := firstNonEmpty(flagLogFormat, cfg.Logging.Format)
	if _, err := logging.Setup(level, format, os.Stderr); err != nil {
		return err
	}

	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		cli.DisableColor()
	}
	return nil
}

// loaded is what a read command renders.
type loaded struct {
	Dashboard *model.Dashboard
	Result    *pipeline.Result // nil when shown from history
}

// loadDashboard uploads the given exports, or falls back to the last
// stored dashboard when no bookings file was given.
func loadDashboard(ctx context.Context) (*loaded, error) {
	var cache *store.Cache
	if !flagNoCache {
		c, err := store.Open(pipeline.CachePath())
		if err != nil {
			slog.Warn("cache unavailable", "err", err)
		} else {
			cache = c
			defer func() { _ = cache.Close() }()
		}
	}

	var prev *model.Dashboard
	if cache != nil {
		d, err := cache.LatestDashboard()
		if err != nil {
			slog.Warn("reading last dashboard failed", "err", err)
		}
		prev = d
	}

	if flagBookings == "" {
		if flagMarketing == "" && prev != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Showing last run from %s (pass --bookings to upload)\n",
					prev.GeneratedAt.Local().Format("Mon 2 Jan 15:04"))
			}
			return &loaded{Dashboard: prev}, nil
		}
		return nil, pipeline.ErrNoBookingsFile
	}

	client, err := newUploader()
	if err != nil {
		return nil, err
	}

	res, err := pipeline.Run(ctx, client, pipeline.Request{
		BookingsPath:  flagBookings,
		MarketingPath: flagMarketing,
	})
	if err != nil {
		return nil, err
	}

	next := pipeline.Apply(prev, res, time.Now())
	if cache != nil {
		if err := cache.SaveRun(flagBookings, flagMarketing, res.Outcome.String(), next); err != nil {
			slog.Warn("saving run failed", "err", err)
		}
	}

	printNotice(res.Notice())
	return &loaded{Dashboard: next, Result: res}, nil
}

func newUploader() (*upload.Client, error) {
	apiURL, src := config.GetAPIURL(cfg, flagAPIURL)
	slog.Debug("resolved API URL", "url", apiURL, "source", string(src))

	opts := []upload.Option{upload.WithTimeout(cfg.UploadTimeout())}
	if !flagQuiet {
		opts = append(opts, upload.WithProgress(func(name string, size int64) io.Writer {
			return progressbar.NewOptions64(size,
				progressbar.OptionSetDescription("  Uploading "+name),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}))
	}
	return upload.NewClient(apiURL, opts...)
}

func printNotice(level notify.Level, msg string) {
	if flagQuiet && level < notify.LevelWarn {
		return
	}
	switch level {
	case notify.LevelWarn:
		fmt.Fprintln(os.Stderr, "  "+cli.Warn(msg))
	case notify.LevelError:
		fmt.Fprintln(os.Stderr, "  "+cli.Error(msg))
	default:
		fmt.Fprintln(os.Stderr, "  "+msg)
	}
}

func userMessage(err error) string {
	var upErr *upload.Error
	if errors.Is(err, pipeline.ErrNoBookingsFile) ||
		errors.Is(err, upload.ErrMissingEndpoint) ||
		errors.As(err, &upErr) {
		return pipeline.ErrorMessage(err)
	}
	return err.Error()
}

func topStudents() int {
	if flagTop > 0 {
		return flagTop
	}
	return cfg.Dashboard.TopStudents
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
