package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	apiURL := cfg.Upload.APIURL
	themeName := cfg.Appearance.Theme
	top := strconv.Itoa(cfg.Dashboard.TopStudents)


	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Analytics API URL").
				Description("Base URL of the backend that accepts /upload-weekly.").
				Placeholder("https://analytics.example.com").
				Value(&apiURL).
				Validate(config.ValidateAPIURL),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&themeName),
			huh.NewInput().
				Title("Top students to show").
				Value(&top).
				Validate(validatePositive),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Upload.APIURL = strings.TrimSpace(apiURL)
	cfg.Appearance.Theme = themeName
	cfg.Dashboard.TopStudents, _ = strconv.Atoi(strings.TrimSpace(top))

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `chargesense setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number above zero")
	}
	return nil
}
