package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/pipeline"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Cache:       %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println("  [Upload]")
	apiURL, src := config.GetAPIURL(cfg, flagAPIURL)
	if apiURL != "" {
		fmt.Printf("    API URL: %s (%s)\n", apiURL, src)
	} else {
		fmt.Printf("    API URL: not configured (set $%s or run `chargesense setup`)\n", config.APIURLEnv)
	}
	fmt.Printf("    Timeout: %s\n", cfg.UploadTimeout())
	fmt.Println()

	fmt.Println("  [Dashboard]")
	fmt.Printf("    Top students: %d\n", cfg.Dashboard.TopStudents)
	fmt.Printf("    Notices:      %s\n", cfg.NoticeTTL())
	fmt.Println()

	fmt.Println("  [Serve]")
	fmt.Printf("    Address:  %s\n", cfg.Serve.Addr)
	if cfg.Serve.InboxDir != "" {
		fmt.Printf("    Inbox:    %s\n", cfg.Serve.InboxDir)
	} else {
		fmt.Println("    Inbox:    not set")
	}
	fmt.Printf("    Interval: %s\n", cfg.PollInterval())
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `chargesense setup` to reconfigure.")
	return nil
}
