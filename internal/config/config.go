// Package config loads and saves the chargesense TOML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// APIURLEnv overrides [upload] api_url when set.
const APIURLEnv = "CHARGESENSE_API_URL"

// Config holds all chargesense configuration.
type Config struct {
	Upload     UploadConfig     `toml:"upload"`
	Dashboard  DashboardConfig  `toml:"dashboard"`
	Serve      ServeConfig      `toml:"serve"`
	Logging    LoggingConfig    `toml:"logging"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// UploadConfig points at the analytics backend.
type UploadConfig struct {
	APIURL     string `toml:"api_url,omitempty"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// DashboardConfig holds display preferences.
type DashboardConfig struct {
	TopStudents   int `toml:"top_students"`
	NoticeSeconds int `toml:"notice_seconds"`
}

// ServeConfig holds settings for `chargesense serve`.
type ServeConfig struct {
	Addr        string `toml:"addr"`
	InboxDir    string `toml:"inbox_dir,omitempty"`
	IntervalSec int    `toml:"interval_sec"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Upload: UploadConfig{
			TimeoutSec: 60,
		},
		Dashboard: DashboardConfig{
			TopStudents:   10,
			NoticeSeconds: 3,
		},
		Serve: ServeConfig{
			Addr:        "127.0.0.1:8787",
			IntervalSec: 15,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// UploadTimeout is the per-file upload timeout.
func (c Config) UploadTimeout() time.Duration {
	return seconds(c.Upload.TimeoutSec, 60)
}

// NoticeTTL is how long notices stay on screen.
func (c Config) NoticeTTL() time.Duration {
	return seconds(c.Dashboard.NoticeSeconds, 3)
}

// PollInterval is the serve inbox polling interval.
func (c Config) PollInterval() time.Duration {
	return seconds(c.Serve.IntervalSec, 15)
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chargesense")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "chargesense")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// URLSource says where the effective API URL came from.
type URLSource string

const (
	SourceNone URLSource = "not configured"
	SourceFlag URLSource = "flag"
	SourceEnv  URLSource = "env"
	SourceFile URLSource = "config file"
)

// GetAPIURL resolves the API URL from the flag value, the environment and
// the config file, in that order.
func GetAPIURL(cfg Config, flagValue string) (string, URLSource) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, SourceFlag
	}
	if v := strings.TrimSpace(os.Getenv(APIURLEnv)); v != "" {
		return v, SourceEnv
	}
	if v := strings.TrimSpace(cfg.Upload.APIURL); v != "" {
		return v, SourceFile
	}
	return "", SourceNone
}

// ValidateAPIURL accepts an empty string or an absolute http(s) URL.
func ValidateAPIURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q: want http(s)://host", s)
	}
	return nil
}
