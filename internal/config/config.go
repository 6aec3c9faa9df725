// Package config loads and saves the ratewatch TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Environment variables that override the configured base URL, in order.
const (
	EnvBaseURL         = "RATEWATCH_BASE_URL"
	EnvBaseURLFallback = "API_BASE_URL"
)

const (
	// MinRefreshIntervalSec keeps the poller from hammering the API.
	MinRefreshIntervalSec     = 30
	DefaultRefreshIntervalSec = 300
	DefaultTimeoutSec         = 10
)

// ErrMissingBaseURL is returned when no API base URL is configured anywhere.
var ErrMissingBaseURL = errors.New("config: API base URL is not configured")

// Config holds all ratewatch configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Estimates  EstimatesConfig  `toml:"estimates"`
	Refresh    RefreshConfig    `toml:"refresh"`
	Appearance AppearanceConfig `toml:"appearance"`
	History    HistoryConfig    `toml:"history"`
	Log        LogConfig        `toml:"log"`
}

// APIConfig points at the indicator API.
type APIConfig struct {
	BaseURL    string `toml:"base_url,omitempty" validate:"omitempty,url"`
	TimeoutSec int    `toml:"timeout_sec" validate:"gte=1,lte=120"`
}

// EstimatesConfig holds the default user estimates, in percent.
type EstimatesConfig struct {
	Inflation float64 `toml:"inflation" validate:"gte=-100,lte=100"`
	Growth    float64 `toml:"growth" validate:"gte=-100,lte=100"`
}

// RefreshConfig controls the periodic refetch.
type RefreshConfig struct {
	IntervalSec int `toml:"interval_sec" validate:"gte=30"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// HistoryConfig controls the local snapshot history.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
	Keep    int  `toml:"keep" validate:"gte=0"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
	File   string `toml:"file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			TimeoutSec: DefaultTimeoutSec,
		},
		Estimates: EstimatesConfig{
			Inflation: 2.5,
			Growth:    1.5,
		},
		Refresh: RefreshConfig{
			IntervalSec: DefaultRefreshIntervalSec,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    2000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ratewatch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ratewatch")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory for logs, pid files and history.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ratewatch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "ratewatch")
}

// HistoryPath returns the path of the SQLite snapshot history.
func HistoryPath() string {
	return filepath.Join(CacheDir(), "history.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config location
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

var validate = validator.New()

// Validate checks field ranges and formats.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetBaseURL returns the API base URL from env vars or config, in that order.
func GetBaseURL(cfg Config) string {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURLFallback)); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.API.BaseURL)
}

// RequireBaseURL is GetBaseURL that fails with ErrMissingBaseURL when unset.
func RequireBaseURL(cfg Config) (string, error) {
	u := GetBaseURL(cfg)
	if u == "" {
		return "", ErrMissingBaseURL
	}
	return u, nil
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.API.TimeoutSec <= 0 {
		return DefaultTimeoutSec * time.Second
	}
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// RefreshInterval returns the refetch interval, clamped to the minimum.
func (c Config) RefreshInterval() time.Duration {
	sec := c.Refresh.IntervalSec
	if sec < MinRefreshIntervalSec {
		sec = DefaultRefreshIntervalSec
	}
	return time.Duration(sec) * time.Second
}
