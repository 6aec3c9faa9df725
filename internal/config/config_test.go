package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Estimates.Inflation != 2.5 || cfg.Estimates.Growth != 1.5 {
		t.Errorf("estimates = %+v, want 2.5/1.5", cfg.Estimates)
	}
	if cfg.RefreshInterval() != 5*time.Minute {
		t.Errorf("RefreshInterval = %s, want 5m", cfg.RefreshInterval())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://rates.example.com"
	cfg.Estimates.Inflation = 3.0
	cfg.Refresh.IntervalSec = 60

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("BaseURL = %q, want %q", got.API.BaseURL, cfg.API.BaseURL)
	}
	if got.Estimates.Inflation != 3.0 {
		t.Errorf("Inflation = %v, want 3", got.Estimates.Inflation)
	}
	if got.RefreshInterval() != time.Minute {
		t.Errorf("RefreshInterval = %s, want 1m", got.RefreshInterval())
	}
}

func TestLoadFile_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[api]\nbase_url = \"not a url\"\ntimeout_sec = 10\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected validation error for malformed base_url")
	}
	if !strings.Contains(err.Error(), "BaseURL") {
		t.Errorf("error %q should name the BaseURL field", err)
	}
}

func TestLoadFile_RejectsShortInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[refresh]\ninterval_sec = 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error for interval below minimum")
	}
}

func TestGetBaseURL_EnvOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://from-config.example.com"

	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvBaseURLFallback, "")
	if got := GetBaseURL(cfg); got != cfg.API.BaseURL {
		t.Errorf("GetBaseURL = %q, want config value", got)
	}

	t.Setenv(EnvBaseURLFallback, "https://fallback.example.com")
	if got := GetBaseURL(cfg); got != "https://fallback.example.com" {
		t.Errorf("GetBaseURL = %q, want fallback env", got)
	}

	t.Setenv(EnvBaseURL, "https://primary.example.com")
	if got := GetBaseURL(cfg); got != "https://primary.example.com" {
		t.Errorf("GetBaseURL = %q, want primary env", got)
	}
}

func TestRequireBaseURL_Missing(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvBaseURLFallback, "")

	_, err := RequireBaseURL(DefaultConfig())
	if !errors.Is(err, ErrMissingBaseURL) {
		t.Fatalf("err = %v, want ErrMissingBaseURL", err)
	}
}
