package tui

import (
	"errors"
	"testing"

	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/pipeline"
)

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := SetupValuesFrom(cfg)
	vals.BaseURL = " https://rates.example.com "
	vals.Inflation = "3%"
	vals.Growth = "-0.5"
	vals.IntervalSec = "60"
	vals.Theme = "tokyo-night"

	if err := vals.Apply(&cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.API.BaseURL != "https://rates.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Estimates.Inflation != 3 || cfg.Estimates.Growth != -0.5 {
		t.Errorf("estimates = %+v", cfg.Estimates)
	}
	if cfg.Refresh.IntervalSec != 60 || cfg.Appearance.Theme != "tokyo-night" {
		t.Errorf("refresh/theme = %d %q", cfg.Refresh.IntervalSec, cfg.Appearance.Theme)
	}
}

func TestSetupValuesApply_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SetupValues)
	}{
		{"bad url", func(v *SetupValues) { v.BaseURL = "ftp://rates" }},
		{"nan inflation", func(v *SetupValues) { v.Inflation = "abc" }},
		{"growth out of range", func(v *SetupValues) { v.Growth = "250" }},
		{"interval too short", func(v *SetupValues) { v.IntervalSec = "5" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			before := cfg
			vals := SetupValuesFrom(cfg)
			tt.mutate(&vals)
			if err := vals.Apply(&cfg); err == nil {
				t.Fatal("expected error")
			}
			if cfg != before {
				t.Errorf("config modified on rejection: %+v", cfg)
			}
		})
	}
}

func TestSetupValuesApply_ParameterErrorIsTyped(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := SetupValuesFrom(cfg)
	vals.Inflation = "NaN"
	err := vals.Apply(&cfg)
	if !errors.Is(err, pipeline.ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}
