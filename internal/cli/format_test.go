package cli

import (
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "N/A"},
		{ptr(2.5), "2.50%"},
		{ptr(0), "0.00%"},
		{ptr(-1.234), "-1.23%"},
		{ptr(4.999), "5.00%"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.in); got != tt.want {
			t.Errorf("FormatRate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSignedRate(t *testing.T) {
	if got := FormatSignedRate(ptr(0.5)); got != "+0.50%" {
		t.Errorf("FormatSignedRate(0.5) = %q", got)
	}
	if got := FormatSignedRate(ptr(-0.25)); got != "-0.25%" {
		t.Errorf("FormatSignedRate(-0.25) = %q", got)
	}
	if got := FormatSignedRate(ptr(-0.001)); got != "0.00%" {
		t.Errorf("FormatSignedRate(-0.001) = %q, want 0.00%%", got)
	}
	if got := FormatSignedRate(nil); got != NotAvailable {
		t.Errorf("FormatSignedRate(nil) = %q", got)
	}
}

func TestFormatBasisPoints(t *testing.T) {
	if got := FormatBasisPoints(0.125); got != "12.5bp" {
		t.Errorf("FormatBasisPoints(0.125) = %q", got)
	}
	if got := FormatBasisPoints(-0.1); got != "-10bp" {
		t.Errorf("FormatBasisPoints(-0.1) = %q", got)
	}
	if got := FormatBasisPoints(0.0001); got != "0bp" {
		t.Errorf("FormatBasisPoints(0.0001) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:    "0s",
		45:   "45s",
		120:  "2m",
		125:  "2m 5s",
		3725: "1h 2m",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := FormatAge(time.Time{}, now); got != "never" {
		t.Errorf("zero time = %q", got)
	}
	if got := FormatAge(now.Add(-90*time.Second), now); got != "1m 30s ago" {
		t.Errorf("90s ago = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Errorf("FormatNumber(-1000) = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("empty sparkline = %q", got)
	}
	if got := RenderSparkline([]float64{-1, 0, 1}); got != "▁▄█" {
		t.Errorf("sparkline = %q, want ▁▄█", got)
	}
	if got := RenderSparkline([]float64{2, 2}); got != "▅▅" {
		t.Errorf("flat sparkline = %q, want ▅▅", got)
	}
}
