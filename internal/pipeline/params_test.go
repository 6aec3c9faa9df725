package pipeline

import (
	"errors"
	"testing"
)

func TestParseParameter(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"2.5", 2.5, false},
		{" 1.75 ", 1.75, false},
		{"3%", 3, false},
		{"-0.5", -0.5, false},
		{"", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
		{"250", 0, true},
		{"2.5.1", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseParameter(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("ParseParameter(%q) err = %v, want ErrInvalidParameter", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseParameter(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseParameter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
