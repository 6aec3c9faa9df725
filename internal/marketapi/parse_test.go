package marketapi

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseIndicator_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{"bare number", `2.50`, 2.5},
		{"integer", `3`, 3},
		{"numeric string", `"4.25"`, 4.25},
		{"percent string", `" 4.25% "`, 4.25},
		{"value key", `{"value": 2.7, "date": "2025-05-01"}`, 2.7},
		{"source key", `{"inflation": 3.1, "as_of": "2025-05-01"}`, 3.1},
		{"rate key", `{"rate": "5.01%"}`, 5.01},
		{"single field", `{"cpi_yoy": 2.9}`, 2.9},
		{"nested data", `{"data": {"value": 1.8}}`, 1.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndicator(json.RawMessage(tt.body), SourceInflation)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || *got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseIndicator_Null(t *testing.T) {
	got, err := parseIndicator(json.RawMessage(`null`), SourceTBill)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", *got)
	}
}

func TestParseIndicator_Malformed(t *testing.T) {
	bodies := []string{
		``,
		`"abc"`,
		`true`,
		`{"a": 1, "b": 2}`,
		`{"value": {"value": {"value": {"value": 1}}}}`,
		`[1, 2]`,
	}
	for _, body := range bodies {
		if _, err := parseIndicator(json.RawMessage(body), SourceTBill); !errors.Is(err, ErrMalformed) {
			t.Errorf("parseIndicator(%q) err = %v, want ErrMalformed", body, err)
		}
	}
}

func TestParseLongTermRates(t *testing.T) {
	r, err := parseLongTermRates(json.RawMessage(`{"bond_yield": 4.5, "tips_yield": "1.5"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.BondYield != 4.5 || r.TIPSYield != 1.5 {
		t.Errorf("rates = %+v, want 4.5/1.5", *r)
	}

	r, err = parseLongTermRates(json.RawMessage(`{"data": {"bond_yield": 4.1, "tips_yield": 2.0}}`))
	if err != nil || r.BondYield != 4.1 {
		t.Errorf("wrapped rates = %+v, %v", r, err)
	}

	r, err = parseLongTermRates(json.RawMessage(`null`))
	if err != nil || r != nil {
		t.Errorf("null rates = %+v, %v; want nil, nil", r, err)
	}

	for _, body := range []string{`{"bond_yield": 4.5}`, `{"bond_yield": 4.5, "tips_yield": null}`, `4.5`} {
		if _, err := parseLongTermRates(json.RawMessage(body)); !errors.Is(err, ErrMalformed) {
			t.Errorf("parseLongTermRates(%q) err = %v, want ErrMalformed", body, err)
		}
	}
}
