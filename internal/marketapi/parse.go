package marketapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/ratewatch/internal/model"
)

// maxNesting bounds how deep parseIndicator looks into wrapper objects.
const maxNesting = 3

var valueKeys = []string{"value", "rate", "yield", "data"}

// parseIndicator defensively parses an indicator body. Handles a bare number
// (2.5), a numeric string ("2.50" or "2.50%"), and an object holding the
// value under "value", the source name, "rate", "yield", "data", or a single
// field. A JSON null yields (nil, nil).
func parseIndicator(raw json.RawMessage, src Source) (*float64, error) {
	return parseIndicatorDepth(raw, src, 0)
}

func parseIndicatorDepth(raw json.RawMessage, src Source, depth int) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric", ErrMalformed, s)
		}
		return finite(v)

	case '{':
		if depth >= maxNesting {
			return nil, fmt.Errorf("%w: value nested too deeply", ErrMalformed)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for _, k := range append([]string{string(src)}, valueKeys...) {
			if inner, ok := obj[k]; ok {
				return parseIndicatorDepth(inner, src, depth+1)
			}
		}
		if len(obj) == 1 {
			for _, inner := range obj {
				return parseIndicatorDepth(inner, src, depth+1)
			}
		}
		return nil, fmt.Errorf("%w: no %s value in object", ErrMalformed, src)

	default:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return finite(v)
	}
}

func finite(v float64) (*float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: non-finite value", ErrMalformed)
	}
	return &v, nil
}

// parseLongTermRates parses {"bond_yield": n, "tips_yield": n}. Both fields
// accept the same shapes as parseIndicator; a null body yields (nil, nil).
func parseLongTermRates(raw json.RawMessage) (*model.LongTermRates, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: long-term rates must be an object: %v", ErrMalformed, err)
	}
	if inner, ok := obj["data"]; ok && len(obj) == 1 {
		return parseLongTermRates(inner)
	}

	bond, err := requiredField(obj, "bond_yield")
	if err != nil {
		return nil, err
	}
	tips, err := requiredField(obj, "tips_yield")
	if err != nil {
		return nil, err
	}

	return &model.LongTermRates{BondYield: bond, TIPSYield: tips}, nil
}

func requiredField(obj map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, key)
	}
	v, err := parseIndicator(raw, Source(key))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("%w: %s is null", ErrMalformed, key)
	}
	return *v, nil
}
