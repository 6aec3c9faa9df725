// Package pipeline turns fetched market snapshots and user estimates into
// derived metrics.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParameterLimit bounds accepted estimates, in percent.
const ParameterLimit = 100.0

// ErrInvalidParameter is returned for estimate input that is not a finite
// number within ±ParameterLimit.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParseParameter parses a user-entered estimate such as "2.5" or "2.5%".
func ParseParameter(text string) (float64, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidParameter)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidParameter, text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidParameter, text)
	}
	if v < -ParameterLimit || v > ParameterLimit {
		return 0, fmt.Errorf("%w: %g is outside ±%g", ErrInvalidParameter, v, ParameterLimit)
	}
	return v, nil
}
