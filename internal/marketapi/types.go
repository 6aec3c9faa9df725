package marketapi

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/ratewatch/internal/config"
)

// Source identifies one of the three indicator endpoints.
type Source string

// Indicator sources, named after their endpoint path segment.
const (
	SourceInflation     Source = "inflation"
	SourceTBill         Source = "tbill"
	SourceLongTermRates Source = "long_term_rates"
)

// Sources lists every endpoint fetched in one cycle.
var Sources = []Source{SourceInflation, SourceTBill, SourceLongTermRates}

// Path returns the endpoint path relative to the base URL.
func (s Source) Path() string {
	return "/api/v1/" + string(s)
}

var (
	// ErrMissingBaseURL indicates no base URL was configured; no request is made.
	ErrMissingBaseURL = config.ErrMissingBaseURL
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("marketapi: rate limited")
	// ErrMalformed indicates a response body that doesn't carry the expected value.
	ErrMalformed = errors.New("marketapi: malformed response")
)

// SourceError records which endpoint failed during a fetch.
type SourceError struct {
	Source Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// StatusError is returned for non-2xx responses other than 429.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("marketapi: unexpected status %d", e.Code)
}
