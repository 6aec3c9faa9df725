// Package fetcher owns the fetch-cycle lifecycle: the pure state transitions
// applied when a cycle starts or settles, and the periodic poller that drives
// cycles for headless use.
package fetcher

import (
	"errors"
	"time"

	"github.com/theirongolddev/ratewatch/internal/marketapi"
	"github.com/theirongolddev/ratewatch/internal/model"
)

// Phase is the presenter-facing state of the lifecycle.
type Phase int

const (
	// PhaseLoading means no cycle has settled yet and one is in flight.
	PhaseLoading Phase = iota
	// PhaseReady means the last cycle succeeded.
	PhaseReady
	// PhaseError means the last cycle (or configuration) failed.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// User-facing messages. Error detail stays in logs.
const (
	MsgLoadFailed    = "Failed to load market data."
	MsgConfigMissing = "API base URL is not configured."
	MsgConfigInvalid = "API configuration is invalid."
)

// State is the lifecycle value. Methods return a new State and never mutate
// the receiver, so the dashboard can keep it in its model.
type State struct {
	Phase       Phase
	Snapshot    *model.MarketSnapshot // last good snapshot, kept across failures
	Err         error
	InFlight    bool
	ConfigErr   bool // terminal: no cycle is ever started
	Cycles      int64
	Failures    int64
	LastAttempt time.Time
	LastSuccess time.Time
}

// Begin marks a new cycle as started. With data already present the view
// stays Ready (refresh in place); otherwise it shows Loading.
func (s State) Begin(now time.Time) State {
	s.InFlight = true
	s.LastAttempt = now
	if s.Snapshot == nil {
		s.Phase = PhaseLoading
	}
	return s
}

// Apply settles the in-flight cycle. On failure the previous snapshot is
// preserved and the error flag raised; on success the snapshot is replaced
// wholesale and the error cleared.
func (s State) Apply(snap *model.MarketSnapshot, err error, now time.Time) State {
	s.InFlight = false
	s.Cycles++
	if err != nil || snap == nil {
		if err == nil {
			err = errors.New("fetcher: empty snapshot")
		}
		s.Failures++
		s.Err = err
		s.Phase = PhaseError
		return s
	}

	s.Snapshot = snap
	s.Err = nil
	s.Phase = PhaseReady
	s.LastSuccess = now
	return s
}

// ConfigError returns the terminal state for a missing or invalid base URL.
// No cycle is ever started from it.
func ConfigError(err error) State {
	return State{Phase: PhaseError, Err: err, ConfigErr: true}
}

// Message is the static, user-facing description of the error, or "".
func (s State) Message() string {
	switch {
	case s.Err == nil:
		return ""
	case errors.Is(s.Err, marketapi.ErrMissingBaseURL):
		return MsgConfigMissing
	case s.ConfigErr:
		return MsgConfigInvalid
	}
	return MsgLoadFailed
}

// Stale reports whether the visible data is from an older successful cycle
// because the latest one failed.
func (s State) Stale() bool {
	return s.Phase == PhaseError && s.Snapshot != nil
}
