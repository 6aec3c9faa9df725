package fetcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/theirongolddev/ratewatch/internal/model"

	"github.com/rs/zerolog"
)

// SnapshotSource fetches one all-or-nothing snapshot.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) (*model.MarketSnapshot, error)
}

// Listener is notified after every state transition, outside the lock.
type Listener func(prev, curr State)

// Poller runs fetch cycles on start and on a fixed interval. Cycles are
// serialized: a tick that fires while a cycle is in flight is skipped.
type Poller struct {
	src      SnapshotSource
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	state     State
	listeners []Listener

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	trigger chan struct{}
}

// NewPoller returns a poller for src. A non-positive interval means 5 minutes.
func NewPoller(src SnapshotSource, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		src:      src,
		interval: interval,
		log:      log,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
	}
}

// NewFailedPoller returns a poller that reports cfgErr and never fetches.
func NewFailedPoller(cfgErr error, log zerolog.Logger) *Poller {
	p := NewPoller(nil, 0, log)
	p.state = ConfigError(cfgErr)
	return p
}

// Subscribe registers fn for state transitions.
func (p *Poller) Subscribe(fn Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Interval returns the refetch interval.
func (p *Poller) Interval() time.Duration { return p.interval }

// Start launches the polling loop. It runs one cycle immediately and then
// one per interval until Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.done != nil || p.src == nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop cancels the loop and any in-flight request, and waits for it to exit.
func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh asks for an immediate cycle. It is a no-op while one is in flight.
func (p *Poller) Refresh() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		case <-p.trigger:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cycle synchronously. It returns false without
// fetching when a cycle is already in flight or the poller has no source.
func (p *Poller) RunOnce(ctx context.Context) bool {
	if p.src == nil {
		return false
	}

	p.mu.Lock()
	if p.state.InFlight {
		p.mu.Unlock()
		p.log.Debug().Msg("fetch cycle already in flight, skipping")
		return false
	}
	prev := p.state
	p.state = p.state.Begin(p.now())
	began := p.state
	p.mu.Unlock()
	p.notify(prev, began)

	start := time.Now()
	snap, err := p.src.FetchSnapshot(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// Torn down mid-cycle: drop the result instead of applying a stale update.
		p.mu.Lock()
		p.state.InFlight = false
		p.mu.Unlock()
		return true
	}

	p.mu.Lock()
	prev = p.state
	p.state = p.state.Apply(snap, err, p.now())
	curr := p.state
	p.mu.Unlock()

	if err != nil {
		p.log.Warn().Err(err).Dur("took", time.Since(start)).Msg("fetch cycle failed")
	} else {
		p.log.Info().Dur("took", time.Since(start)).Int64("cycle", curr.Cycles).Msg("fetch cycle succeeded")
	}

	p.notify(prev, curr)
	return true
}

func (p *Poller) notify(prev, curr State) {
	p.mu.RLock()
	ls := make([]Listener, len(p.listeners))
	copy(ls, p.listeners)
	p.mu.RUnlock()

	for _, fn := range ls {
		fn(prev, curr)
	}
}
