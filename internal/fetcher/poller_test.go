package fetcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/ratewatch/internal/marketapi"
	"github.com/theirongolddev/ratewatch/internal/model"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	calls atomic.Int64
	mu    sync.Mutex
	snap  *model.MarketSnapshot
	err   error
	block chan struct{} // when non-nil, FetchSnapshot waits on it or ctx
}

func (f *fakeSource) FetchSnapshot(ctx context.Context) (*model.MarketSnapshot, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.err
}

func (f *fakeSource) set(snap *model.MarketSnapshot, err error) {
	f.mu.Lock()
	f.snap, f.err = snap, err
	f.mu.Unlock()
}

func TestPoller_RunOnce(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot(5)}
	p := NewPoller(src, time.Minute, zerolog.Nop())

	var transitions []Phase
	p.Subscribe(func(_, curr State) { transitions = append(transitions, curr.Phase) })

	if !p.RunOnce(context.Background()) {
		t.Fatal("RunOnce returned false")
	}
	st := p.State()
	if st.Phase != PhaseReady || st.Snapshot == nil {
		t.Fatalf("state = %+v", st)
	}
	if len(transitions) != 2 || transitions[0] != PhaseLoading || transitions[1] != PhaseReady {
		t.Errorf("transitions = %v, want [loading ready]", transitions)
	}

	src.set(nil, errors.New("inflation: boom"))
	p.RunOnce(context.Background())
	st = p.State()
	if st.Phase != PhaseError || st.Snapshot == nil {
		t.Fatalf("failed cycle should keep snapshot, state = %+v", st)
	}
}

func TestPoller_SerializesCycles(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot(5), block: make(chan struct{})}
	p := NewPoller(src, time.Minute, zerolog.Nop())

	done := make(chan bool)
	go func() { done <- p.RunOnce(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !p.State().InFlight {
		if time.Now().After(deadline) {
			t.Fatal("first cycle never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if p.RunOnce(context.Background()) {
		t.Fatal("overlapping cycle was not skipped")
	}

	close(src.block)
	if !<-done {
		t.Fatal("first cycle reported skipped")
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestPoller_StartStopCancelsInFlight(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot(5), block: make(chan struct{})}
	p := NewPoller(src, time.Hour, zerolog.Nop())

	p.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poller never fetched")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the in-flight request")
	}

	st := p.State()
	if st.InFlight {
		t.Error("state still in flight after Stop")
	}
	if st.Cycles != 0 {
		t.Errorf("cancelled cycle was applied: Cycles = %d", st.Cycles)
	}
}

func TestPoller_Refresh(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot(5)}
	p := NewPoller(src, time.Hour, zerolog.Nop())

	cycles := make(chan struct{}, 4)
	p.Subscribe(func(_, curr State) {
		if !curr.InFlight {
			cycles <- struct{}{}
		}
	})

	p.Start(context.Background())
	defer p.Stop()

	waitCycle := func() {
		t.Helper()
		select {
		case <-cycles:
		case <-time.After(2 * time.Second):
			t.Fatal("cycle did not complete")
		}
	}

	waitCycle()
	p.Refresh()
	waitCycle()

	if got := src.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestNewFailedPoller_NeverFetches(t *testing.T) {
	p := NewFailedPoller(marketapi.ErrMissingBaseURL, zerolog.Nop())
	p.Start(context.Background())
	defer p.Stop()

	if p.RunOnce(context.Background()) {
		t.Fatal("failed poller ran a cycle")
	}
	st := p.State()
	if st.Phase != PhaseError || st.Message() != MsgConfigMissing {
		t.Fatalf("state = %+v, message %q", st, st.Message())
	}
}
