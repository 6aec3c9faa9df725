// Package daemon provides the long-running headless poller and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/ratewatch/internal/fetcher"
	"github.com/theirongolddev/ratewatch/internal/marketapi"
	"github.com/theirongolddev/ratewatch/internal/model"
	"github.com/theirongolddev/ratewatch/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Event types published on /v1/events and /v1/stream.
const (
	EventSnapshot     = "snapshot"
	EventRatesChanged = "rates_changed"
	EventFetchError   = "fetch_error"
)

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = "127.0.0.1:8788"

// Config controls the daemon runtime behavior.
type Config struct {
	Addr           string
	BaseURL        string
	Params         model.Parameters
	EventsBuffer   int
	HistoryKeep    int
	AllowedOrigins []string
}

// HistoryWriter persists successful snapshots.
type HistoryWriter interface {
	SaveSnapshot(snap *model.MarketSnapshot) (int64, error)
	Prune(keep int) (int64, error)
}

// Delta captures indicator changes between two snapshots. A nil field means
// the indicator is null on either side.
type Delta struct {
	Inflation *float64 `json:"inflation,omitempty"`
	TBill     *float64 `json:"tbill,omitempty"`
	BondYield *float64 `json:"bond_yield,omitempty"`
	TIPSYield *float64 `json:"tips_yield,omitempty"`
}

func (d Delta) isZero() bool {
	for _, v := range []*float64{d.Inflation, d.TBill, d.BondYield, d.TIPSYield} {
		if v != nil && *v != 0 {
			return false
		}
	}
	return true
}

// SnapshotView is a snapshot together with the metrics derived from it.
type SnapshotView struct {
	Snapshot   *model.MarketSnapshot `json:"snapshot"`
	Parameters model.Parameters      `json:"parameters"`
	Derived    model.DerivedMetrics  `json:"derived"`
	Stale      bool                  `json:"stale"`
}

// Event is emitted whenever a fetch cycle settles with news.
type Event struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	View      *SnapshotView `json:"view,omitempty"`
	Delta     *Delta        `json:"delta,omitempty"`
	Error     string        `json:"error,omitempty"`
	Source    string        `json:"source,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastSuccessAt   time.Time `json:"last_success_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	FailureCount    int64     `json:"failure_count"`
	Phase           string    `json:"phase"`
	InFlight        bool      `json:"in_flight"`
	BaseURL         string    `json:"base_url,omitempty"`
	Message         string    `json:"message,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	LastErrorSource string    `json:"last_error_source,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service wires a poller to the HTTP API, metrics and optional history.
type Service struct {
	cfg     Config
	poller  *fetcher.Poller
	log     zerolog.Logger
	metrics *Metrics
	history HistoryWriter

	mu          sync.RWMutex
	startedAt   time.Time
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service driving poller.
func New(cfg Config, poller *fetcher.Poller, log zerolog.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Service{
		cfg:       cfg,
		poller:    poller,
		log:       log,
		metrics:   NewMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	poller.Subscribe(s.onTransition)
	return s
}

// SetHistory enables recording successful snapshots to h.
func (s *Service) SetHistory(h HistoryWriter) {
	s.mu.Lock()
	s.history = h
	s.mu.Unlock()
}

// Handler returns the HTTP API with CORS applied.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/v1/status", s.handleStatus)
	r.GET("/v1/snapshot", s.handleSnapshot)
	r.GET("/v1/events", s.handleEvents)
	r.GET("/v1/stream", s.handleStream)
	r.POST("/v1/refresh", s.handleRefresh)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("daemon listen: %w", err)
	}

	server := &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info().Str("addr", listener.Addr().String()).Dur("interval", s.poller.Interval()).Msg("daemon started")
	s.poller.Start(ctx)
	defer s.poller.Stop()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// onTransition turns settled cycles into metrics, history rows and events.
func (s *Service) onTransition(prev, curr fetcher.State) {
	if !prev.InFlight || curr.InFlight || curr.Cycles == prev.Cycles {
		return
	}
	seconds := time.Since(curr.LastAttempt).Seconds()
	if curr.Err != nil {
		source := errorSource(curr.Err)
		s.metrics.RecordFailure(source, seconds)
		s.publishEvent(Event{
			Type:      EventFetchError,
			Timestamp: time.Now(),
			Error:     curr.Err.Error(),
			Source:    source,
		})
		return
	}

	s.metrics.RecordSuccess(curr.Snapshot, seconds)
	s.recordHistory(curr.Snapshot)

	view := s.view(curr, s.cfg.Params)
	switch {
	case prev.Snapshot == nil:
		s.publishEvent(Event{Type: EventSnapshot, Timestamp: time.Now(), View: &view})
	case !prev.Snapshot.SameValues(curr.Snapshot):
		ev := Event{Type: EventRatesChanged, Timestamp: time.Now(), View: &view}
		// A change to or from null has no numeric delta.
		if d := diffSnapshots(prev.Snapshot, curr.Snapshot); !d.isZero() {
			ev.Delta = &d
		}
		s.publishEvent(ev)
	}
}

func (s *Service) recordHistory(snap *model.MarketSnapshot) {
	s.mu.RLock()
	h := s.history
	s.mu.RUnlock()
	if h == nil || snap == nil {
		return
	}

	if _, err := h.SaveSnapshot(snap); err != nil {
		s.log.Warn().Err(err).Msg("history write failed")
		return
	}
	if n, err := h.Prune(s.cfg.HistoryKeep); err != nil {
		s.log.Warn().Err(err).Msg("history prune failed")
	} else if n > 0 {
		s.log.Debug().Int64("removed", n).Msg("history pruned")
	}
}

func (s *Service) view(st fetcher.State, p model.Parameters) SnapshotView {
	return SnapshotView{
		Snapshot:   st.Snapshot,
		Parameters: p,
		Derived:    pipeline.Derive(st.Snapshot, p),
		Stale:      st.Stale(),
	}
}

func errorSource(err error) string {
	var se *marketapi.SourceError
	if errors.As(err, &se) {
		return string(se.Source)
	}
	return ""
}

func diffSnapshots(prev, curr *model.MarketSnapshot) Delta {
	var d Delta
	if prev == nil || curr == nil {
		return d
	}
	d.Inflation = diffPtr(prev.Inflation, curr.Inflation)
	d.TBill = diffPtr(prev.TBill, curr.TBill)
	if prev.LongTermRates != nil && curr.LongTermRates != nil {
		d.BondYield = model.Float(curr.LongTermRates.BondYield - prev.LongTermRates.BondYield)
		d.TIPSYield = model.Float(curr.LongTermRates.TIPSYield - prev.LongTermRates.TIPSYield)
	}
	return d
}

func diffPtr(prev, curr *float64) *float64 {
	if prev == nil || curr == nil {
		return nil
	}
	return model.Float(*curr - *prev)
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	st := s.poller.State()

	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      st.LastAttempt,
		LastSuccessAt:   st.LastSuccess,
		PollIntervalSec: int(s.poller.Interval().Seconds()),
		PollCount:       st.Cycles,
		FailureCount:    st.Failures,
		Phase:           st.Phase.String(),
		InFlight:        st.InFlight,
		BaseURL:         s.cfg.BaseURL,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if st.Phase == fetcher.PhaseError {
		status.Message = st.Message()
	}
	if st.Err != nil {
		status.LastError = st.Err.Error()
		status.LastErrorSource = errorSource(st.Err)
	}
	return status
}

func (s *Service) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

func (s *Service) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshotStatus())
}

// handleRefresh queues an immediate cycle. A cycle already in flight
// absorbs the request.
func (s *Service) handleRefresh(c *gin.Context) {
	if st := s.poller.State(); st.ConfigErr {
		c.JSON(http.StatusConflict, gin.H{"error": st.Message()})
		return
	}
	s.poller.Refresh()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (s *Service) handleSnapshot(c *gin.Context) {
	p := s.cfg.Params
	for _, q := range []struct {
		key string
		dst *float64
	}{
		{"inflation", &p.EstimatedInflation},
		{"growth", &p.EstimatedGrowth},
	} {
		raw, ok := c.GetQuery(q.key)
		if !ok {
			continue
		}
		v, err := pipeline.ParseParameter(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", q.key, err)})
			return
		}
		*q.dst = v
	}

	st := s.poller.State()
	if st.Snapshot == nil {
		msg := "market data not loaded yet"
		if st.Phase == fetcher.PhaseError {
			msg = st.Message()
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg, "phase": st.Phase.String()})
		return
	}

	c.JSON(http.StatusOK, s.view(st, p))
}

func (s *Service) handleEvents(c *gin.Context) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, events)
}

func (s *Service) handleStream(c *gin.Context) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	if st := s.poller.State(); st.Snapshot != nil {
		view := s.view(st, s.cfg.Params)
		writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), View: &view})
	} else {
		_, _ = fmt.Fprint(w, ": waiting for first snapshot\n\n")
	}
	w.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			w.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
