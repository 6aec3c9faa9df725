package marketapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newTestServer serves the three endpoints from bodies keyed by path.
// A body of "" yields a 500.
func newTestServer(t *testing.T, bodies map[string]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func goodBodies() map[string]string {
	return map[string]string{
		"/api/v1/inflation":       `2.50`,
		"/api/v1/tbill":           `{"tbill": 5.0}`,
		"/api/v1/long_term_rates": `{"bond_yield": 4.5, "tips_yield": 1.5}`,
	}
}

func TestNewClient_MissingBaseURL(t *testing.T) {
	for _, u := range []string{"", "   "} {
		c, err := NewClient(u)
		if !errors.Is(err, ErrMissingBaseURL) {
			t.Fatalf("NewClient(%q) err = %v, want ErrMissingBaseURL", u, err)
		}
		if c != nil {
			t.Fatal("expected nil client")
		}
	}
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
	if _, err := NewClient("localhost:8080"); err == nil {
		t.Fatal("expected error for missing scheme")
	}
}

func TestFetchSnapshot_Success(t *testing.T) {
	srv, hits := newTestServer(t, goodBodies())
	fixed := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	c, err := NewClient(srv.URL+"/", WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	snap, err := c.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("requests = %d, want 3", hits.Load())
	}
	if snap.Inflation == nil || *snap.Inflation != 2.5 {
		t.Errorf("Inflation = %v, want 2.5", snap.Inflation)
	}
	if snap.TBill == nil || *snap.TBill != 5.0 {
		t.Errorf("TBill = %v, want 5.0", snap.TBill)
	}
	if snap.LongTermRates == nil || snap.LongTermRates.BondYield != 4.5 || snap.LongTermRates.TIPSYield != 1.5 {
		t.Errorf("LongTermRates = %+v", snap.LongTermRates)
	}
	if !snap.FetchedAt.Equal(fixed) {
		t.Errorf("FetchedAt = %s, want %s", snap.FetchedAt, fixed)
	}
}

func TestFetchSnapshot_OneSourceFails(t *testing.T) {
	bodies := goodBodies()
	bodies["/api/v1/tbill"] = ""
	srv, _ := newTestServer(t, bodies)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	snap, err := c.FetchSnapshot(context.Background())
	if err == nil {
		t.Fatal("expected error when one source fails")
	}
	if snap != nil {
		t.Fatalf("expected no partial snapshot, got %+v", snap)
	}

	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T %v, want *SourceError", err, err)
	}
	if se.Source != SourceTBill {
		t.Errorf("failing source = %s, want tbill", se.Source)
	}
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusInternalServerError {
		t.Errorf("err = %v, want StatusError 500", err)
	}
}

func TestFetchSnapshot_MalformedBody(t *testing.T) {
	bodies := goodBodies()
	bodies["/api/v1/long_term_rates"] = `{"bond_yield": "high"}`
	srv, _ := newTestServer(t, bodies)

	c, _ := NewClient(srv.URL)
	if _, err := c.FetchSnapshot(context.Background()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestFetchSnapshot_NullIndicator(t *testing.T) {
	bodies := goodBodies()
	bodies["/api/v1/inflation"] = `null`
	srv, _ := newTestServer(t, bodies)

	c, _ := NewClient(srv.URL)
	snap, err := c.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if snap.Inflation != nil {
		t.Errorf("Inflation = %v, want nil", *snap.Inflation)
	}
}

func TestGet_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.FetchInflation(context.Background()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestGet_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	start := time.Now()
	if _, err := c.FetchTBill(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("timeout not honored, took %s", time.Since(start))
	}
}
