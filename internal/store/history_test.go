package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/ratewatch/internal/model"
)

func openTemp(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestSaveAndRecent(t *testing.T) {
	h := openTemp(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		snap := &model.MarketSnapshot{
			Inflation:     model.Float(2.5),
			TBill:         model.Float(5 + float64(i)/10),
			LongTermRates: &model.LongTermRates{BondYield: 4.5, TIPSYield: 1.5},
			FetchedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := h.SaveSnapshot(snap); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}

	recs, err := h.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if !recs[0].Snapshot.FetchedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("newest first: got %s", recs[0].Snapshot.FetchedAt)
	}
	if *recs[0].Snapshot.TBill != 5.2 {
		t.Errorf("tbill = %v, want 5.2", *recs[0].Snapshot.TBill)
	}
	if recs[0].Snapshot.LongTermRates == nil || recs[0].Snapshot.LongTermRates.TIPSYield != 1.5 {
		t.Errorf("long term rates = %+v", recs[0].Snapshot.LongTermRates)
	}
}

func TestNullIndicatorsRoundTrip(t *testing.T) {
	h := openTemp(t)
	snap := &model.MarketSnapshot{TBill: model.Float(4.9), FetchedAt: time.Now()}
	if _, err := h.SaveSnapshot(snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	recs, err := h.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	got := recs[0].Snapshot
	if got.Inflation != nil || got.LongTermRates != nil {
		t.Errorf("null fields came back non-nil: %+v", got)
	}
	if got.TBill == nil || *got.TBill != 4.9 {
		t.Errorf("tbill = %v", got.TBill)
	}
}

func TestPrune(t *testing.T) {
	h := openTemp(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if _, err := h.SaveSnapshot(&model.MarketSnapshot{TBill: model.Float(float64(i)), FetchedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := h.Prune(2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	n, err := h.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}

	recs, _ := h.Recent(0)
	if *recs[len(recs)-1].Snapshot.TBill != 3 {
		t.Errorf("oldest kept tbill = %v, want 3", *recs[len(recs)-1].Snapshot.TBill)
	}

	if removed, _ := h.Prune(0); removed != 0 {
		t.Errorf("Prune(0) removed %d rows", removed)
	}
}

func TestSaveNil(t *testing.T) {
	h := openTemp(t)
	if _, err := h.SaveSnapshot(nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}

func TestRecentRejectsCorruptTimestamp(t *testing.T) {
	h := openTemp(t)
	if _, err := h.db.Exec(`INSERT INTO snapshots (fetched_at, tbill) VALUES ('yesterday', 5.0)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	recs, err := h.Recent(0)
	if err == nil {
		t.Fatalf("Recent = %+v, want error for corrupt fetched_at", recs)
	}
}
