// Package store provides a SQLite-backed history of fetched market snapshots.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/ratewatch/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout is fixed width so fetched_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// History records successful snapshots.
type History struct {
	db *sql.DB
}

// Record is one stored snapshot.
type Record struct {
	ID       int64
	Snapshot model.MarketSnapshot
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// SaveSnapshot appends snap. Null indicators are stored as NULL.
func (h *History) SaveSnapshot(snap *model.MarketSnapshot) (int64, error) {
	if snap == nil {
		return 0, errors.New("store: nil snapshot")
	}

	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}

	var bond, tips sql.NullFloat64
	if snap.LongTermRates != nil {
		bond = sql.NullFloat64{Float64: snap.LongTermRates.BondYield, Valid: true}
		tips = sql.NullFloat64{Float64: snap.LongTermRates.TIPSYield, Valid: true}
	}

	res, err := h.db.Exec(`INSERT INTO snapshots
		(fetched_at, inflation, tbill, bond_yield, tips_yield)
		VALUES (?, ?, ?, ?, ?)`,
		fetched.UTC().Format(timeLayout), nullable(snap.Inflation), nullable(snap.TBill), bond, tips,
	)
	if err != nil {
		return 0, fmt.Errorf("saving snapshot: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit snapshots, newest first. A non-positive limit
// returns everything.
func (h *History) Recent(limit int) ([]Record, error) {
	q := `SELECT id, fetched_at, inflation, tbill, bond_yield, tips_yield
		FROM snapshots ORDER BY fetched_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var r Record
		var fetched string
		var infl, tbill, bond, tips sql.NullFloat64
		if err := rows.Scan(&r.ID, &fetched, &infl, &tbill, &bond, &tips); err != nil {
			return nil, err
		}
		at, err := time.Parse(timeLayout, fetched)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: bad fetched_at %q: %w", r.ID, fetched, err)
		}
		r.Snapshot.FetchedAt = at
		r.Snapshot.Inflation = fromNullable(infl)
		r.Snapshot.TBill = fromNullable(tbill)
		if bond.Valid && tips.Valid {
			r.Snapshot.LongTermRates = &model.LongTermRates{BondYield: bond.Float64, TIPSYield: tips.Float64}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep snapshots and returns how many rows
// were removed. keep <= 0 disables pruning.
func (h *History) Prune(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := h.db.Exec(`DELETE FROM snapshots WHERE id NOT IN (
		SELECT id FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored snapshots.
func (h *History) Count() (int, error) {
	var count int
	err := h.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return model.Float(v.Float64)
}
