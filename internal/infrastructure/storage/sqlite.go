package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_crash_risk/internal/domain"
	"github.com/vitos/crypto_crash_risk/internal/usecase"
)

// SQLiteStore persists the per-cycle records the engine emits, for the
// dashboard history view and offline trace inspection. The engine never
// reads this back; its working state is memory only.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS risk_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_time DATETIME NOT NULL,
			coin TEXT NOT NULL,
			venue TEXT NOT NULL,
			state TEXT NOT NULL,
			message TEXT NOT NULL,
			funding REAL,
			open_interest REAL,
			day_notional_volume REAL,
			mark_price REAL NOT NULL,
			trace_json TEXT NOT NULL,
			trace_text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_risk_records_coin_time ON risk_records(coin, cycle_time);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// SaveCycle appends every record from one completed cycle.
func (s *SQLiteStore) SaveCycle(ctx context.Context, at time.Time, records []*domain.RiskRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO risk_records (cycle_time, coin, venue, state, message, funding, open_interest, day_notional_volume, mark_price, trace_json, trace_text)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range records {
		traceJSON, err := json.Marshal(r.Trace)
		if err != nil {
			return fmt.Errorf("failed to marshal trace for %s: %w", r.Coin, err)
		}
		traceText := usecase.RenderTrace(r.Trace)

		if _, err := tx.ExecContext(ctx, query,
			at, r.Coin, r.Venue, string(r.State), r.Message,
			nullable(r.Funding), nullable(r.OpenInterest), nullable(r.DayNotionalVolume),
			r.MarkPrice, string(traceJSON), traceText); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecords returns the most recent stored records for a coin, newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, coin string, limit int) ([]*domain.StoredRiskRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, cycle_time, coin, venue, state, message, mark_price, trace_text
			  FROM risk_records WHERE coin = ? ORDER BY cycle_time DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, coin, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.StoredRiskRecord
	for rows.Next() {
		var r domain.StoredRiskRecord
		var state string
		if err := rows.Scan(&r.ID, &r.CycleTime, &r.Coin, &r.Venue, &state, &r.Message, &r.MarkPrice, &r.TraceText); err != nil {
			return nil, err
		}
		r.State = domain.RiskState(state)
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
