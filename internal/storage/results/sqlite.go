// internal/storage/results/sqlite.go
package results

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS backtest_results (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT    NOT NULL,
	ticker         TEXT    NOT NULL,
	status         TEXT    NOT NULL,
	final_value    REAL    NOT NULL,
	sharpe_ratio   REAL,
	max_drawdown   REAL    NOT NULL,
	total_return   REAL    NOT NULL,
	trade_count    INTEGER NOT NULL,
	bars_processed INTEGER NOT NULL,
	report_uri     TEXT    NOT NULL DEFAULT '',
	error          TEXT    NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_results_run ON backtest_results(run_id);
CREATE INDEX IF NOT EXISTS idx_backtest_results_ticker ON backtest_results(ticker);
`

const selectColumns = `id, run_id, ticker, status, final_value, sharpe_ratio, max_drawdown,
	total_return, trade_count, bars_processed, report_uri, error, created_at`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dsn and creates the
// results table when missing.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Batch workers write concurrently; a single connection serializes them
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a record and sets its ID.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var sharpe sql.NullFloat64
	if rec.SharpeRatio != nil {
		sharpe = sql.NullFloat64{Float64: *rec.SharpeRatio, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO backtest_results
		(run_id, ticker, status, final_value, sharpe_ratio, max_drawdown, total_return,
		 trade_count, bars_processed, report_uri, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Ticker, rec.Status, rec.FinalValue, sharpe, rec.MaxDrawdown, rec.TotalReturn,
		rec.TradeCount, rec.BarsProcessed, rec.ReportURI, rec.Error, rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// GetByRun returns the records of a run ordered by ticker.
func (s *SQLiteStore) GetByRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM backtest_results WHERE run_id = ? ORDER BY ticker, id`, runID)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// List returns records matching the filter in insertion order.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + selectColumns + ` FROM backtest_results` + where + ` ORDER BY id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// Count returns the number of matching records.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildWhere(filter)

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backtest_results`+where, args...).Scan(&n)
	return n, err
}

func buildWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Ticker != "" {
		clauses = append(clauses, "ticker = ?")
		args = append(args, filter.Ticker)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.From.UnixNano())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, filter.To.UnixNano())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		var sharpe sql.NullFloat64
		var created int64
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Ticker, &rec.Status, &rec.FinalValue, &sharpe,
			&rec.MaxDrawdown, &rec.TotalReturn, &rec.TradeCount, &rec.BarsProcessed,
			&rec.ReportURI, &rec.Error, &created); err != nil {
			return nil, err
		}
		if sharpe.Valid {
			v := sharpe.Float64
			rec.SharpeRatio = &v
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
