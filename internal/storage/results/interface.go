// internal/storage/results/interface.go
package results

import (
	"context"
	"time"
)

// Record is one ticker's outcome within a run
type Record struct {
	ID            int64
	RunID         string
	Ticker        string
	Status        string
	FinalValue    float64
	SharpeRatio   *float64
	MaxDrawdown   float64
	TotalReturn   float64
	TradeCount    int
	BarsProcessed int
	ReportURI     string
	Error         string
	CreatedAt     time.Time
}

// Store defines the interface for the results index.
type Store interface {
	// Save persists a record and assigns its ID.
	Save(ctx context.Context, rec *Record) error

	// GetByRun returns every record of a run ordered by ticker.
	GetByRun(ctx context.Context, runID string) ([]Record, error)

	// List retrieves records matching the filter in insertion order.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)

	Close() error
}

// ListFilter defines criteria for listing records.
type ListFilter struct {
	RunID  string
	Ticker string
	Status string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Open returns a SQLite store for dsn, or an in-memory store when dsn is empty.
func Open(dsn string) (Store, error) {
	if dsn == "" {
		return NewMemoryStore(0), nil
	}
	return NewSQLiteStore(dsn)
}
