package collector

import (
	"context"
	"time"

	"github.com/newthinker/quantbench/internal/core"
)

// Collector downloads daily price history
type Collector interface {
	Name() string

	// FetchHistory returns daily bars in [start, end), oldest first. Bar.Close
	// is the split and dividend adjusted close; the raw OHLC values are kept as
	// the Open, High, Low and Close fields.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
}
