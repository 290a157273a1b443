// internal/storage/results/store_test.go
package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// stores runs each test against both implementations
func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(0),
		"sqlite": sqlite,
	}
}

func TestStore_SaveAndGetByRun(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			msft := &Record{RunID: "run-1", Ticker: "MSFT", Status: "success", FinalValue: 10500, SharpeRatio: ptr(0.8), MaxDrawdown: 0.1, TradeCount: 4, BarsProcessed: 100}
			aapl := &Record{RunID: "run-1", Ticker: "AAPL", Status: "insufficient_data", FinalValue: 10000, ReportURI: "file:///r/run-1/AAPL/report.json"}
			other := &Record{RunID: "run-2", Ticker: "AAPL", Status: "failed", Error: "boom"}

			require.NoError(t, store.Save(ctx, msft))
			require.NoError(t, store.Save(ctx, aapl))
			require.NoError(t, store.Save(ctx, other))
			assert.NotZero(t, msft.ID)
			assert.NotEqual(t, msft.ID, aapl.ID)

			got, err := store.GetByRun(ctx, "run-1")
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, "AAPL", got[0].Ticker, "ordered by ticker")
			assert.Nil(t, got[0].SharpeRatio)
			assert.Equal(t, "file:///r/run-1/AAPL/report.json", got[0].ReportURI)

			assert.Equal(t, "MSFT", got[1].Ticker)
			require.NotNil(t, got[1].SharpeRatio)
			assert.InDelta(t, 0.8, *got[1].SharpeRatio, 1e-12)
			assert.Equal(t, 4, got[1].TradeCount)
			assert.Equal(t, 100, got[1].BarsProcessed)
			assert.False(t, got[1].CreatedAt.IsZero())
		})
	}
}

func TestStore_ListAndCount(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			for i, ticker := range []string{"A", "B", "C", "D"} {
				status := "success"
				if i%2 == 1 {
					status = "failed"
				}
				require.NoError(t, store.Save(ctx, &Record{
					RunID:     "run",
					Ticker:    ticker,
					Status:    status,
					CreatedAt: base.Add(time.Duration(i) * time.Hour),
				}))
			}

			all, err := store.List(ctx, ListFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 4)

			failed, err := store.List(ctx, ListFilter{Status: "failed"})
			require.NoError(t, err)
			require.Len(t, failed, 2)
			assert.Equal(t, "B", failed[0].Ticker)

			page, err := store.List(ctx, ListFilter{Offset: 1, Limit: 2})
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.Equal(t, "B", page[0].Ticker)
			assert.Equal(t, "C", page[1].Ticker)

			tail, err := store.List(ctx, ListFilter{Offset: 3})
			require.NoError(t, err)
			require.Len(t, tail, 1)
			assert.Equal(t, "D", tail[0].Ticker)

			window, err := store.List(ctx, ListFilter{From: base.Add(time.Hour), To: base.Add(2 * time.Hour)})
			require.NoError(t, err)
			assert.Len(t, window, 2)

			n, err := store.Count(ctx, ListFilter{Ticker: "C"})
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			empty, err := store.List(ctx, ListFilter{RunID: "missing"})
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestMemoryStore_MaxSize(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	for _, ticker := range []string{"A", "B", "C"} {
		require.NoError(t, store.Save(ctx, &Record{RunID: "run", Ticker: ticker}))
	}

	got, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Ticker, "oldest trimmed")
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Record{RunID: "run", Ticker: "A", SharpeRatio: ptr(1)}))

	got, _ := store.List(ctx, ListFilter{})
	*got[0].SharpeRatio = 99

	again, _ := store.List(ctx, ListFilter{})
	assert.Equal(t, 1.0, *again[0].SharpeRatio)
}

func TestOpen(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &SQLiteStore{}, store)
}
