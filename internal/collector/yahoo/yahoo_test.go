package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/quantbench/internal/config"
	"github.com/newthinker/quantbench/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two NYSE sessions opening at 09:30 EDT plus one missing row
const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "currency": "USD", "gmtoffset": -14400},
      "timestamp": [1714743000, 1715002200, 1715088600],
      "indicators": {
        "quote": [{
          "open":   [186.65, 182.35, null],
          "high":   [187.00, 184.20, null],
          "low":    [182.66, 180.42, null],
          "close":  [183.38, 181.71, null],
          "volume": [163224100, 78569700, null]
        }],
        "adjclose": [{"adjclose": [182.63, 180.97, null]}]
      }
    }],
    "error": null
  }
}`

func TestYahoo_FetchHistory(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"interval": r.URL.Query().Get("interval"),
			"period1":  r.URL.Query().Get("period1"),
			"adj":      r.URL.Query().Get("includeAdjustedClose"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	y := New(config.FetchConfig{BaseURL: srv.URL})
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars, err := y.FetchHistory(context.Background(), "600519.SH", start, start.AddDate(0, 0, 7))
	require.NoError(t, err)

	assert.Equal(t, "/600519.SS", gotPath)
	assert.Equal(t, "1d", gotQuery["interval"])
	assert.Equal(t, "1714521600", gotQuery["period1"])
	assert.Equal(t, "true", gotQuery["adj"])

	require.Len(t, bars, 2, "null rows skipped")
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), bars[1].Time)
	assert.Equal(t, 182.63, bars[0].Close, "close is adjusted")
	assert.Equal(t, 163224100.0, bars[0].Volume)

	raw, ok := bars[0].Field(FieldClose)
	require.True(t, ok)
	assert.Equal(t, 183.38, raw)
	open, _ := bars[0].Field(FieldOpen)
	assert.Equal(t, 186.65, open)
}

func TestYahoo_FetchHistory_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := New(config.FetchConfig{BaseURL: srv.URL})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := y.FetchHistory(context.Background(), "ZZZZ", start, start.AddDate(0, 1, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahoo_FetchHistory_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	y := New(config.FetchConfig{BaseURL: srv.URL})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := y.FetchHistory(context.Background(), "AAPL", start, start.AddDate(0, 1, 0))
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestYahoo_FetchHistory_BadInput(t *testing.T) {
	y := New(config.FetchConfig{BaseURL: "http://127.0.0.1:1"})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := y.FetchHistory(context.Background(), "", start, start.AddDate(0, 0, 1))
	assert.Error(t, err)
	_, err = y.FetchHistory(context.Background(), "AAPL", start, start)
	assert.Error(t, err)
}

func TestValidateSymbol(t *testing.T) {
	for _, ok := range []string{"AAPL", "BRK-B", "0700.HK", "600519.SH", "^GSPC"} {
		assert.NoError(t, validateSymbol(ok), ok)
	}
	for _, bad := range []string{"", "AA PL", "A/B", "TOOLONGSYMBOL1"} {
		assert.Error(t, validateSymbol(bad), bad)
	}
}

func TestToYahooSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"0700.HK", "0700.HK"},
		{"600519.SH", "600519.SS"}, // Shanghai -> SS for Yahoo
		{"000001.SZ", "000001.SZ"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, toYahooSymbol(tc.input))
	}
}
