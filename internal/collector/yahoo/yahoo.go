package yahoo

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newthinker/quantbench/internal/collector"
	"github.com/newthinker/quantbench/internal/config"
	"github.com/newthinker/quantbench/internal/core"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultTimeout = 10 * time.Second
)

// Field names for the unadjusted prices kept on each bar
const (
	FieldOpen  = "Open"
	FieldHigh  = "High"
	FieldLow   = "Low"
	FieldClose = "Close"
)

var _ collector.Collector = (*Yahoo)(nil)

// validSymbol matches stock symbols like AAPL, BRK-B, 600519.SH, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9^-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo downloads daily history from the Yahoo Finance chart API
type Yahoo struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// New creates a new Yahoo collector
func New(cfg config.FetchConfig) *Yahoo {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Yahoo{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "Mozilla/5.0 (compatible; quantbench)"),
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchHistory fetches daily bars with adjusted closes
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end %s must be after start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var result chartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval":             "1d",
			"period1":              strconv.FormatInt(start.Unix(), 10),
			"period2":              strconv.FormatInt(end.Unix(), 10),
			"events":               "div,split",
			"includeAdjustedClose": "true",
		}).
		SetResult(&result).
		SetError(&result).
		ForceContentType("application/json").
		Get("/" + toYahooSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode())
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return toBars(result.Chart.Result[0]), nil
}

func toBars(r chartResult) []core.Bar {
	quotes := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]core.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePx := at(quotes.Close, i)
		if closePx == nil {
			continue // Skip missing data
		}

		adjusted := *closePx
		if v := at(adj, i); v != nil {
			adjusted = *v
		}

		fields := map[string]float64{FieldClose: *closePx}
		for name, series := range map[string][]*float64{FieldOpen: quotes.Open, FieldHigh: quotes.High, FieldLow: quotes.Low} {
			if v := at(series, i); v != nil {
				fields[name] = *v
			}
		}

		var volume float64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = float64(*quotes.Volume[i])
		}

		// Daily bars are keyed by exchange-local calendar date
		t := time.Unix(ts, 0).UTC().Add(time.Duration(r.Meta.GMTOffset) * time.Second)
		bars = append(bars, core.Bar{
			Time:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Close:  adjusted,
			Volume: volume,
			Fields: fields,
		})
	}
	return bars
}

func at(series []*float64, i int) *float64 {
	if i >= len(series) {
		return nil
	}
	return series[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol    string `json:"symbol"`
	Currency  string `json:"currency"`
	GMTOffset int64  `json:"gmtoffset"`
}

type indicators struct {
	Quote    []quoteIndicator `json:"quote"`
	AdjClose []adjClose       `json:"adjclose"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type adjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}
