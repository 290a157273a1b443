package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/quantbench/internal/backtest"
)

// Run outcomes
const (
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
	StatusFailed           = "failed"
)

// Report is the archived JSON document for one ticker in a run
type Report struct {
	RunID         string           `json:"run_id"`
	Ticker        string           `json:"ticker"`
	Status        string           `json:"status"`
	GeneratedAt   time.Time        `json:"generated_at"`
	InitialCash   float64          `json:"initial_cash"`
	Lookback      int              `json:"lookback"`
	StartDate     *time.Time       `json:"start_date,omitempty"`
	EndDate       *time.Time       `json:"end_date,omitempty"`
	BarsProcessed int              `json:"bars_processed"`
	Summary       backtest.Summary `json:"summary"`
	Trades        []Trade          `json:"trades"`
	Warnings      []Warning        `json:"warnings,omitempty"`
	Error         string           `json:"error,omitempty"`
}

type Trade struct {
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
}

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewRunID returns a fresh identifier grouping the tickers of one batch
func NewRunID() string {
	return uuid.NewString()
}

// New builds a report from a run result. res may be nil for failed runs.
func New(runID, ticker, status string, res *backtest.Result, runErr error) *Report {
	r := &Report{
		RunID:       runID,
		Ticker:      ticker,
		Status:      status,
		GeneratedAt: time.Now().UTC(),
		Trades:      []Trade{},
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	if res == nil {
		return r
	}

	r.InitialCash = res.InitialCash
	r.Lookback = res.Lookback
	r.BarsProcessed = res.BarsProcessed
	r.Summary = res.Summary
	if !res.StartDate.IsZero() {
		start, end := res.StartDate, res.EndDate
		r.StartDate, r.EndDate = &start, &end
	}
	for _, t := range res.Trades {
		r.Trades = append(r.Trades, Trade{
			Time:     t.Time,
			Action:   string(t.Action),
			Price:    t.Price,
			Quantity: t.Quantity,
		})
	}
	for _, w := range res.Warnings {
		r.Warnings = append(r.Warnings, Warning{Code: w.Code, Message: w.Message})
	}
	return r
}

// JSON encodes the report with indentation
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// SummaryJSON encodes only the three headline metrics
func SummaryJSON(s backtest.Summary) ([]byte, error) {
	return json.MarshalIndent(struct {
		FinalValue  float64  `json:"final_value"`
		SharpeRatio *float64 `json:"sharpe_ratio"`
		MaxDrawdown float64  `json:"max_drawdown"`
	}{s.FinalValue, s.SharpeRatio, s.MaxDrawdown}, "", "  ")
}
