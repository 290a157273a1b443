package backtest

import (
	"time"

	"github.com/newthinker/quantbench/internal/core"
)

// Result holds the complete backtest output
type Result struct {
	Symbol        string
	InitialCash   float64
	Lookback      int
	StartDate     time.Time
	EndDate       time.Time
	BarsProcessed int // Bars that passed the availability gate
	EquityCurve   []EquityPoint
	Trades        []TradeEvent
	Warnings      []Warning
	Summary       Summary
}

// EquityPoint is the marked-to-market portfolio value after one processed bar
type EquityPoint struct {
	Time     time.Time
	Value    float64
	Position core.Position
}

// TradeEvent records one executed order
type TradeEvent struct {
	Time     time.Time
	Action   core.Action
	Price    float64
	Quantity float64
}

// Warning is a non-fatal advisory attached to a run
type Warning struct {
	Code    string
	Message string
}

// Summary holds performance statistics
type Summary struct {
	FinalValue        float64  `json:"final_value"`
	SharpeRatio       *float64 `json:"sharpe_ratio"` // nil when undefined
	MaxDrawdown       float64  `json:"max_drawdown"` // Fraction in [0, 1]
	TotalReturn       float64  `json:"total_return"` // Fraction of initial cash
	TradeCount        int      `json:"trade_count"`
	RoundTrips        int      `json:"round_trips"`
	WinningRoundTrips int      `json:"winning_round_trips"`
	Exposure          float64  `json:"exposure"` // Share of processed bars spent long
}

// HasTrades returns true if at least one order was executed
func (r *Result) HasTrades() bool {
	return len(r.Trades) > 0
}
