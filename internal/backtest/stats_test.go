package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/newthinker/quantbench/internal/core"
)

func points(values ...float64) []EquityPoint {
	out := make([]EquityPoint, len(values))
	for i, v := range values {
		out[i] = EquityPoint{Time: baseTime.AddDate(0, 0, i), Value: v, Position: core.PositionLong}
	}
	return out
}

func TestAnalyze_Empty(t *testing.T) {
	s := Analyze(nil, nil, 10000, 1)
	if s.FinalValue != 10000 {
		t.Errorf("FinalValue = %f, want initial cash", s.FinalValue)
	}
	if s.SharpeRatio != nil {
		t.Error("expected nil sharpe for empty curve")
	}
	if s.MaxDrawdown != 0 {
		t.Errorf("MaxDrawdown = %f, want 0", s.MaxDrawdown)
	}
}

func TestAnalyze_FinalValueAndReturn(t *testing.T) {
	s := Analyze(points(100, 120, 150), nil, 100, 1)
	if s.FinalValue != 150 {
		t.Errorf("FinalValue = %f, want 150", s.FinalValue)
	}
	if math.Abs(s.TotalReturn-0.5) > 1e-12 {
		t.Errorf("TotalReturn = %f, want 0.5", s.TotalReturn)
	}
	if s.Exposure != 1 {
		t.Errorf("Exposure = %f, want 1", s.Exposure)
	}
}

func TestCalculateMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"monotone", []float64{100, 100, 105, 110}, 0},
		{"single dip", []float64{100, 110, 88, 95}, 0.2},
		{"later deeper dip", []float64{100, 90, 120, 60, 130}, 0.5},
		{"wiped out", []float64{100, -50}, 1},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateMaxDrawdown(tt.values)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("calculateMaxDrawdown() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCalculateSharpeRatio(t *testing.T) {
	returns := []float64{0.1, -0.1, 0.1}
	got := calculateSharpeRatio(returns, 1)
	if got == nil {
		t.Fatal("expected sharpe ratio")
	}

	// mean 1/30, sample std sqrt(0.04/3)
	want := (1.0 / 30.0) / math.Sqrt(0.04/3.0)
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("sharpe = %f, want %f", *got, want)
	}

	annual := calculateSharpeRatio(returns, 252)
	if math.Abs(*annual-want*math.Sqrt(252)) > 1e-9 {
		t.Errorf("annualized sharpe = %f, want %f", *annual, want*math.Sqrt(252))
	}
}

func TestCalculateSharpeRatio_Undefined(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
	}{
		{"no returns", nil},
		{"single return", []float64{0.05}},
		{"all equal", []float64{0.02, 0.02, 0.02}},
		{"all zero", []float64{0, 0, 0, 0}},
		{"equal up to rounding", []float64{0.1, 0.10000000000000009, 0.09999999999999987, 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateSharpeRatio(tt.returns, 1); got != nil {
				t.Errorf("expected nil, got %f", *got)
			}
		})
	}
}

func TestAnalyze_GeometricCurveHasNoSharpe(t *testing.T) {
	values := make([]float64, 30)
	v := 10000.0
	for i := range values {
		values[i] = v
		v *= 1.1
	}
	s := Analyze(points(values...), nil, 10000, 252)
	if s.SharpeRatio != nil {
		t.Errorf("expected nil sharpe for constant growth, got %g", *s.SharpeRatio)
	}
}

func TestPeriodReturns(t *testing.T) {
	got := periodReturns([]float64{100, 50, 0, 10})
	// 0 -> 10 step is skipped
	if len(got) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(got))
	}
	if got[0] != -0.5 || got[1] != -1 {
		t.Errorf("unexpected returns %v", got)
	}
}

func TestCountRoundTrips(t *testing.T) {
	now := time.Now()
	trades := []TradeEvent{
		{Time: now, Action: core.ActionBuy, Price: 100},
		{Time: now, Action: core.ActionSell, Price: 110},
		{Time: now, Action: core.ActionBuy, Price: 108},
		{Time: now, Action: core.ActionSell, Price: 100},
		{Time: now, Action: core.ActionBuy, Price: 101},
	}

	trips, wins := countRoundTrips(trades)
	if trips != 2 {
		t.Errorf("trips = %d, want 2", trips)
	}
	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}

	s := Analyze(nil, trades, 100, 1)
	if s.TradeCount != 5 || s.RoundTrips != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestAnalyze_DrawdownBounds(t *testing.T) {
	s := Analyze(points(100, 300, 30, 200, 1), nil, 100, 1)
	if s.MaxDrawdown < 0 || s.MaxDrawdown > 1 {
		t.Errorf("MaxDrawdown = %f, out of [0,1]", s.MaxDrawdown)
	}
}
