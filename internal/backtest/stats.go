package backtest

import (
	"math"

	"github.com/newthinker/quantbench/internal/core"
)

// Analyze computes the run summary from the equity curve and trade log
func Analyze(points []EquityPoint, trades []TradeEvent, initialCash float64, annualization float64) Summary {
	values := make([]float64, len(points))
	var long int
	for i, p := range points {
		values[i] = p.Value
		if p.Position == core.PositionLong {
			long++
		}
	}

	final := initialCash
	if len(values) > 0 {
		final = values[len(values)-1]
	}

	var totalReturn float64
	if initialCash != 0 {
		totalReturn = (final - initialCash) / initialCash
	}

	var exposure float64
	if len(points) > 0 {
		exposure = float64(long) / float64(len(points))
	}

	roundTrips, wins := countRoundTrips(trades)

	return Summary{
		FinalValue:        final,
		SharpeRatio:       calculateSharpeRatio(periodReturns(values), annualization),
		MaxDrawdown:       calculateMaxDrawdown(values),
		TotalReturn:       totalReturn,
		TradeCount:        len(trades),
		RoundTrips:        roundTrips,
		WinningRoundTrips: wins,
		Exposure:          exposure,
	}
}

// periodReturns converts an equity curve into simple per-bar returns, skipping
// steps that start from a non-positive value
func periodReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] <= 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

// calculateMaxDrawdown finds the largest peak-to-trough decline as a fraction
func calculateMaxDrawdown(values []float64) float64 {
	var maxDD float64
	var peak float64

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return math.Min(maxDD, 1)
}

// flatTolerance bounds the relative spread under which returns count as equal
const flatTolerance = 1e-12

// calculateSharpeRatio computes mean/stddev of returns scaled by
// sqrt(annualization). Returns nil when fewer than two returns exist or they
// are equal up to float rounding.
func calculateSharpeRatio(returns []float64, annualization float64) *float64 {
	if len(returns) < 2 {
		return nil
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	scale := flatTolerance * math.Max(math.Abs(mean), flatTolerance)

	allEqual := true
	for _, r := range returns {
		if math.Abs(r-mean) > scale {
			allEqual = false
			break
		}
	}
	if allEqual {
		return nil
	}

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev <= scale {
		return nil
	}

	if annualization <= 0 {
		annualization = 1
	}
	sharpe := mean / stdDev * math.Sqrt(annualization)
	return &sharpe
}

// countRoundTrips pairs each buy with the following sell
func countRoundTrips(trades []TradeEvent) (int, int) {
	var trips, wins int
	var entry *TradeEvent
	for i := range trades {
		t := trades[i]
		switch t.Action {
		case core.ActionBuy:
			if entry == nil {
				entry = &trades[i]
			}
		case core.ActionSell:
			if entry != nil {
				trips++
				if t.Price > entry.Price {
					wins++
				}
				entry = nil
			}
		}
	}
	return trips, wins
}
