package indicator

import (
	"math"

	"github.com/newthinker/quantbench/internal/core"
)

// Indicator column names produced by Augment
const (
	SMA20          = "SMA_20"
	EMA20          = "EMA_20"
	RSI14          = "RSI"
	BollingerUpper = "Bollinger_Upper"
	BollingerLower = "Bollinger_Lower"
	MA10           = "10_day_MA"
	MA50           = "50_day_MA"
	RSISMARatio    = "RSI_SMA_Ratio"
	Volatility     = "Volatility"
	CloseLag1      = "Close_lag_1"
	CloseLag2      = "Close_lag_2"
	Momentum       = "Momentum"
)

// Columns lists every indicator Augment adds, in output order
var Columns = []string{
	SMA20, EMA20, RSI14, BollingerUpper, BollingerLower, MA10, MA50,
	RSISMARatio, Volatility, CloseLag1, CloseLag2, Momentum,
}

// Compute returns every indicator series for the given closes keyed by column name
func Compute(closes []float64) map[string][]float64 {
	sma20 := SMA(closes, 20)
	std20 := StdDev(closes, 20)
	rsi := RSI(closes, 14)

	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	ratio := make([]float64, len(closes))
	for i := range closes {
		upper[i] = sma20[i] + 2*std20[i]
		lower[i] = sma20[i] - 2*std20[i]
		ratio[i] = rsi[i] / sma20[i]
	}

	return map[string][]float64{
		SMA20:          sma20,
		EMA20:          EMA(closes, 20),
		RSI14:          rsi,
		BollingerUpper: upper,
		BollingerLower: lower,
		MA10:           SMA(closes, 10),
		MA50:           SMA(closes, 50),
		RSISMARatio:    ratio,
		Volatility:     std20,
		CloseLag1:      Lag(closes, 1),
		CloseLag2:      Lag(closes, 2),
		Momentum:       Diff(closes, 5),
	}
}

// RawCloseField is the unadjusted close kept by the loader when a CSV also
// carries an adjusted close
const RawCloseField = "Close"

// Augment returns a copy of bars with the indicator columns merged into each
// bar's fields. Indicators use the raw close when a bar has one, else
// Bar.Close. Undefined values are left out of the field map.
func Augment(bars []core.Bar) []core.Bar {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = indicatorClose(b)
	}
	series := Compute(closes)

	out := make([]core.Bar, len(bars))
	for i, b := range bars {
		fields := make(map[string]float64, len(b.Fields)+len(Columns))
		for k, v := range b.Fields {
			fields[k] = v
		}
		for _, name := range Columns {
			v := series[name][i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				delete(fields, name)
				continue
			}
			fields[name] = v
		}
		b.Fields = fields
		out[i] = b
	}
	return out
}

func indicatorClose(b core.Bar) float64 {
	if v, ok := b.Fields[RawCloseField]; ok && v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return b.Close
}
