package indicator

import "math"

// RSI calculates the Relative Strength Index using plain rolling means of
// gains and losses. The first price has no change and counts as a zero move.
func RSI(prices []float64, period int) []float64 {
	result := nanSeries(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else if delta < 0 {
			losses[i] = -delta
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)

	for i := period - 1; i < len(prices); i++ {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case l == 0 && g == 0:
			result[i] = math.NaN()
		case l == 0:
			result[i] = 100
		default:
			rs := g / l
			result[i] = 100 - 100/(1+rs)
		}
	}

	return result
}
