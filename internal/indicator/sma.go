package indicator

import "math"

// All series functions return a slice aligned with the input: position i holds
// the value computed from prices[0..i], or NaN while the window is still filling.

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA calculates Simple Moving Average
func SMA(prices []float64, period int) []float64 {
	result := nanSeries(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result[period-1] = sum / float64(period)

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result[i] = sum / float64(period)
	}

	return result
}

// EMA calculates an Exponential Moving Average seeded with the first price,
// so every position is defined.
func EMA(prices []float64, span int) []float64 {
	result := nanSeries(len(prices))
	if span <= 0 || len(prices) == 0 {
		return result
	}

	alpha := 2.0 / float64(span+1)
	ema := prices[0]
	result[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = alpha*prices[i] + (1-alpha)*ema
		result[i] = ema
	}

	return result
}

// StdDev calculates the rolling sample standard deviation (n-1 denominator)
func StdDev(prices []float64, period int) []float64 {
	result := nanSeries(len(prices))
	if period < 2 || len(prices) < period {
		return result
	}

	for i := period - 1; i < len(prices); i++ {
		window := prices[i-period+1 : i+1]
		var mean float64
		for _, p := range window {
			mean += p
		}
		mean /= float64(period)

		var variance float64
		for _, p := range window {
			variance += (p - mean) * (p - mean)
		}
		result[i] = math.Sqrt(variance / float64(period-1))
	}

	return result
}

// Lag shifts the series forward by n positions
func Lag(prices []float64, n int) []float64 {
	result := nanSeries(len(prices))
	for i := n; i < len(prices); i++ {
		result[i] = prices[i-n]
	}
	return result
}

// Diff returns prices[i] - prices[i-n]
func Diff(prices []float64, n int) []float64 {
	result := nanSeries(len(prices))
	for i := n; i < len(prices); i++ {
		result[i] = prices[i] - prices[i-n]
	}
	return result
}
