package indicator

import (
	"math"
	"testing"
)

func TestRSI_AllGains(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = float64(100 + i)
	}

	rsi := RSI(prices, 14)
	if !math.IsNaN(rsi[12]) {
		t.Errorf("rsi[12] = %f, want NaN", rsi[12])
	}
	for i := 13; i < len(rsi); i++ {
		if rsi[i] != 100 {
			t.Errorf("rsi[%d] = %f, want 100 for a rising series", i, rsi[i])
		}
	}
}

func TestRSI_Mixed(t *testing.T) {
	// +1, -1 alternating moves: the 14-bar window at i=14 holds 7 gains and 7 losses
	prices := []float64{100}
	for i := 1; i <= 15; i++ {
		if i%2 == 1 {
			prices = append(prices, prices[i-1]+1)
		} else {
			prices = append(prices, prices[i-1]-1)
		}
	}

	rsi := RSI(prices, 14)
	if !almostEqual(rsi[14], 50, 1e-9) {
		t.Errorf("rsi[14] = %f, want 50", rsi[14])
	}
}

func TestRSI_Flat(t *testing.T) {
	prices := make([]float64, 16)
	for i := range prices {
		prices[i] = 50
	}
	rsi := RSI(prices, 14)
	for i, v := range rsi {
		if !math.IsNaN(v) {
			t.Errorf("rsi[%d] = %f, want NaN for a flat series", i, v)
		}
	}
}
