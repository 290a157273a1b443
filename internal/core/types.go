package core

import (
	"math"
	"time"
)

// FeatureNames is the ordered feature layout predictors are trained against.
var FeatureNames = []string{
	"SMA_20",
	"EMA_20",
	"RSI",
	"RSI_SMA_Ratio",
	"Volatility",
	"Close_lag_1",
	"Close_lag_2",
	"Momentum",
}

// Bar represents one time-stamped price record plus its indicator fields
type Bar struct {
	Time   time.Time
	Close  float64
	Volume float64
	Fields map[string]float64 // Indicator name -> value, undefined values are absent
}

// Field returns the named indicator value and whether it is defined
func (b Bar) Field(name string) (float64, bool) {
	v, ok := b.Fields[name]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// IsValid checks if the bar has a timestamp and a usable close
func (b Bar) IsValid() bool {
	return !b.Time.IsZero() && b.Close > 0 && !math.IsInf(b.Close, 0)
}

// FeatureVector is the ordered input handed to a predictor
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Len returns the number of values in the vector
func (v FeatureVector) Len() int {
	return len(v.Values)
}

// Get returns the value stored under name
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name && i < len(v.Values) {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Action represents a trade direction
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Position is the strategy state carried between bars
type Position string

const (
	PositionFlat Position = "flat"
	PositionLong Position = "long"
)

// Label values returned by predictors
const (
	LabelDown = 0
	LabelUp   = 1
)
