package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/newthinker/quantbench/internal/backtest"
	"github.com/newthinker/quantbench/internal/core"
	"github.com/parquet-go/parquet-go"
)

// EquityRecord is the Parquet schema for one equity curve point.
type EquityRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Value     float64 `parquet:"value"`
	Position  string  `parquet:"position"`
}

// EncodeEquity serializes an equity curve to Parquet
func EncodeEquity(points []backtest.EquityPoint) ([]byte, error) {
	records := make([]EquityRecord, len(points))
	for i, p := range points {
		records[i] = EquityRecord{
			Timestamp: p.Time.UnixMilli(),
			Value:     p.Value,
			Position:  string(p.Position),
		}
	}

	var buf bytes.Buffer
	if err := parquet.Write(&buf, records); err != nil {
		return nil, fmt.Errorf("encoding equity curve: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeEquity reads an equity curve written by EncodeEquity
func DecodeEquity(data []byte) ([]backtest.EquityPoint, error) {
	records, err := parquet.Read[EquityRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding equity curve: %w", err)
	}

	points := make([]backtest.EquityPoint, len(records))
	for i, r := range records {
		points[i] = backtest.EquityPoint{
			Time:     time.UnixMilli(r.Timestamp).UTC(),
			Value:    r.Value,
			Position: core.Position(r.Position),
		}
	}
	return points, nil
}
