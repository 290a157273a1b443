package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/newthinker/quantbench/internal/backtest"
	"github.com/newthinker/quantbench/internal/core"
	"github.com/newthinker/quantbench/internal/storage/archive"
	"github.com/newthinker/quantbench/internal/storage/results"
	"go.uber.org/zap"
)

// Archive object names under <run>/<ticker>/
const (
	ReportFile = "report.json"
	EquityFile = "equity.parquet"
)

// Writer persists run outcomes to the archive and the results index.
// Either backend may be nil.
type Writer struct {
	store archive.Storage
	index results.Store
	log   *zap.Logger
}

// NewWriter creates a Writer
func NewWriter(store archive.Storage, index results.Store, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{store: store, index: index, log: log}
}

// ReportPath returns the archive path of a ticker's report
func ReportPath(runID, ticker string) string {
	return path.Join(runID, ticker, ReportFile)
}

// EquityPath returns the archive path of a ticker's equity curve
func EquityPath(runID, ticker string) string {
	return path.Join(runID, ticker, EquityFile)
}

// Save archives the report and equity curve, then indexes the outcome. The
// returned record is populated even when persisting fails.
func (w *Writer) Save(ctx context.Context, rep *Report, res *backtest.Result) (*results.Record, error) {
	rec := &results.Record{
		RunID:  rep.RunID,
		Ticker: rep.Ticker,
		Status: rep.Status,
		Error:  rep.Error,
	}
	if res != nil {
		rec.FinalValue = res.Summary.FinalValue
		rec.SharpeRatio = res.Summary.SharpeRatio
		rec.MaxDrawdown = res.Summary.MaxDrawdown
		rec.TotalReturn = res.Summary.TotalReturn
		rec.TradeCount = res.Summary.TradeCount
		rec.BarsProcessed = res.BarsProcessed
	}

	if w.store != nil {
		data, err := rep.JSON()
		if err != nil {
			return rec, core.WrapError(core.ErrStorageFailed, fmt.Errorf("encoding report: %w", err))
		}
		reportPath := ReportPath(rep.RunID, rep.Ticker)
		if err := w.store.Write(ctx, reportPath, data); err != nil {
			return rec, core.WrapError(core.ErrStorageFailed, err)
		}
		rec.ReportURI = w.store.Location(reportPath)

		if res != nil && len(res.EquityCurve) > 0 {
			equity, err := EncodeEquity(res.EquityCurve)
			if err != nil {
				return rec, core.WrapError(core.ErrStorageFailed, err)
			}
			if err := w.store.Write(ctx, EquityPath(rep.RunID, rep.Ticker), equity); err != nil {
				return rec, core.WrapError(core.ErrStorageFailed, err)
			}
		}
		w.log.Debug("report archived", zap.String("ticker", rep.Ticker), zap.String("uri", rec.ReportURI))
	}

	if w.index != nil {
		if err := w.index.Save(ctx, rec); err != nil {
			return rec, core.WrapError(core.ErrStorageFailed, err)
		}
	}
	return rec, nil
}

// Load reads an archived report back
func Load(ctx context.Context, store archive.Storage, runID, ticker string) (*Report, error) {
	data, err := store.Read(ctx, ReportPath(runID, ticker))
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &rep, nil
}
