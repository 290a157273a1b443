package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/quantbench/internal/core"
)

// Column names of a loaded frame
const (
	ColDate   = "Date"
	ColClose  = "close"
	ColVolume = "volume"
)

// Source column aliases, matched case-sensitively after trimming
var (
	dateAliases   = []string{"Price", "Date", "Datetime"}
	closeAliases  = []string{"Adj Close", "close", "Close"} // First match wins
	volumeAliases = []string{"Volume", "volume"}
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"01/02/2006",
}

// LoadOptions controls CSV parsing
type LoadOptions struct {
	// SkipRows drops this many rows after the header. Raw downloads carry two
	// metadata rows (ticker and index name).
	SkipRows int
}

// RawOptions matches raw downloads with two metadata rows
func RawOptions() LoadOptions {
	return LoadOptions{SkipRows: 2}
}

// FrameOptions matches frames written by WriteCSV
func FrameOptions() LoadOptions {
	return LoadOptions{}
}

// LoadFile opens path and parses it with LoadCSV
func LoadFile(path string, opts LoadOptions) ([]core.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	bars, err := LoadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return bars, nil
}

// LoadCSV parses a price CSV into bars sorted by time. Rows whose date or
// close cannot be parsed are dropped, as are later rows repeating a timestamp.
// Numeric columns other than date, close and volume become bar fields.
func LoadCSV(r io.Reader, opts LoadOptions) ([]core.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("empty file"))
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	dateIdx := findColumn(header, dateAliases)
	if dateIdx < 0 {
		return nil, fmt.Errorf("no date column in header %v", header)
	}
	closeIdx := findColumn(header, closeAliases)
	if closeIdx < 0 {
		return nil, fmt.Errorf("no close column in header %v", header)
	}
	volumeIdx := findColumn(header, volumeAliases)

	var bars []core.Bar
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row+1, err)
		}
		row++
		if row <= opts.SkipRows {
			continue
		}

		bar, ok := parseRow(header, record, dateIdx, closeIdx, volumeIdx)
		if ok {
			bars = append(bars, bar)
		}
	}

	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no parseable rows"))
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return dedupe(bars), nil
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

func parseRow(header, record []string, dateIdx, closeIdx, volumeIdx int) (core.Bar, bool) {
	if dateIdx >= len(record) || closeIdx >= len(record) {
		return core.Bar{}, false
	}

	ts, ok := parseDate(record[dateIdx])
	if !ok {
		return core.Bar{}, false
	}
	closePx, ok := parseFloat(record[closeIdx])
	if !ok || closePx <= 0 {
		return core.Bar{}, false
	}

	bar := core.Bar{Time: ts, Close: closePx}
	if volumeIdx >= 0 && volumeIdx < len(record) {
		if v, ok := parseFloat(record[volumeIdx]); ok {
			bar.Volume = v
		}
	}

	for i, name := range header {
		if i == dateIdx || i == closeIdx || i == volumeIdx || i >= len(record) || name == "" {
			continue
		}
		if v, ok := parseFloat(record[i]); ok {
			if bar.Fields == nil {
				bar.Fields = make(map[string]float64)
			}
			bar.Fields[name] = v
		}
	}
	return bar, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func dedupe(bars []core.Bar) []core.Bar {
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// WriteCSV writes bars as a frame: Date, close, volume, then every field name
// in sorted order. Undefined fields are left empty.
func WriteCSV(w io.Writer, bars []core.Bar) error {
	names := fieldNames(bars)

	writer := csv.NewWriter(w)
	header := append([]string{ColDate, ColClose, ColVolume}, names...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, b := range bars {
		record[0] = formatDate(b.Time)
		record[1] = strconv.FormatFloat(b.Close, 'f', -1, 64)
		record[2] = strconv.FormatFloat(b.Volume, 'f', -1, 64)
		for i, name := range names {
			if v, ok := b.Field(name); ok {
				record[3+i] = strconv.FormatFloat(v, 'f', -1, 64)
			} else {
				record[3+i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes bars to path with WriteCSV, creating parent directories
func WriteFile(path string, bars []core.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, bars); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func fieldNames(bars []core.Bar) []string {
	seen := make(map[string]struct{})
	for _, b := range bars {
		for k := range b.Fields {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 && t.Location() == time.UTC {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// ListCSV returns the CSV files directly inside dir, sorted by name
func ListCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// SymbolFromPath derives the ticker from a file name such as data/AAPL.csv
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Raw download column order. Open, High, Low and the unadjusted Close come
// from bar fields of the same name.
var rawColumns = []string{"Adj Close", "Close", "High", "Low", "Open", "Volume"}

// WriteRawCSV writes bars in the raw download layout: a Price header, a
// Ticker row and a Date row, then one row per bar. LoadCSV with RawOptions
// reads it back.
func WriteRawCSV(w io.Writer, ticker string, bars []core.Bar) error {
	writer := csv.NewWriter(w)

	header := append([]string{"Price"}, rawColumns...)
	tickerRow := []string{"Ticker"}
	dateRow := []string{"Date"}
	for range rawColumns {
		tickerRow = append(tickerRow, ticker)
		dateRow = append(dateRow, "")
	}
	for _, row := range [][]string{header, tickerRow, dateRow} {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	record := make([]string, len(header))
	for _, b := range bars {
		record[0] = formatDate(b.Time)
		record[1] = strconv.FormatFloat(b.Close, 'f', -1, 64)
		for i, name := range rawColumns[1:5] {
			v, ok := b.Field(name)
			if !ok && name == "Close" {
				v, ok = b.Close, true
			}
			if ok {
				record[2+i] = strconv.FormatFloat(v, 'f', -1, 64)
			} else {
				record[2+i] = ""
			}
		}
		record[6] = strconv.FormatFloat(b.Volume, 'f', -1, 64)
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteRawFile writes bars to path with WriteRawCSV, creating parent directories
func WriteRawFile(path, ticker string, bars []core.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRawCSV(f, ticker, bars); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
