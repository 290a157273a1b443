package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/newthinker/quantbench/internal/storage/results"
)

// WriteTable prints one line per ticker with the headline metrics
func WriteTable(out io.Writer, recs []results.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tSTATUS\tFINAL VALUE\tSHARPE\tMAX DD\tTRADES\t")
	fmt.Fprintln(w, "------\t------\t-----------\t------\t------\t------\t")

	for _, r := range recs {
		sharpe := "n/a"
		if r.SharpeRatio != nil {
			sharpe = fmt.Sprintf("%.4f", *r.SharpeRatio)
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%.2f%%\t%d\t\n",
			r.Ticker, r.Status, r.FinalValue, sharpe, r.MaxDrawdown*100, r.TradeCount)
	}
	return w.Flush()
}
