// Package report renders validation runs for the CLI in table, CSV and JSON
// form.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// WriteTable prints findings as an aligned table followed by a severity
// summary line.
func WriteTable(w io.Writer, run *contracts.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tCODE\tDATE\tINSTRUMENT\tMESSAGE")
	for _, f := range run.Findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.Severity, f.Code, dateCell(f), f.InstrumentID, f.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := run.CountBySeverity()
	_, err := fmt.Fprintf(w, "\n%d findings (%d errors, %d warnings, %d info) across %d positions, %d trades in %dms\n",
		len(run.Findings),
		counts[contracts.SeverityError],
		counts[contracts.SeverityWarning],
		counts[contracts.SeverityInfo],
		run.Positions, run.Trades, run.DurationMS)
	return err
}

// WriteCSV emits one row per finding with a fixed header.
func WriteCSV(w io.Writer, run *contracts.Run) error {
	cw := csv.NewWriter(w)
	header := []string{"severity", "code", "date", "instrument_id", "observed", "expected", "deviation", "message", "seq"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, f := range run.Findings {
		row := []string{
			string(f.Severity),
			string(f.Code),
			dateCell(f),
			f.InstrumentID,
			floatCell(f.Observed),
			floatCell(f.Expected),
			floatCell(f.Deviation),
			f.Message,
			strconv.Itoa(f.Seq),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON emits the full run, findings included, as indented JSON.
func WriteJSON(w io.Writer, run *contracts.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func dateCell(f contracts.Finding) string {
	if f.Date.IsZero() {
		return ""
	}
	return f.Date.Format("2006-01-02")
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
