package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/remedy"
)

// WriteResult prints the three report lines and, when top is positive, the
// ranked alternatives after them.
func WriteResult(w io.Writer, r *Result, top int) error {
	p := r.Prediction
	if _, err := fmt.Fprintf(w, "Predicted Disease: %s\nConfidence: %.2f %%\nTreatment Recommendation: %s\n",
		p.Label, p.Confidence*100, r.Remedy); err != nil {
		return err
	}
	if top <= 0 || len(p.Top) == 0 {
		return nil
	}

	ranked := p.Top[:min(top, len(p.Top))]
	if _, err := fmt.Fprintf(w, "\nTop %d:\n", len(ranked)); err != nil {
		return err
	}
	for i, rk := range ranked {
		if _, err := fmt.Fprintf(w, "  %d. %s %.2f %%\n", i+1, rk.Label, rk.Confidence*100); err != nil {
			return err
		}
	}
	return nil
}

// WriteResults writes directory results as a table or CSV.
func WriteResults(w io.Writer, results []*Result, format string) error {
	if format == conf.FormatCSV {
		return writeCSV(w, results)
	}
	return writeTable(w, results)
}

func writeTable(w io.Writer, results []*Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "FILE\tDISEASE\tCONFIDENCE\tTREATMENT"); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%s\n",
			filepath.Base(r.File), r.Prediction.Label, r.Prediction.Confidence*100, r.Remedy); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, results []*Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "label", "confidence", "treatment", "sha256"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			filepath.Base(r.File),
			r.Prediction.Label,
			strconv.FormatFloat(r.Prediction.Confidence, 'f', 4, 64),
			r.Remedy,
			r.SHA256,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRemedies lists the remedy table sorted by label, as a table or CSV.
func WriteRemedies(w io.Writer, table *remedy.Table, format string) error {
	labels := table.Labels()
	if format == conf.FormatCSV {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"label", "treatment", "prevention"}); err != nil {
			return err
		}
		for _, label := range labels {
			e, _ := table.Entry(label)
			if err := cw.Write([]string{label, e.Treatment, strings.Join(e.Prevention, "; ")}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "LABEL\tTREATMENT"); err != nil {
		return err
	}
	for _, label := range labels {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", label, table.Lookup(label)); err != nil {
			return err
		}
	}
	return tw.Flush()
}
