package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteScoreResults outputs category scores, dispatching based on the output format configured.
func WriteScoreResults(w io.Writer, results []schema.ScoreResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, results)
	case schema.CSVOut:
		header := []string{"source_id", "schema_version", "category", "score"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, r := range results {
				for _, cs := range r.Scores {
					if err := cw.Write([]string{r.SourceID, r.SchemaVersion, string(cs.Category), fmtFloat(cs.Score)}); err != nil {
						return err
					}
				}
			}
			return nil
		})
	case schema.TextOut:
		return writeScoreTable(w, results, cfg, fmtFloat, duration)
	default:
		return unsupported(cfg.Output, "scores")
	}
}

// writeScoreTable writes one column per fingerprint and one row per category.
func writeScoreTable(w io.Writer, results []schema.ScoreResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No fingerprints scored")
		return err
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	headers := []string{"Category"}
	for _, r := range results {
		headers = append(headers, contract.TruncatePath(r.SourceID, 24))
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, cs := range results[0].Scores {
		row := []string{string(cs.Category)}
		for _, r := range results {
			row = append(row, fmtFloat(r.Scores.Get(cs.Category)))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, r := range results {
		for _, warning := range r.Warnings {
			if _, err := fmt.Fprintf(w, "⚠️  %s: %s\n", r.SourceID, warning); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "Scored %d fingerprints in %v with %d workers\n", len(results), duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// WriteValidationResults outputs validation results, dispatching based on the output format configured.
func WriteValidationResults(w io.Writer, results []schema.ValidationResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, results)
	case schema.CSVOut:
		header := []string{"location", "source_id", "valid", "error"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, r := range results {
				if err := cw.Write([]string{r.Location, r.SourceID, strconv.FormatBool(r.Valid), r.Error}); err != nil {
					return err
				}
			}
			return nil
		})
	case schema.TextOut:
		valid := 0
		for _, r := range results {
			status := "✅"
			detail := r.SourceID
			if !r.Valid {
				status = "❌"
				detail = r.Error
			} else {
				valid++
			}
			if _, err := fmt.Fprintf(w, "%s %s: %s\n", status, r.Location, detail); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%d of %d documents valid\n", valid, len(results))
		return err
	default:
		return unsupported(cfg.Output, "validation results")
	}
}
