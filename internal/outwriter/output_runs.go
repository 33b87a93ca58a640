package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/parquet"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// comparisonRunJSON is the listing form of a stored run; the full report is left out.
type comparisonRunJSON struct {
	RunID           string  `json:"run_id"`
	BeforeSource    string  `json:"before_source"`
	AfterSource     string  `json:"after_source"`
	SchemaVersion   string  `json:"schema_version"`
	CreatedAt       string  `json:"created_at"`
	Added           int32   `json:"added"`
	Removed         int32   `json:"removed"`
	Modified        int32   `json:"modified"`
	Unchanged       int32   `json:"unchanged"`
	DivergenceScore float64 `json:"divergence_score"`
	HighestSeverity string  `json:"highest_severity"`
	TrendProfile    string  `json:"trend_profile"`
}

// WriteComparisonRunResults outputs stored runs, dispatching based on the output format configured.
func WriteComparisonRunResults(w io.Writer, runs []schema.ComparisonRecord, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		out := make([]comparisonRunJSON, len(runs))
		for i, r := range runs {
			out[i] = comparisonRunJSON{
				RunID:           r.RunID,
				BeforeSource:    r.BeforeSource,
				AfterSource:     r.AfterSource,
				SchemaVersion:   r.SchemaVersion,
				CreatedAt:       r.CreatedAt.Format(contract.DateTimeFormat),
				Added:           r.Added,
				Removed:         r.Removed,
				Modified:        r.Modified,
				Unchanged:       r.Unchanged,
				DivergenceScore: r.DivergenceScore,
				HighestSeverity: r.HighestSeverity,
				TrendProfile:    r.TrendProfile,
			}
		}
		return writeJSON(w, out)
	case schema.CSVOut:
		header := []string{"run_id", "before_source", "after_source", "schema_version", "created_at", "added", "removed", "modified", "unchanged", "divergence_score", "highest_severity", "trend_profile"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, r := range runs {
				row := []string{
					r.RunID, r.BeforeSource, r.AfterSource, r.SchemaVersion,
					r.CreatedAt.Format(contract.DateTimeFormat),
					fmt.Sprintf(intFmt, r.Added),
					fmt.Sprintf(intFmt, r.Removed),
					fmt.Sprintf(intFmt, r.Modified),
					fmt.Sprintf(intFmt, r.Unchanged),
					fmtFloat(r.DivergenceScore),
					r.HighestSeverity,
					r.TrendProfile,
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
	case schema.ParquetOut:
		return parquet.WriteComparisons(w, parquet.ConvertComparisonRecords(runs))
	case schema.TextOut:
		return writeRunTable(w, runs, cfg, fmtFloat)
	default:
		return unsupported(cfg.Output, "stored comparisons")
	}
}

func writeRunTable(w io.Writer, runs []schema.ComparisonRecord, cfg *contract.Config, fmtFloat func(float64) string) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No stored comparisons")
		return err
	}
	colors := newPalette(cfg.UseColors)

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Run", "Created", "Before", "After", "Divergence", "Highest", "Trend"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, r := range runs {
		data = append(data, []string{
			shortRunID(r.RunID),
			r.CreatedAt.Format(contract.DateTimeFormat),
			contract.TruncatePath(r.BeforeSource, 24),
			contract.TruncatePath(r.AfterSource, 24),
			fmtFloat(r.DivergenceScore),
			colors.severity(schema.Severity(r.HighestSeverity)),
			r.TrendProfile,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %s stored comparisons\n", strconv.Itoa(len(runs)))
	return err
}

// shortRunID keeps the first block of a UUID for table display.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
