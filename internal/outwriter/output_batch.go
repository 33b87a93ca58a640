package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/parquet"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteBatchResults outputs a batch result, dispatching based on the output format configured.
func WriteBatchResults(w io.Writer, result *schema.BatchResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, result)
	case schema.CSVOut:
		return writeBatchCSV(w, result, fmtFloat, intFmt)
	case schema.HTMLOut:
		return writeHTMLReports(w, batchReports(result), cfg)
	case schema.ParquetOut:
		var rows []parquet.Change
		for _, r := range batchReports(result) {
			rows = append(rows, parquet.ConvertChangeRecords(schema.NewChangeRecords(reportRunLabel(r), r))...)
		}
		return parquet.WriteChanges(w, rows)
	default:
		return writeBatchTable(w, result, cfg, fmtFloat, duration)
	}
}

// batchReports returns the successful reports in entry order.
func batchReports(result *schema.BatchResult) []*schema.Report {
	var reports []*schema.Report
	for _, e := range result.Entries {
		if e.Report != nil {
			reports = append(reports, e.Report)
		}
	}
	return reports
}

func writeBatchTable(w io.Writer, result *schema.BatchResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	colors := newPalette(cfg.UseColors)
	if _, err := fmt.Fprintf(w, "🐾 Baseline: %s\n", result.Baseline); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"#", "Target", "Divergence", "Label", "Added", "Removed", "Modified", "Highest", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	failed := 0
	var data [][]string
	for i, e := range result.Entries {
		row := []string{strconv.Itoa(i + 1), e.Target}
		if e.Report == nil {
			failed++
			row = append(row, "-", "-", "-", "-", "-", "-", e.Error)
		} else {
			s := e.Report.Summary
			row = append(row,
				fmtFloat(s.DivergenceScore),
				colors.divergence(s.DivergenceScore),
				strconv.Itoa(s.Added),
				strconv.Itoa(s.Removed),
				strconv.Itoa(s.Modified),
				colors.severity(e.Report.HighestSeverity()),
				"",
			)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Compared %d targets (%d failed) in %v with %d workers\n", len(result.Entries), failed, duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

func writeBatchCSV(w io.Writer, result *schema.BatchResult, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"baseline", "target", "divergence_score", "added", "removed", "modified", "unchanged", "highest_severity", "trend_profile", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range result.Entries {
			row := []string{result.Baseline, e.Target}
			if e.Report == nil {
				row = append(row, "", "", "", "", "", "", "", e.Error)
			} else {
				s := e.Report.Summary
				row = append(row,
					fmtFloat(s.DivergenceScore),
					fmt.Sprintf(intFmt, s.Added),
					fmt.Sprintf(intFmt, s.Removed),
					fmt.Sprintf(intFmt, s.Modified),
					fmt.Sprintf(intFmt, s.Unchanged),
					string(e.Report.HighestSeverity()),
					string(s.Trend.Profile),
					"",
				)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
