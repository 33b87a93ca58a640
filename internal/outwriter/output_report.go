package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/parquet"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteReportResults outputs one report, dispatching based on the output format configured.
func WriteReportResults(w io.Writer, report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, report); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeChangesCSV(w, report.Changes, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.HTMLOut:
		if err := writeHTMLReports(w, []*schema.Report{report}, cfg); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertChangeRecords(schema.NewChangeRecords(reportRunLabel(report), report))
		if err := parquet.WriteChanges(w, rows); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		return writeReportText(w, report, cfg, fmtFloat, duration)
	}
	return nil
}

// reportRunLabel identifies a report in exports that have no stored run id.
func reportRunLabel(report *schema.Report) string {
	return report.Before.SourceID + ".." + report.After.SourceID
}

// visibleChanges filters out unchanged entries unless asked for, and applies the limit.
func visibleChanges(changes []schema.Change, cfg *contract.Config) ([]int, int) {
	var idx []int
	for i, c := range changes {
		if c.Kind == schema.Unchanged && !cfg.IncludeUnchanged {
			continue
		}
		idx = append(idx, i)
	}
	total := len(idx)
	if cfg.Limit > 0 && len(idx) > cfg.Limit {
		idx = idx[:cfg.Limit]
	}
	return idx, total
}

// writeReportText writes the report as human-readable tables.
func writeReportText(w io.Writer, report *schema.Report, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	colors := newPalette(cfg.UseColors)
	summary := report.Summary

	if _, err := fmt.Fprintf(w, "🐾 %s → %s (schema %s)\n", report.Before.SourceID, report.After.SourceID, report.SchemaVersion); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Divergence: %s (%s)\n\n", fmtFloat(summary.DivergenceScore), colors.divergence(summary.DivergenceScore)); err != nil {
		return err
	}

	if err := writeScoreDeltaTable(w, report, fmtFloat); err != nil {
		return err
	}

	idx, total := visibleChanges(report.Changes, cfg)
	if len(idx) > 0 {
		if err := writeChangeTable(w, report.Changes, idx, cfg, colors, fmtFloat); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Showing %d of %d changes\n", len(idx), total); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintln(w, "No changes"); err != nil {
		return err
	}

	if len(report.Insights) > 0 {
		if _, err := fmt.Fprintln(w, "\nInsights:"); err != nil {
			return err
		}
		for _, in := range report.Insights {
			if _, err := fmt.Fprintf(w, "  [%s] %s\n      %s\n      → %s\n", colors.severity(in.Severity), in.Title, in.Narrative, in.RecommendedAction); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "\nAdded: %d, Removed: %d, Modified: %d, Unchanged: %d\n",
		summary.Added, summary.Removed, summary.Modified, summary.Unchanged); err != nil {
		return err
	}
	counts := make([]string, 0, len(schema.AllSeverities))
	for i := len(schema.AllSeverities) - 1; i >= 0; i-- {
		sev := schema.AllSeverities[i]
		counts = append(counts, fmt.Sprintf("%s %d", contract.GetPlainLabel(sev), summary.SeverityCounts[sev]))
	}
	if _, err := fmt.Fprintf(w, "Severity: %s\n", strings.Join(counts, ", ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend: %s (▲ %d, ▼ %d, = %d)", summary.Trend.Profile, summary.Trend.Increased, summary.Trend.Decreased, summary.Trend.Stable); err != nil {
		return err
	}
	if summary.Trend.DominantCategory != "" {
		if _, err := fmt.Fprintf(w, ", dominant category: %s", summary.Trend.DominantCategory); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, warning := range summary.Warnings {
		if _, err := fmt.Fprintf(w, "⚠️  %s\n", warning); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Compared in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeScoreDeltaTable writes before, after and delta scores per category.
func writeScoreDeltaTable(w io.Writer, report *schema.Report, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Category", "Before", "After", "Delta"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, cs := range report.After.Scores {
		before := report.Before.Scores.Get(cs.Category)
		delta := cs.Score - before
		deltaStr := fmtFloat(delta)
		switch {
		case delta > 0:
			deltaStr = "+" + deltaStr + " ▲"
		case delta < 0:
			deltaStr += " ▼"
		}
		data = append(data, []string{string(cs.Category), fmtFloat(before), fmtFloat(cs.Score), deltaStr})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeChangeTable writes the selected changes in report order.
func writeChangeTable(w io.Writer, changes []schema.Change, idx []int, cfg *contract.Config, colors palette, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"#", "Metric", "Kind", "Before", "After", "Magnitude", "Severity"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	width := getMaxTableValueWidth(cfg)
	data := make([][]string, 0, len(idx))
	for _, i := range idx {
		c := changes[i]
		data = append(data, []string{
			strconv.Itoa(i + 1),
			c.Path(),
			colors.kind(c.Kind),
			truncateValue(formatValue(c.Before), width),
			truncateValue(formatValue(c.After), width),
			fmtFloat(c.Magnitude),
			colors.severity(c.Severity),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeChangesCSV writes every change as one CSV row.
func writeChangesCSV(w io.Writer, changes []schema.Change, fmtFloat func(float64) string) error {
	header := []string{"index", "category", "metric", "kind", "before", "after", "magnitude", "severity"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, c := range changes {
			row := []string{
				strconv.Itoa(i),
				string(c.Category),
				c.Metric,
				string(c.Kind),
				csvValue(c.Before),
				csvValue(c.After),
				fmtFloat(c.Magnitude),
				string(c.Severity),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func csvValue(v *schema.Value) string {
	if v == nil || v.IsAbsent() {
		return ""
	}
	return v.String()
}

// writeChartCSV flattens every chart series into kind,title,dataset,label,value rows.
func writeChartCSV(w io.Writer, charts schema.ChartData, precision int) error {
	fmtFloat, _ := createFormatters(precision)
	header := []string{"chart", "title", "dataset", "label", "value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, series := range charts.All() {
			for _, ds := range series.Datasets {
				for i, v := range ds.Values {
					label := ""
					if i < len(series.Labels) {
						label = series.Labels[i]
					}
					if err := cw.Write([]string{string(series.Kind), series.Title, ds.Name, label, fmtFloat(v)}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}
