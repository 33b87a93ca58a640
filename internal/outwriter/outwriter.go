// Package outwriter has output and writer logic.
package outwriter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aimarketingflow/pawprint/internal/artifact"
	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct {
	stdout io.Writer
}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{stdout: os.Stdout}
}

// NewOutWriterTo creates an output writer whose console output goes to w.
func NewOutWriterTo(w io.Writer) *OutWriter {
	return &OutWriter{stdout: w}
}

// WriteReport prints one comparison report using the configured output format.
func (ow *OutWriter) WriteReport(ctx context.Context, report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	if err := ow.emit(ctx, cfg, cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteReportResults(w, report, cfg, duration)
	}); err != nil {
		return err
	}
	return ow.writeCharts(ctx, cfg, report)
}

// WriteBatch prints the results of a baseline batch comparison.
func (ow *OutWriter) WriteBatch(ctx context.Context, result *schema.BatchResult, cfg *contract.Config, duration time.Duration) error {
	return ow.emit(ctx, cfg, cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteBatchResults(w, result, cfg, duration)
	})
}

// WriteScores prints per-category scores for one or more fingerprints.
func (ow *OutWriter) WriteScores(ctx context.Context, results []schema.ScoreResult, cfg *contract.Config, duration time.Duration) error {
	return ow.emit(ctx, cfg, cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteScoreResults(w, results, cfg, duration)
	})
}

// WriteValidation prints document validation results.
func (ow *OutWriter) WriteValidation(ctx context.Context, results []schema.ValidationResult, cfg *contract.Config) error {
	return ow.emit(ctx, cfg, cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteValidationResults(w, results, cfg)
	})
}

// WriteRegistry prints the category registry.
func (ow *OutWriter) WriteRegistry(ctx context.Context, reg *schema.Registry, cfg *contract.Config) error {
	return ow.emit(ctx, cfg, cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteRegistryDefinitions(w, reg, cfg)
	})
}

// WriteComparisonRuns prints stored comparison runs.
func (ow *OutWriter) WriteComparisonRuns(ctx context.Context, runs []schema.ComparisonRecord, cfg *contract.Config) error {
	return ow.emit(ctx, cfg, cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteComparisonRunResults(w, runs, cfg)
	})
}

// writeCharts exports the chart data as CSV when a charts file is configured.
func (ow *OutWriter) writeCharts(ctx context.Context, cfg *contract.Config, report *schema.Report) error {
	if cfg.ChartsFile == "" {
		return nil
	}
	return ow.emit(ctx, cfg, cfg.ChartsFile, schema.CSVOut, func(w io.Writer) error {
		return writeChartCSV(w, report.ChartData, cfg.Precision)
	})
}

// emit runs render against the console when target is empty. Otherwise the
// output is buffered and handed to the sink for target, local or s3://.
func (ow *OutWriter) emit(ctx context.Context, cfg *contract.Config, target string, mode schema.OutputMode, render func(io.Writer) error) error {
	if target == "" {
		return render(ow.stdout)
	}

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	sink, name, err := artifact.Open(cfg.S3, target)
	if err != nil {
		return err
	}
	location, err := sink.Write(ctx, name, buf.Bytes(), artifact.ContentType(mode))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %s to %s\n", mode, location)
	return nil
}

// unsupported is returned for output modes a result kind cannot be rendered in.
func unsupported(mode schema.OutputMode, what string) error {
	return fmt.Errorf("%s output is not supported for %s", mode, what)
}
