// Package parquet provides data structures and functions for exporting pawprint
// comparison data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/parquet-go/parquet-go"
)

// Comparison represents a single stored comparison run.
// This struct maps to the pawprint_comparisons database table.
type Comparison struct {
	// RunID is the unique identifier for this comparison run
	RunID string `parquet:"run_id,snappy"`

	// BeforeSource and AfterSource are the compared fingerprint sources
	BeforeSource string `parquet:"before_source,snappy"`
	AfterSource  string `parquet:"after_source,snappy"`

	// SchemaVersion is the registry version both fingerprints used
	SchemaVersion string `parquet:"schema_version,snappy"`

	// CreatedAt is when the comparison ran (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`

	Added     int32 `parquet:"added,snappy"`
	Removed   int32 `parquet:"removed,snappy"`
	Modified  int32 `parquet:"modified,snappy"`
	Unchanged int32 `parquet:"unchanged,snappy"`

	// DivergenceScore is the weighted mean of category score deltas (0-1)
	DivergenceScore float64 `parquet:"divergence_score,snappy"`

	// HighestSeverity is the top severity among the run's changes
	HighestSeverity string `parquet:"highest_severity,snappy,dict"`

	// TrendProfile is the trend label of the run
	TrendProfile string `parquet:"trend_profile,snappy,dict"`
}

// Change represents one classified metric change of a comparison run.
// This struct maps to the pawprint_changes database table.
type Change struct {
	RunID    string `parquet:"run_id,snappy,dict"`
	Seq      int32  `parquet:"seq,snappy"`
	Category string `parquet:"category,snappy,dict"`
	Metric   string `parquet:"metric,snappy,dict"`
	Kind     string `parquet:"kind,snappy,dict"`

	// Before and After hold the JSON-encoded values (nullable for added/removed)
	Before *string `parquet:"before_value,optional,snappy"`
	After  *string `parquet:"after_value,optional,snappy"`

	Magnitude float64 `parquet:"magnitude,snappy"`
	Severity  string  `parquet:"severity,snappy,dict"`
}

// WriteComparisonsParquet writes comparison runs to a Parquet file.
func WriteComparisonsParquet(data []Comparison, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteChangesParquet writes change rows to a Parquet file.
func WriteChangesParquet(data []Change, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteComparisons writes comparison runs to w.
func WriteComparisons(w io.Writer, data []Comparison) error {
	return writeRows(w, data)
}

// WriteChanges writes change rows to w.
func WriteChanges(w io.Writer, data []Change) error {
	return writeRows(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeRows(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// writeRows infers the schema from T's struct tags.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertComparisonRecords converts schema.ComparisonRecord to Comparison for Parquet export.
func ConvertComparisonRecords(records []schema.ComparisonRecord) []Comparison {
	result := make([]Comparison, len(records))
	for i, record := range records {
		result[i] = Comparison{
			RunID:           record.RunID,
			BeforeSource:    record.BeforeSource,
			AfterSource:     record.AfterSource,
			SchemaVersion:   record.SchemaVersion,
			CreatedAt:       record.CreatedAt,
			Added:           record.Added,
			Removed:         record.Removed,
			Modified:        record.Modified,
			Unchanged:       record.Unchanged,
			DivergenceScore: record.DivergenceScore,
			HighestSeverity: record.HighestSeverity,
			TrendProfile:    record.TrendProfile,
		}
	}
	return result
}

// ConvertChangeRecords converts schema.ChangeRecord to Change for Parquet export.
func ConvertChangeRecords(records []schema.ChangeRecord) []Change {
	result := make([]Change, len(records))
	for i, record := range records {
		result[i] = Change{
			RunID:     record.RunID,
			Seq:       record.Seq,
			Category:  record.Category,
			Metric:    record.Metric,
			Kind:      record.Kind,
			Before:    record.Before,
			After:     record.After,
			Magnitude: record.Magnitude,
			Severity:  record.Severity,
		}
	}
	return result
}
