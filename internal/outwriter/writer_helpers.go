package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	"golang.org/x/term"
)

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// palette holds the label renderers for one output, plain when colors are off.
type palette struct {
	severity   func(schema.Severity) string
	kind       func(schema.ChangeKind) string
	divergence func(float64) string
}

func newPalette(useColors bool) palette {
	if useColors {
		return palette{
			severity:   contract.GetColorLabel,
			kind:       contract.GetColorKind,
			divergence: contract.GetColorDivergence,
		}
	}
	return palette{
		severity:   contract.GetPlainLabel,
		kind:       func(k schema.ChangeKind) string { return string(k) },
		divergence: schema.GetDivergenceLabel,
	}
}

// formatValue renders one side of a change for tables and CSV.
func formatValue(v *schema.Value) string {
	if v == nil || v.IsAbsent() {
		return "-"
	}
	return v.String()
}

// getMaxTableValueWidth calculates the maximum width of the before and after
// value columns based on terminal width.
func getMaxTableValueWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 100 // Conservative default for CI and pipes
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Metric + Kind + Magnitude + Severity with borders/padding
	baseWidth := 70

	available := (termWidth - baseWidth) / 2
	if available < 10 {
		return 10
	}
	if available > 40 {
		return 40
	}
	return available
}

// truncateValue shortens a rendered value to width runes with a trailing ellipsis.
func truncateValue(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width || width <= 3 {
		return s
	}
	return string(runes[:width-3]) + "..."
}
