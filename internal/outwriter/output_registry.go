package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
)

// WriteRegistryDefinitions displays every category, its thresholds and its metrics.
// This is a static display that does not require any fingerprint.
func WriteRegistryDefinitions(w io.Writer, reg *schema.Registry, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, reg)
	case schema.CSVOut:
		header := []string{"category", "weight", "low", "medium", "high", "critical", "metric", "kind", "ref_min", "ref_max", "ref_count", "security_relevant"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, c := range reg.Categories {
				for _, m := range c.Metrics {
					row := []string{
						string(c.Name),
						fmtFloat(c.Weight),
						fmtFloat(c.Thresholds.Low),
						fmtFloat(c.Thresholds.Medium),
						fmtFloat(c.Thresholds.High),
						fmtFloat(c.Thresholds.Critical),
						m.Name,
						string(m.Kind),
						fmtFloat(m.RefMin),
						fmtFloat(m.RefMax),
						fmtFloat(m.RefCount),
						strconv.FormatBool(m.SecurityRelevant),
					}
					if err := cw.Write(row); err != nil {
						return err
					}
				}
			}
			return nil
		})
	case schema.TextOut:
		return writeRegistryText(w, reg, fmtFloat)
	default:
		return unsupported(cfg.Output, "the registry")
	}
}

func writeRegistryText(w io.Writer, reg *schema.Registry, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "🐾 Pawprint Registry (version %s)\n", reg.Version); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "================================\n\n"); err != nil {
		return err
	}

	for _, c := range reg.Categories {
		if _, err := fmt.Fprintf(w, "%s (weight %s)\n", c.Name, fmtFloat(c.Weight)); err != nil {
			return err
		}
		t := c.Thresholds
		if _, err := fmt.Fprintf(w, "   Thresholds: low ≤ %s, medium ≤ %s, high ≤ %s, critical ≤ %s\n",
			fmtFloat(t.Low), fmtFloat(t.Medium), fmtFloat(t.High), fmtFloat(t.Critical)); err != nil {
			return err
		}
		for _, m := range c.Metrics {
			detail := string(m.Kind)
			switch m.Kind {
			case schema.NumericKind:
				detail += fmt.Sprintf(", range %s..%s", fmtFloat(m.RefMin), fmtFloat(m.RefMax))
			case schema.SequenceKind:
				detail += fmt.Sprintf(", reference count %s", fmtFloat(m.RefCount))
			}
			if m.SecurityRelevant {
				detail += ", security relevant"
			}
			line := fmt.Sprintf("   - %s: %s", m.Name, detail)
			if m.Description != "" {
				line += " (" + m.Description + ")"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
