package outwriter

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
)

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

// htmlPage is the data passed to the report template.
type htmlPage struct {
	Title       string
	GeneratedAt string
	Reports     []*schema.Report
}

func newReportTemplate(cfg *contract.Config) (*template.Template, error) {
	fmtFloat, _ := createFormatters(cfg.Precision)
	funcs := template.FuncMap{
		"fmtFloat":   fmtFloat,
		"divergence": schema.GetDivergenceLabel,
		"label":      contract.GetPlainLabel,
		"value":      formatValue,
		"inc":        func(i int) int { return i + 1 },
		"scoreOf":    func(s schema.ScoreVector, cat schema.CategoryName) float64 { return s.Get(cat) },
		"visible": func(c schema.Change) bool {
			return c.Kind != schema.Unchanged || cfg.IncludeUnchanged
		},
	}
	return template.New("report.html.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/report.html.tmpl")
}

// writeHTMLReports renders one standalone HTML page for the given reports.
func writeHTMLReports(w io.Writer, reports []*schema.Report, cfg *contract.Config) error {
	tmpl, err := newReportTemplate(cfg)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	title := "Pawprint comparison"
	if len(reports) == 1 {
		title = fmt.Sprintf("Pawprint comparison: %s → %s", reports[0].Before.SourceID, reports[0].After.SourceID)
	} else if len(reports) > 1 {
		title = fmt.Sprintf("Pawprint batch comparison against %s", reports[0].Before.SourceID)
	}
	page := htmlPage{
		Title:       title,
		GeneratedAt: time.Now().UTC().Format(contract.DateTimeFormat),
		Reports:     reports,
	}
	return tmpl.Execute(w, page)
}
