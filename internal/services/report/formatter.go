// Package report renders intelligence briefs into Markdown report
// variants. Templates are embedded with user override support:
// 1. User override: templatesDir/{type}.md
// 2. Embedded default: internal/services/report/templates/{type}.md
package report

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
)

//go:embed templates/*.md
var templateFS embed.FS

// Formatter deterministically renders a brief into one of the fixed
// Markdown report variants. Rendering is pure: same brief and clock,
// same bytes. The only error it returns is an unknown report type.
type Formatter struct {
	templates map[models.ReportType]*template.Template
	logger    arbor.ILogger

	// now is swappable for deterministic tests
	now func() time.Time
}

// Compile-time interface assertion
var _ interfaces.ReportFormatter = (*Formatter)(nil)

// templateData is the context handed to report templates
type templateData struct {
	Brief         *models.IntelligenceBrief
	GeneratedDate string
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
}

// NewFormatter creates a report formatter. templatesDir may be empty; a
// non-empty dir lets operators override the embedded report templates.
func NewFormatter(templatesDir string, logger arbor.ILogger) (*Formatter, error) {
	f := &Formatter{
		templates: make(map[models.ReportType]*template.Template),
		logger:    logger,
		now:       time.Now,
	}

	for _, reportType := range models.AllReportTypes {
		tmpl, err := loadTemplate(reportType, templatesDir)
		if err != nil {
			return nil, err
		}
		f.templates[reportType] = tmpl
	}

	return f, nil
}

// loadTemplate resolves a report template, user override first
func loadTemplate(reportType models.ReportType, templatesDir string) (*template.Template, error) {
	name := string(reportType) + ".md"

	var data []byte
	if templatesDir != "" {
		if override, err := os.ReadFile(filepath.Join(templatesDir, name)); err == nil {
			data = override
		}
	}
	if data == nil {
		embedded, err := templateFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("report template '%s' not found (checked user override and embedded): %w", name, err)
		}
		data = embedded
	}

	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template '%s': %w", name, err)
	}
	return tmpl, nil
}

// Format renders the brief into the requested variant. An unknown report
// type is a programmer error and the only failure mode; here a degraded
// placeholder would hide the bug rather than surface it.
func (f *Formatter) Format(brief *models.IntelligenceBrief, reportType models.ReportType) (*models.RenderedReport, error) {
	tmpl, ok := f.templates[reportType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrInvalidReportType, reportType)
	}

	generatedAt := f.now()
	var sb strings.Builder
	err := tmpl.Execute(&sb, templateData{
		Brief:         brief,
		GeneratedDate: generatedAt.Format("January 2, 2006"),
	})
	if err != nil {
		// Template execution over a complete data struct cannot fail with
		// the embedded templates; an override template with a bad field
		// reference can
		return nil, fmt.Errorf("failed to render %s report: %w", reportType, err)
	}

	f.logger.Debug().
		Str("company", brief.CompanyName).
		Str("report_type", string(reportType)).
		Int("markdown_length", sb.Len()).
		Msg("Rendered report markdown")

	return &models.RenderedReport{
		CompanyName: brief.CompanyName,
		Type:        reportType,
		Markdown:    sb.String(),
		GeneratedAt: generatedAt,
	}, nil
}
