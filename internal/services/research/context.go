// -----------------------------------------------------------------------
// Research Context Builder - Merge intake data into one research context
// -----------------------------------------------------------------------

package research

import (
	"strings"

	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
)

// ContextBuilder merges intake assessment fields, extracted document text
// and internal notes into a single research context string. Output is
// deterministic: same record, same bytes.
type ContextBuilder struct{}

// Compile-time interface assertion
var _ interfaces.ContextBuilder = (*ContextBuilder)(nil)

// NewContextBuilder creates a new context builder
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// Build renders the research context. Sections appear in a fixed order
// and fields within a section are sorted by name; empty sections and
// empty fields are omitted entirely.
func (b *ContextBuilder) Build(record *models.CompanyRecord, documentText, internalNotes string) string {
	var sb strings.Builder

	sb.WriteString("COMPANY: ")
	sb.WriteString(record.CompanyName)
	sb.WriteString("\n")
	if record.Website != "" {
		sb.WriteString("WEBSITE: ")
		sb.WriteString(record.Website)
		sb.WriteString("\n")
	}
	if record.Email != "" {
		sb.WriteString("CONTACT: ")
		sb.WriteString(record.Email)
		sb.WriteString("\n")
	}

	for _, section := range record.Sections() {
		populated := section.Fields.Populated()
		if len(populated) == 0 {
			continue
		}
		sb.WriteString("\n## ")
		sb.WriteString(section.Label)
		sb.WriteString("\n")
		for _, field := range populated {
			sb.WriteString("- ")
			sb.WriteString(humanizeFieldName(field))
			sb.WriteString(": ")
			sb.WriteString(strings.TrimSpace(section.Fields[field]))
			sb.WriteString("\n")
		}
	}

	if text := strings.TrimSpace(documentText); text != "" {
		sb.WriteString("\n=== PITCH DECK CONTENT ===\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if notes := strings.TrimSpace(internalNotes); notes != "" {
		sb.WriteString("\n=== INTERNAL NOTES ===\n")
		sb.WriteString(notes)
		sb.WriteString("\n")
	}

	return sb.String()
}

// humanizeFieldName turns snake_case intake field names into title-ish
// labels ("pain_point" -> "Pain Point")
func humanizeFieldName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
