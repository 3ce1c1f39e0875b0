package research

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianvc/signalsweep/internal/models"
)

func sampleRecord() *models.CompanyRecord {
	return &models.CompanyRecord{
		CompanyName: "Acme",
		Website:     "https://acme.io",
		Email:       "founders@acme.io",
		ProblemAnalysis: models.Attributes{
			"pain_point": "Launch costs are prohibitive",
			"urgency":    "High",
		},
		MarketAnalysis: models.Attributes{
			"market_size": "Large and growing",
		},
		ProductAnalysis: models.Attributes{},
		TeamAnalysis: models.Attributes{
			"founder_experience": "Second-time founders",
		},
		BusinessAnalysis: models.Attributes{
			"revenue_model": "",
		},
	}
}

func TestContextBuilder_Deterministic(t *testing.T) {
	builder := NewContextBuilder()
	record := sampleRecord()

	first := builder.Build(record, "deck text", "watch this one")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, builder.Build(record, "deck text", "watch this one"))
	}
}

func TestContextBuilder_SectionOrderAndContent(t *testing.T) {
	builder := NewContextBuilder()
	out := builder.Build(sampleRecord(), "", "")

	assert.Contains(t, out, "COMPANY: Acme")
	assert.Contains(t, out, "WEBSITE: https://acme.io")
	assert.Contains(t, out, "CONTACT: founders@acme.io")
	assert.Contains(t, out, "## Problem Analysis")
	assert.Contains(t, out, "- Pain Point: Launch costs are prohibitive")
	assert.Contains(t, out, "## Market Analysis")
	assert.Contains(t, out, "## Team Analysis")

	// Empty sections and empty fields are omitted
	assert.NotContains(t, out, "## Product Analysis")
	assert.NotContains(t, out, "## Business Analysis")
	assert.NotContains(t, out, "revenue_model")

	// Sections appear in canonical order
	problemIdx := strings.Index(out, "## Problem Analysis")
	marketIdx := strings.Index(out, "## Market Analysis")
	teamIdx := strings.Index(out, "## Team Analysis")
	assert.Less(t, problemIdx, marketIdx)
	assert.Less(t, marketIdx, teamIdx)
}

func TestContextBuilder_FieldsSortedWithinSection(t *testing.T) {
	builder := NewContextBuilder()
	out := builder.Build(sampleRecord(), "", "")

	// "pain_point" sorts before "urgency"
	assert.Less(t, strings.Index(out, "Pain Point"), strings.Index(out, "Urgency"))
}

func TestContextBuilder_DocumentAndNotesBlocks(t *testing.T) {
	builder := NewContextBuilder()

	out := builder.Build(sampleRecord(), "slide one content", "promising team")
	assert.Contains(t, out, "=== PITCH DECK CONTENT ===\nslide one content")
	assert.Contains(t, out, "=== INTERNAL NOTES ===\npromising team")

	// Blocks are omitted entirely when empty
	out = builder.Build(sampleRecord(), "", "  ")
	assert.NotContains(t, out, "PITCH DECK CONTENT")
	assert.NotContains(t, out, "INTERNAL NOTES")
}

func TestBuildResearchPrompt_EmbedsSchemaAndContext(t *testing.T) {
	prompt := buildResearchPrompt("Acme", "https://acme.io", "COMPANY: Acme")

	assert.Contains(t, prompt, `"Acme"`)
	assert.Contains(t, prompt, "https://acme.io")
	assert.Contains(t, prompt, "=== INTAKE CONTEXT ===")

	// Schema keys come from the brief struct's JSON tags
	for _, key := range []string{"companyName", "executiveSummary", "marketAnalysis", "swotAnalysis", "fundingRounds", "technologyStack"} {
		assert.Contains(t, prompt, key)
	}
}
