package research

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/meridianvc/signalsweep/internal/models"
)

// systemInstruction sets the analyst persona for brief synthesis
const systemInstruction = `You are a venture capital research analyst producing structured company intelligence. You are rigorous about facts: when a data point cannot be established from the provided context or public knowledge, you leave it as an empty string or empty list rather than inventing it. You respond with a single JSON object and nothing else.`

// schemaExemplar is an IntelligenceBrief whose field values describe what
// belongs in each field. Marshaling it yields the schema text embedded in
// the prompt, so the prompt can never drift from the Go struct.
func schemaExemplar() *models.IntelligenceBrief {
	return &models.IntelligenceBrief{
		CompanyName:      "official company name",
		FoundedYear:      "year founded, e.g. 2021, or empty if unknown",
		Tagline:          "one-line description of what the company does",
		ExecutiveSummary: "2-3 paragraph summary covering product, market and traction",
		ProblemStatement: "the problem the company addresses",
		Solution:         "how the product solves the problem",
		BusinessModel:    "how the company makes money",
		ProductOverview:  "description of the product and key features",
		MarketAnalysis: models.MarketAnalysisBrief{
			SizeTAM:        "total addressable market, e.g. $150B, or empty",
			SizeSAM:        "serviceable addressable market, or empty",
			SizeSOM:        "serviceable obtainable market, or empty",
			KeyTrends:      []string{"market trend relevant to the company"},
			TargetCustomer: "who buys the product",
			Competitors: []models.Competitor{
				{Name: "competitor name", Description: "how they compete"},
			},
		},
		Team: []models.TeamMember{
			{Name: "person name", Title: "role", Background: "relevant experience"},
		},
		Financials: models.Financials{
			TotalFunding: "total raised to date, e.g. $12M, or empty",
			LastRound:    "most recent round type, e.g. Series A, or empty",
			Revenue:      "known revenue figure or range, or empty",
			Valuation:    "last known valuation, or empty",
			FundingRounds: []models.FundingRound{
				{Type: "round type", Amount: "amount raised", Date: "round date", LeadInvestor: "lead investor"},
			},
		},
		SWOTAnalysis: models.SWOTAnalysis{
			Strengths:     []string{"a strength"},
			Weaknesses:    []string{"a weakness"},
			Opportunities: []string{"an opportunity"},
			Threats:       []string{"a threat"},
		},
		TechnologyStack:      []string{"technology the company is known to use"},
		IntellectualProperty: []string{"patent, trademark or proprietary asset"},
	}
}

var (
	schemaOnce sync.Once
	schemaJSON string
)

// briefSchemaJSON returns the indented JSON rendering of the schema
// exemplar, computed once.
func briefSchemaJSON() string {
	schemaOnce.Do(func() {
		data, err := json.MarshalIndent(schemaExemplar(), "", "  ")
		if err != nil {
			// The exemplar contains no unmarshalable types; this cannot
			// happen at runtime
			panic(fmt.Sprintf("failed to marshal brief schema exemplar: %v", err))
		}
		schemaJSON = string(data)
	})
	return schemaJSON
}

// buildResearchPrompt produces the user prompt for one company
func buildResearchPrompt(companyName, companyURL, researchContext string) string {
	prompt := fmt.Sprintf(`Research the company %q`, companyName)
	if companyURL != "" {
		prompt += fmt.Sprintf(" (website: %s)", companyURL)
	}
	prompt += ` and produce a company intelligence brief.

Use the intake context below as primary source material, supplemented by public knowledge about the company. Where the context and public knowledge conflict, prefer the context.

`
	if researchContext != "" {
		prompt += "=== INTAKE CONTEXT ===\n" + researchContext + "\n"
	}

	prompt += `Respond with exactly one JSON object matching this structure. Every key must be present. Field values below describe the expected content:

` + briefSchemaJSON() + `

Return only the JSON object, with no surrounding prose or code fences.`

	return prompt
}
