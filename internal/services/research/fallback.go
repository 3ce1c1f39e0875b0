package research

import (
	"fmt"

	"github.com/meridianvc/signalsweep/internal/models"
)

// fallbackBrief builds the deterministic synthetic brief used when
// external research is unavailable. Every field is populated so the
// report templates render a complete document; the content is clearly
// placeholder material derived only from the company name. Same inputs
// produce byte-identical briefs.
func fallbackBrief(companyName, companyURL string) *models.IntelligenceBrief {
	brief := models.NewIntelligenceBrief(companyName)

	brief.FoundedYear = "N/A"
	brief.Tagline = fmt.Sprintf("%s - emerging company pending full analysis", companyName)
	brief.ExecutiveSummary = fmt.Sprintf(
		"%s is an early-stage company currently under review. Automated research "+
			"was unavailable for this run, so this brief contains placeholder analysis "+
			"generated from intake data only. A full research pass should be re-run "+
			"before this report is circulated.", companyName)
	brief.ProblemStatement = fmt.Sprintf(
		"The specific problem %s addresses has not yet been confirmed through research.", companyName)
	brief.Solution = fmt.Sprintf(
		"%s's solution approach is pending verification against public sources.", companyName)
	brief.BusinessModel = "Business model not yet verified. Review intake materials for preliminary signals."
	brief.ProductOverview = fmt.Sprintf(
		"Product details for %s were not available from automated research.", companyName)

	brief.MarketAnalysis = models.MarketAnalysisBrief{
		SizeTAM:        "Not assessed",
		SizeSAM:        "Not assessed",
		SizeSOM:        "Not assessed",
		KeyTrends:      []string{"Market trend analysis pending manual research"},
		TargetCustomer: "Target customer profile pending verification",
		Competitors: []models.Competitor{
			{Name: "Not identified", Description: "Competitive landscape requires manual research"},
		},
	}

	brief.Team = []models.TeamMember{
		{Name: "Not identified", Title: "Founding team", Background: "Team background requires manual research"},
	}

	brief.Financials = models.Financials{
		TotalFunding:  "Unknown",
		LastRound:     "Unknown",
		Revenue:       "Unknown",
		Valuation:     "Unknown",
		FundingRounds: []models.FundingRound{},
	}

	brief.SWOTAnalysis = models.SWOTAnalysis{
		Strengths:     []string{"Passed initial intake screening"},
		Weaknesses:    []string{"Insufficient verified data for assessment"},
		Opportunities: []string{"Full research pass may surface differentiated positioning"},
		Threats:       []string{"Assessment confidence is low until research completes"},
	}

	brief.TechnologyStack = []string{}
	brief.IntellectualProperty = []string{}

	if companyURL != "" {
		brief.ProductOverview += fmt.Sprintf(" See %s for first-party materials.", companyURL)
	}

	return brief
}
