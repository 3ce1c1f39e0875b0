package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
)

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	f, err := NewFormatter("", arbor.NewLogger())
	require.NoError(t, err)
	f.now = func() time.Time {
		return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	}
	return f
}

func fullBrief() *models.IntelligenceBrief {
	brief := models.NewIntelligenceBrief("Acme")
	brief.FoundedYear = "2021"
	brief.Tagline = "Rockets as a service"
	brief.ExecutiveSummary = "Acme builds reusable rockets for small payloads."
	brief.ProblemStatement = "Launch costs lock small payloads out of orbit."
	brief.Solution = "Low-cost reusable launch vehicles."
	brief.BusinessModel = "Per-launch pricing with rideshare slots."
	brief.ProductOverview = "A two-stage reusable rocket with rapid turnaround."
	brief.MarketAnalysis = models.MarketAnalysisBrief{
		SizeTAM:        "$150B",
		SizeSAM:        "$20B",
		SizeSOM:        "$1B",
		KeyTrends:      []string{"Smallsat constellations growing"},
		TargetCustomer: "Smallsat operators",
		Competitors:    []models.Competitor{{Name: "RocketCo", Description: "Incumbent heavy launch"}},
	}
	brief.Team = []models.TeamMember{{Name: "Jo Chen", Title: "CEO", Background: "Ex-aerospace lead"}}
	brief.Financials = models.Financials{
		TotalFunding: "$12M",
		LastRound:    "Series A",
		Revenue:      "$2M ARR",
		Valuation:    "$80M",
		FundingRounds: []models.FundingRound{
			{Type: "Seed", Amount: "$2M", Date: "2022-01", LeadInvestor: "First Capital"},
		},
	}
	brief.SWOTAnalysis = models.SWOTAnalysis{
		Strengths:     []string{"Experienced team"},
		Weaknesses:    []string{"Capital intensive"},
		Opportunities: []string{"Constellation replenishment demand"},
		Threats:       []string{"Incumbent price cuts"},
	}
	brief.TechnologyStack = []string{"Go", "Rust"}
	brief.IntellectualProperty = []string{"Engine nozzle patent"}
	return brief
}

func TestFormat_Deterministic(t *testing.T) {
	f := newTestFormatter(t)
	brief := fullBrief()

	first, err := f.Format(brief, models.ReportTypeOnePager)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := f.Format(brief, models.ReportTypeOnePager)
		require.NoError(t, err)
		assert.Equal(t, first.Markdown, again.Markdown)
	}
}

func TestFormat_VariantsDiffer(t *testing.T) {
	f := newTestFormatter(t)
	brief := fullBrief()

	onePager, err := f.Format(brief, models.ReportTypeOnePager)
	require.NoError(t, err)
	deepDive, err := f.Format(brief, models.ReportTypeDeepDive)
	require.NoError(t, err)

	assert.NotEqual(t, onePager.Markdown, deepDive.Markdown)

	// Both variants open with the company and carry the generated date
	assert.Contains(t, onePager.Markdown, "# Acme")
	assert.Contains(t, onePager.Markdown, "March 14, 2026")
	assert.Contains(t, deepDive.Markdown, "March 14, 2026")

	// Deep dive carries sections the one pager omits
	assert.Contains(t, deepDive.Markdown, "## SWOT Analysis")
	assert.Contains(t, deepDive.Markdown, "### Funding History")
	assert.Contains(t, deepDive.Markdown, "Engine nozzle patent")
	assert.NotContains(t, onePager.Markdown, "## SWOT Analysis")
}

func TestFormat_EmptyBriefRenders(t *testing.T) {
	f := newTestFormatter(t)

	// A brief with only the structural defaults must still render
	brief := models.NewIntelligenceBrief("Quiet Startup")

	for _, reportType := range models.AllReportTypes {
		rendered, err := f.Format(brief, reportType)
		require.NoError(t, err, "report type %s", reportType)
		assert.Contains(t, rendered.Markdown, "Quiet Startup")
		assert.NotEmpty(t, rendered.Markdown)
	}
}

func TestFormat_InvalidReportType(t *testing.T) {
	f := newTestFormatter(t)

	_, err := f.Format(fullBrief(), models.ReportType("executive_memo"))
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrInvalidReportType)
	assert.Contains(t, err.Error(), "executive_memo")
}

func TestFormat_ReportMetadata(t *testing.T) {
	f := newTestFormatter(t)

	rendered, err := f.Format(fullBrief(), models.ReportTypeDeepDive)
	require.NoError(t, err)

	assert.Equal(t, "Acme", rendered.CompanyName)
	assert.Equal(t, models.ReportTypeDeepDive, rendered.Type)
	assert.Equal(t, "Acme_deep_dive.pdf", rendered.Filename())
	assert.False(t, rendered.GeneratedAt.IsZero())
}
