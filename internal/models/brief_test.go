package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntelligenceBrief_Normalize(t *testing.T) {
	t.Run("fills missing lists after partial decode", func(t *testing.T) {
		var brief IntelligenceBrief
		err := json.Unmarshal([]byte(`{"tagline":"AI for ports","executiveSummary":"Summary."}`), &brief)
		require.NoError(t, err)

		brief.Normalize("Harborline")

		assert.Equal(t, "Harborline", brief.CompanyName)
		assert.NotNil(t, brief.Team)
		assert.NotNil(t, brief.MarketAnalysis.KeyTrends)
		assert.NotNil(t, brief.MarketAnalysis.Competitors)
		assert.NotNil(t, brief.Financials.FundingRounds)
		assert.NotNil(t, brief.SWOTAnalysis.Strengths)
		assert.NotNil(t, brief.SWOTAnalysis.Weaknesses)
		assert.NotNil(t, brief.SWOTAnalysis.Opportunities)
		assert.NotNil(t, brief.SWOTAnalysis.Threats)
		assert.NotNil(t, brief.TechnologyStack)
		assert.NotNil(t, brief.IntellectualProperty)
	})

	t.Run("keeps decoded company name over fallback", func(t *testing.T) {
		brief := IntelligenceBrief{CompanyName: "Acme Robotics"}
		brief.Normalize("Row Value")
		assert.Equal(t, "Acme Robotics", brief.CompanyName)
	})

	t.Run("keeps populated lists untouched", func(t *testing.T) {
		brief := NewIntelligenceBrief("Acme")
		brief.Team = append(brief.Team, TeamMember{Name: "Jordan Lee", Title: "CEO"})
		brief.Normalize("Acme")
		assert.Len(t, brief.Team, 1)
	})
}

func TestIntelligenceBrief_HasIdentity(t *testing.T) {
	tests := []struct {
		name  string
		brief IntelligenceBrief
		want  bool
	}{
		{
			name: "all identity fields present",
			brief: IntelligenceBrief{
				CompanyName:      "Acme",
				Tagline:          "Robots for everyone",
				ExecutiveSummary: "Acme builds robots.",
			},
			want: true,
		},
		{
			name:  "missing tagline",
			brief: IntelligenceBrief{CompanyName: "Acme", ExecutiveSummary: "Summary."},
			want:  false,
		},
		{
			name:  "missing executive summary",
			brief: IntelligenceBrief{CompanyName: "Acme", Tagline: "Tag"},
			want:  false,
		},
		{
			name:  "empty brief",
			brief: IntelligenceBrief{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.brief.HasIdentity())
		})
	}
}

func TestNewIntelligenceBrief(t *testing.T) {
	brief := NewIntelligenceBrief("Acme")

	// JSON output must carry every list key as [] rather than null
	data, err := json.Marshal(brief)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.Contains(t, string(data), `"companyName":"Acme"`)
}
