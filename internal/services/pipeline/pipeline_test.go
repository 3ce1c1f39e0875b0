package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/models"
	"github.com/meridianvc/signalsweep/internal/services/extract"
	"github.com/meridianvc/signalsweep/internal/services/llm"
	"github.com/meridianvc/signalsweep/internal/services/report"
	"github.com/meridianvc/signalsweep/internal/services/research"
)

// newTestPipeline wires real pipeline components against the given
// research endpoint.
func newTestPipeline(t *testing.T, endpoint string) *Service {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.OpenAI.Endpoint = endpoint
	cfg.OpenAI.APIKey = "test-key"
	cfg.OpenAI.Timeout = "200ms"
	cfg.LLM.RateLimit = "1ms"

	logger := arbor.NewLogger()
	providers := llm.NewProviderFactory(cfg, nil, logger)
	formatter, err := report.NewFormatter("", logger)
	require.NoError(t, err)

	return NewService(
		extract.NewExtractor(logger),
		research.NewContextBuilder(),
		research.NewSynthesizer(cfg, providers, logger),
		formatter,
		models.AllReportTypes,
		2,
		logger,
	)
}

// researchServer returns a complete brief for whatever company the
// request names (it always answers with the fixed company given).
func researchServer(t *testing.T, companyName string) *httptest.Server {
	t.Helper()
	brief := models.NewIntelligenceBrief(companyName)
	brief.Tagline = "Test tagline"
	brief.ExecutiveSummary = "Test summary."
	briefJSON, err := json.Marshal(brief)
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": string(briefJSON)}},
			},
		})
		w.Write(body)
	}))
}

func TestProcess_HappyPath(t *testing.T) {
	server := researchServer(t, "Acme")
	defer server.Close()

	p := newTestPipeline(t, server.URL)
	result := p.Process(context.Background(), &models.CompanyRecord{
		CompanyName: "Acme",
		Website:     "https://acme.io",
	})

	require.NotNil(t, result.Outcome)
	assert.Equal(t, models.BriefSourceAI, result.Outcome.Source)
	assert.True(t, result.Succeeded())
	assert.Len(t, result.Reports, 2)
	assert.Empty(t, result.Errors)

	for _, reportType := range models.AllReportTypes {
		rendered := result.Reports[reportType]
		require.NotNil(t, rendered, "missing %s report", reportType)
		assert.Contains(t, rendered.Markdown, "Acme")
	}
}

func TestProcess_ResearchUnavailableStillRendersReports(t *testing.T) {
	// Unreachable endpoint forces the fallback path end to end
	p := newTestPipeline(t, "http://127.0.0.1:1/chat/completions")

	result := p.Process(context.Background(), &models.CompanyRecord{
		CompanyName: "Acme",
		Website:     "https://acme.io",
		DocumentRef: "/nonexistent/deck.pdf",
	})

	require.NotNil(t, result.Outcome)
	assert.Equal(t, models.BriefSourceFallback, result.Outcome.Source)

	// Both reports still render and carry the company name
	assert.True(t, result.Succeeded())
	require.Len(t, result.Reports, 2)
	assert.Contains(t, result.Reports[models.ReportTypeOnePager].Markdown, "Acme")
	assert.Contains(t, result.Reports[models.ReportTypeDeepDive].Markdown, "Acme")

	// The degraded path is visible in the result
	assert.NotEmpty(t, result.Errors)
}

func TestProcess_InvalidRecordShortCircuits(t *testing.T) {
	server := researchServer(t, "Acme")
	defer server.Close()

	p := newTestPipeline(t, server.URL)
	result := p.Process(context.Background(), &models.CompanyRecord{Website: "https://nameless.io"})

	assert.False(t, result.Succeeded())
	assert.Nil(t, result.Outcome)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "company_name")
}

func TestProcessBatch_FailureIsolation(t *testing.T) {
	server := researchServer(t, "Acme")
	defer server.Close()

	p := newTestPipeline(t, server.URL)
	records := []*models.CompanyRecord{
		{CompanyName: "Alpha", Row: 2},
		{Row: 3}, // missing company_name
		{CompanyName: "Gamma", Row: 4},
	}

	batch := p.ProcessBatch(context.Background(), records)

	assert.NotEmpty(t, batch.RunID)
	require.Len(t, batch.Results, 3)

	// Results keep input order
	assert.Equal(t, "Alpha", batch.Results[0].CompanyName)
	assert.Equal(t, "", batch.Results[1].CompanyName)
	assert.Equal(t, "Gamma", batch.Results[2].CompanyName)

	// The invalid record is the only failure and did not stop the others
	assert.True(t, batch.Results[0].Succeeded())
	assert.False(t, batch.Results[1].Succeeded())
	assert.True(t, batch.Results[2].Succeeded())
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, 3, batch.Failures[0].Row)
}

func TestProcessBatch_Empty(t *testing.T) {
	p := newTestPipeline(t, "http://127.0.0.1:1")
	batch := p.ProcessBatch(context.Background(), nil)

	assert.NotEmpty(t, batch.RunID)
	assert.Empty(t, batch.Results)
	assert.Empty(t, batch.Failures)
}

func TestProcess_DocumentContextFlowsToResearch(t *testing.T) {
	var sawDeckContent bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, m := range req.Messages {
			if strings.Contains(m.Content, "unique deck sentence") {
				sawDeckContent = true
			}
		}

		brief := models.NewIntelligenceBrief("Acme")
		brief.Tagline = "t"
		brief.ExecutiveSummary = "s"
		briefJSON, _ := json.Marshal(brief)
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(briefJSON)}},
			},
		})
		w.Write(body)
	}))
	defer server.Close()

	deckServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "This slide holds a unique deck sentence about the product.")
	}))
	defer deckServer.Close()

	p := newTestPipeline(t, server.URL)
	result := p.Process(context.Background(), &models.CompanyRecord{
		CompanyName: "Acme",
		DocumentRef: deckServer.URL + "/deck.txt",
	})

	assert.True(t, result.Succeeded())
	assert.True(t, sawDeckContent, "extracted document text should reach the research prompt")
}
