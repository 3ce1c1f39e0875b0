package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/models"
	"github.com/meridianvc/signalsweep/internal/services/llm"
)

// newTestSynthesizer wires a synthesizer against the given endpoint with
// test-friendly rate limiting and timeouts.
func newTestSynthesizer(endpoint, timeout string) *Synthesizer {
	cfg := common.NewDefaultConfig()
	cfg.OpenAI.Endpoint = endpoint
	cfg.OpenAI.APIKey = "test-key"
	cfg.OpenAI.Timeout = timeout
	cfg.LLM.RateLimit = "1ms"

	logger := arbor.NewLogger()
	providers := llm.NewProviderFactory(cfg, nil, logger)
	return NewSynthesizer(cfg, providers, logger)
}

// completionResponse wraps content in the chat completions envelope
func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

// validBriefJSON returns a complete brief document for the given company
func validBriefJSON(companyName string) string {
	brief := models.NewIntelligenceBrief(companyName)
	brief.Tagline = "Rockets as a service"
	brief.ExecutiveSummary = "Acme builds reusable rockets for small payloads."
	brief.FoundedYear = "2021"
	data, _ := json.Marshal(brief)
	return string(data)
}

func TestSynthesize_ValidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "model")
		assert.Contains(t, req, "messages")
		assert.Contains(t, req, "temperature")
		assert.Contains(t, req, "max_tokens")

		fmt.Fprint(w, completionResponse(validBriefJSON("Acme")))
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "10s")
	outcome := s.Synthesize(context.Background(), "Acme", "https://acme.io", "COMPANY: Acme")

	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Brief)
	assert.Equal(t, models.BriefSourceAI, outcome.Source)
	assert.Equal(t, "Acme", outcome.Brief.CompanyName)
	assert.Equal(t, "Rockets as a service", outcome.Brief.Tagline)
}

func TestSynthesize_ProseWrappedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "Sure! Here is the JSON you asked for:\n" + validBriefJSON("Acme") + "\nHope that helps!"
		fmt.Fprint(w, completionResponse(content))
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "10s")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	assert.Equal(t, models.BriefSourceAI, outcome.Source)
	assert.Equal(t, "Acme", outcome.Brief.CompanyName)
}

func TestSynthesize_MissingIdentityFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Valid JSON but no tagline or executive summary
		fmt.Fprint(w, completionResponse(`{"companyName": "Acme", "foundedYear": "2021"}`))
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "10s")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	assert.Equal(t, models.BriefSourceFallback, outcome.Source)
	assert.Equal(t, "Acme", outcome.Brief.CompanyName)
	assert.True(t, outcome.Brief.HasIdentity(), "fallback brief must be fully populated")
}

func TestSynthesize_MissingCompanyNameFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Tagline and summary present, but no companyName: the response
		// did not research this company
		fmt.Fprint(w, completionResponse(`{"tagline": "Rockets as a service", "executiveSummary": "A summary."}`))
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "10s")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	assert.Equal(t, models.BriefSourceFallback, outcome.Source)
	assert.Equal(t, "Acme", outcome.Brief.CompanyName)
}

func TestSynthesize_MalformedJSONFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionResponse(`{"companyName": "Acme", truncated`))
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "10s")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	assert.Equal(t, models.BriefSourceFallback, outcome.Source)
}

func TestSynthesize_NoJSONInResponseFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionResponse("I could not find any information about this company."))
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "10s")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	assert.Equal(t, models.BriefSourceFallback, outcome.Source)
}

func TestSynthesize_HTTPErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "10s")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	assert.Equal(t, models.BriefSourceFallback, outcome.Source)
}

func TestSynthesize_TimeoutFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		fmt.Fprint(w, completionResponse(validBriefJSON("Acme")))
	}))
	defer server.Close()

	s := newTestSynthesizer(server.URL, "100ms")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	assert.Equal(t, models.BriefSourceFallback, outcome.Source)
}

func TestSynthesize_UnreachableEndpointFallsBack(t *testing.T) {
	s := newTestSynthesizer("http://127.0.0.1:1/chat/completions", "200ms")
	outcome := s.Synthesize(context.Background(), "Acme", "", "")

	require.NotNil(t, outcome)
	assert.Equal(t, models.BriefSourceFallback, outcome.Source)
	assert.True(t, outcome.Brief.HasIdentity())
}

func TestFallbackBrief_Deterministic(t *testing.T) {
	a := fallbackBrief("Acme", "https://acme.io")
	b := fallbackBrief("Acme", "https://acme.io")

	aJSON, err := json.Marshal(a)
	require.NoError(t, err)
	bJSON, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(aJSON), string(bJSON))

	assert.True(t, a.HasIdentity())
	assert.NotEmpty(t, a.SWOTAnalysis.Strengths)
	assert.NotEmpty(t, a.MarketAnalysis.KeyTrends)
	assert.NotEmpty(t, a.Team)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "Bare object",
			text: `{"a": 1}`,
			want: `{"a": 1}`,
			ok:   true,
		},
		{
			name: "Prose wrapped",
			text: `Here you go: {"a": 1} done`,
			want: `{"a": 1}`,
			ok:   true,
		},
		{
			name: "Code fenced",
			text: "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
			ok:   true,
		},
		{
			name: "Nested braces",
			text: `{"a": {"b": 2}}`,
			want: `{"a": {"b": 2}}`,
			ok:   true,
		},
		{
			name: "No JSON",
			text: "no structured content here",
			ok:   false,
		},
		{
			name: "Reversed braces",
			text: "} mismatched {",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
