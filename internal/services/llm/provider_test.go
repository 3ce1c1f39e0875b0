package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/interfaces"
)

func testFactory(endpoint string) *ProviderFactory {
	cfg := common.NewDefaultConfig()
	cfg.OpenAI.Endpoint = endpoint
	cfg.OpenAI.APIKey = "test-key"
	return NewProviderFactory(cfg, nil, arbor.NewLogger())
}

func TestGetOpenAIClient_Concurrent(t *testing.T) {
	factory := testFactory("http://127.0.0.1:1/chat/completions")

	const goroutines = 8
	clients := make([]*openAIClient, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			clients[idx], errs[idx] = factory.GetOpenAIClient(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, clients[i])
		// Every caller must see the same lazily created client
		assert.Same(t, clients[0], clients[i])
	}
}

func TestGenerateContent_ConcurrentBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`)
	}))
	defer server.Close()

	factory := testFactory(server.URL)

	const goroutines = 6
	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp, err := factory.GenerateContent(context.Background(), &ContentRequest{
				Messages: []interfaces.Message{{Role: "user", Content: "research Acme"}},
				Model:    "sonar-pro",
			})
			if err == nil && resp.Text != "ok" {
				err = fmt.Errorf("unexpected response text %q", resp.Text)
			}
			errs[idx] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d", i)
	}
}

func TestDetectProvider(t *testing.T) {
	factory := testFactory("http://example.invalid")

	tests := []struct {
		model string
		want  ProviderType
	}{
		{"", ProviderOpenAI},
		{"sonar-pro", ProviderOpenAI},
		{"openai/gpt-4o", ProviderOpenAI},
		{"claude-haiku-3-5-20241022", ProviderClaude},
		{"anthropic/claude-sonnet-4", ProviderClaude},
		{"gemini-3-flash-preview", ProviderGemini},
		{"google/gemini-pro", ProviderGemini},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, factory.DetectProvider(tt.model), "model %q", tt.model)
	}
}

func TestNormalizeModel(t *testing.T) {
	factory := testFactory("http://example.invalid")

	assert.Equal(t, "gpt-4o", factory.NormalizeModel("openai/gpt-4o"))
	assert.Equal(t, "claude-sonnet-4", factory.NormalizeModel("claude/claude-sonnet-4"))
	assert.Equal(t, "sonar-pro", factory.NormalizeModel("sonar-pro"))
}
