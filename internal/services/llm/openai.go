package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/interfaces"
)

// openAIClient talks to any endpoint speaking the OpenAI chat completions
// wire format. The research workflow calls this with the full company
// context and expects a single assistant message back.
type openAIClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	config     *common.OpenAIConfig
	logger     arbor.ILogger
}

// chatCompletionRequest is the request body for /chat/completions
type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []interfaces.Message `json:"messages"`
	Temperature float32              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

// chatCompletionResponse is the response body from /chat/completions
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func newOpenAIClient(config *common.OpenAIConfig, apiKey string, logger arbor.ILogger) *openAIClient {
	timeout := common.ParseDurationOr(config.Timeout, 3*time.Minute)
	return &openAIClient{
		endpoint: config.Endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config: config,
		logger: logger,
	}
}

// ChatCompletion sends the conversation to the endpoint and returns the
// first choice's message content. Rate limit responses are retried with
// backoff; other HTTP failures surface immediately.
func (c *openAIClient) ChatCompletion(ctx context.Context, request *ContentRequest, model string) (string, error) {
	messages := request.Messages
	if request.SystemInstruction != "" {
		messages = append([]interfaces.Message{
			{Role: "system", Content: request.SystemInstruction},
		}, messages...)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	temperature := request.Temperature
	if temperature <= 0 {
		temperature = c.config.Temperature
	}
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat completion request: %w", err)
	}

	retryConfig := NewDefaultRetryConfig()
	var lastErr error

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		text, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !retryable || attempt == retryConfig.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(err) {
			backoff = retryConfig.CalculateBackoff(attempt, 0)
		}

		c.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying chat completion request")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("chat completion failed: %w", lastErr)
}

// doRequest performs one HTTP round trip. The second return value reports
// whether the failure is worth retrying (429 and 5xx are, 4xx is not).
func (c *openAIClient) doRequest(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are transient
		return "", true, fmt.Errorf("request to research endpoint failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", true, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("research endpoint returned 429: %s", truncateForLog(respBody))
	}
	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("research endpoint returned %d: %s", resp.StatusCode, truncateForLog(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("research endpoint returned %d: %s", resp.StatusCode, truncateForLog(respBody))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode chat completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("research endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("chat completion response contained no choices")
	}

	content := parsed.Choices[0].Message.Content
	if content == "" {
		return "", false, fmt.Errorf("chat completion response contained empty content")
	}

	return content, false, nil
}

func truncateForLog(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
