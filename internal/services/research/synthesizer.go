// -----------------------------------------------------------------------
// Brief Synthesizer - Resolve research context into intelligence briefs
// -----------------------------------------------------------------------

package research

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
	"github.com/meridianvc/signalsweep/internal/services/llm"
)

// Synthesizer resolves research contexts into intelligence briefs via the
// configured AI provider. Synthesize never fails: timeouts, transport
// errors, malformed responses and incomplete briefs all degrade to the
// synthetic fallback brief, and the outcome's Source tag records which
// path produced it.
type Synthesizer struct {
	providers *llm.ProviderFactory
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.BriefSynthesizer = (*Synthesizer)(nil)

// NewSynthesizer creates a brief synthesizer. The rate limiter spaces
// research requests so batch runs stay inside provider quotas.
func NewSynthesizer(cfg *common.Config, providers *llm.ProviderFactory, logger arbor.ILogger) *Synthesizer {
	spacing := common.ParseDurationOr(cfg.LLM.RateLimit, 4*time.Second)
	timeout := common.ParseDurationOr(cfg.OpenAI.Timeout, 3*time.Minute)

	return &Synthesizer{
		providers: providers,
		limiter:   rate.NewLimiter(rate.Every(spacing), 1),
		timeout:   timeout,
		logger:    logger,
	}
}

// Synthesize produces a brief for one company. The returned outcome
// always carries a structurally valid, fully populated brief.
func (s *Synthesizer) Synthesize(ctx context.Context, companyName, companyURL, researchContext string) *models.BriefOutcome {
	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Warn().
			Str("company", companyName).
			Err(err).
			Msg("Rate limiter wait aborted, using fallback brief")
		return s.fallbackOutcome(companyName, companyURL)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	response, err := s.providers.GenerateContent(timeoutCtx, &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: buildResearchPrompt(companyName, companyURL, researchContext)},
		},
		SystemInstruction: systemInstruction,
	})
	if err != nil {
		s.logger.Warn().
			Str("company", companyName).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("Research request failed, using fallback brief")
		return s.fallbackOutcome(companyName, companyURL)
	}

	brief, ok := s.decodeBrief(companyName, response.Text)
	if !ok {
		return s.fallbackOutcome(companyName, companyURL)
	}

	s.logger.Info().
		Str("company", companyName).
		Str("model", response.Model).
		Dur("elapsed", time.Since(start)).
		Msg("Brief synthesized from research provider")

	return &models.BriefOutcome{
		Brief:  brief,
		Source: models.BriefSourceAI,
		Model:  response.Model,
	}
}

// decodeBrief extracts and validates the JSON brief from a provider
// response. Returns false when the response cannot yield a usable brief.
func (s *Synthesizer) decodeBrief(companyName, text string) (*models.IntelligenceBrief, bool) {
	jsonText, ok := extractJSON(text)
	if !ok {
		s.logger.Warn().
			Str("company", companyName).
			Int("response_length", len(text)).
			Msg("Provider response contained no JSON object, using fallback brief")
		return nil, false
	}

	var brief models.IntelligenceBrief
	if err := json.Unmarshal([]byte(jsonText), &brief); err != nil {
		s.logger.Warn().
			Str("company", companyName).
			Err(err).
			Msg("Provider response JSON failed to decode, using fallback brief")
		return nil, false
	}

	// Identity is checked on the decoded payload, before Normalize fills
	// in the company name; a response that omitted companyName did not
	// research this company
	if !brief.HasIdentity() {
		s.logger.Warn().
			Str("company", companyName).
			Bool("has_name", brief.CompanyName != "").
			Bool("has_tagline", brief.Tagline != "").
			Bool("has_summary", brief.ExecutiveSummary != "").
			Msg("Decoded brief is missing identity fields, using fallback brief")
		return nil, false
	}

	brief.Normalize(companyName)

	return &brief, true
}

func (s *Synthesizer) fallbackOutcome(companyName, companyURL string) *models.BriefOutcome {
	return &models.BriefOutcome{
		Brief:  fallbackBrief(companyName, companyURL),
		Source: models.BriefSourceFallback,
	}
}

// extractJSON pulls the outermost JSON object out of a response that may
// wrap it in prose or code fences. It takes the substring from the first
// '{' to the last '}' inclusive; anything before or after is discarded.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
