// -----------------------------------------------------------------------
// Research Pipeline - extract -> aggregate -> synthesize -> format
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
)

// Service runs the research pipeline for companies. Stage failures
// degrade per the component contracts; the only way a company produces
// no reports at all is an invalid record.
type Service struct {
	extractor   interfaces.DocumentExtractor
	contexts    interfaces.ContextBuilder
	synthesizer interfaces.BriefSynthesizer
	formatter   interfaces.ReportFormatter
	reportTypes []models.ReportType
	concurrency int
	logger      arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.Pipeline = (*Service)(nil)

// NewService creates a pipeline service. reportTypes controls which
// variants each company gets; concurrency bounds parallel company
// processing in batches (minimum 1).
func NewService(
	extractor interfaces.DocumentExtractor,
	contexts interfaces.ContextBuilder,
	synthesizer interfaces.BriefSynthesizer,
	formatter interfaces.ReportFormatter,
	reportTypes []models.ReportType,
	concurrency int,
	logger arbor.ILogger,
) *Service {
	if len(reportTypes) == 0 {
		reportTypes = models.AllReportTypes
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		extractor:   extractor,
		contexts:    contexts,
		synthesizer: synthesizer,
		formatter:   formatter,
		reportTypes: reportTypes,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Process runs all stages for one company
func (s *Service) Process(ctx context.Context, record *models.CompanyRecord) *models.CompanyResult {
	result := &models.CompanyResult{
		CompanyName: record.CompanyName,
		Row:         record.Row,
		Reports:     make(map[models.ReportType]*models.RenderedReport),
	}

	if err := record.Validate(); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	start := time.Now()
	s.logger.Info().
		Str("company", record.CompanyName).
		Int("row", record.Row).
		Msg("Processing company")

	// Document extraction degrades to empty text on failure
	documentText := s.extractor.ExtractRef(ctx, record.DocumentRef)

	researchContext := s.contexts.Build(record, documentText, record.InternalNotes)

	// Synthesis never fails; the outcome tag records the path taken
	outcome := s.synthesizer.Synthesize(ctx, record.CompanyName, record.Website, researchContext)
	result.Outcome = outcome

	if outcome.Source == models.BriefSourceFallback {
		result.Errors = append(result.Errors, "research unavailable, reports built from fallback brief")
	}

	// Report variants are independent: one variant failing to format
	// never blocks the other
	for _, reportType := range s.reportTypes {
		rendered, err := s.formatter.Format(outcome.Brief, reportType)
		if err != nil {
			s.logger.Error().
				Str("company", record.CompanyName).
				Str("report_type", string(reportType)).
				Err(err).
				Msg("Report formatting failed")
			result.Errors = append(result.Errors, fmt.Sprintf("format %s: %v", reportType, err))
			continue
		}
		result.Reports[reportType] = rendered
	}

	s.logger.Info().
		Str("company", record.CompanyName).
		Str("brief_source", string(outcome.Source)).
		Int("reports", len(result.Reports)).
		Dur("elapsed", time.Since(start)).
		Msg("Company processed")

	return result
}

// ProcessBatch processes records independently with bounded concurrency.
// Results keep the input order regardless of completion order.
func (s *Service) ProcessBatch(ctx context.Context, records []*models.CompanyRecord) *models.BatchResult {
	batch := &models.BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	s.logger.Info().
		Str("run_id", batch.RunID).
		Int("records", len(records)).
		Int("concurrency", s.concurrency).
		Msg("Starting batch run")

	results := make([]*models.CompanyResult, len(records))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for i, record := range records {
		wg.Add(1)
		go func(i int, record *models.CompanyRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.Process(ctx, record)
		}(i, record)
	}
	wg.Wait()

	succeeded := 0
	for _, result := range results {
		batch.Results = append(batch.Results, result)
		if result.Succeeded() {
			succeeded++
			continue
		}
		message := "no reports rendered"
		if len(result.Errors) > 0 {
			message = result.Errors[0]
		}
		batch.Failures = append(batch.Failures, &models.BatchItemError{
			CompanyName: result.CompanyName,
			Row:         result.Row,
			Message:     message,
		})
	}

	s.logger.Info().
		Str("run_id", batch.RunID).
		Int("succeeded", succeeded).
		Int("failed", len(batch.Failures)).
		Dur("elapsed", time.Since(batch.StartedAt)).
		Msg("Batch run complete")

	return batch
}
