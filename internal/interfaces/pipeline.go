// -----------------------------------------------------------------------
// Pipeline Interfaces - Stage contracts for the report synthesis pipeline
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"

	"github.com/meridianvc/signalsweep/internal/models"
)

// ErrInvalidReportType is returned by ReportFormatter.Format when asked
// for a variant it has no template for. This is a programmer error, not
// a data error, and is never retried.
var ErrInvalidReportType = errors.New("invalid report type")

// DocumentExtractor pulls plain text out of a source document (PDF or
// plain text). Extraction is tolerant: unreadable pages are skipped and
// a wholly unreadable document degrades to empty text.
type DocumentExtractor interface {
	// ExtractBytes extracts text from in-memory document content.
	// The filename hint drives PDF/plain-text detection alongside
	// content sniffing.
	ExtractBytes(ctx context.Context, content []byte, filename string) (string, error)

	// ExtractFile extracts text from a local file path.
	ExtractFile(ctx context.Context, path string) (string, error)

	// ExtractRef resolves a document reference (URL or local path) and
	// extracts its text. Fetch or extraction failure degrades to empty
	// text with a diagnostic log; this method never returns an error to
	// the pipeline.
	ExtractRef(ctx context.Context, ref string) string
}

// ContextBuilder merges intake fields, extracted document text and
// internal notes into one deterministic research context string.
type ContextBuilder interface {
	Build(record *models.CompanyRecord, documentText, internalNotes string) string
}

// BriefSynthesizer resolves a research context into a validated
// intelligence brief. It never fails: every failure mode degrades to
// the synthetic fallback brief, tagged on the outcome.
type BriefSynthesizer interface {
	Synthesize(ctx context.Context, companyName, companyURL, researchContext string) *models.BriefOutcome
}

// ReportFormatter deterministically renders a brief into one of the two
// fixed Markdown variants. The only error it may return is an invalid
// report type, which is a programmer error and is not retried.
type ReportFormatter interface {
	Format(brief *models.IntelligenceBrief, reportType models.ReportType) (*models.RenderedReport, error)
}

// PDFRenderer converts rendered Markdown to PDF bytes. The pipeline has
// no expectations on the bytes beyond "non-empty on success".
type PDFRenderer interface {
	RenderPDF(markdown, title string) ([]byte, error)
}

// Pipeline sequences extract -> aggregate -> synthesize -> format for a
// single company and for a batch, isolating per-company failures.
type Pipeline interface {
	// Process runs all stages for one company. An invalid record short
	// circuits before any stage runs and is reported in the result's
	// error list; stage failures degrade per the component contracts.
	Process(ctx context.Context, record *models.CompanyRecord) *models.CompanyResult

	// ProcessBatch processes records independently. One record's
	// failure never stops the others.
	ProcessBatch(ctx context.Context, records []*models.CompanyRecord) *models.BatchResult
}
