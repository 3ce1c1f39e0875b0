// -----------------------------------------------------------------------
// Collaborator Interfaces - Intake queue, artifact upload, CRM mirror
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/meridianvc/signalsweep/internal/models"
)

// IntakeSource is the spreadsheet-backed intake queue. Records are
// read-only to the pipeline; the generated marker and report links are
// written back through this interface once processing completes.
type IntakeSource interface {
	// FetchPending returns companies whose generated marker is unset
	// and whose status makes them eligible for processing, up to the
	// configured batch limit.
	FetchPending(ctx context.Context) ([]*models.CompanyRecord, error)

	// MarkProcessed sets or clears the generated marker for a row.
	MarkProcessed(ctx context.Context, row int, ok bool, message string) error

	// UpdateReportLinks writes artifact links back to a row. Empty
	// links leave the cell untouched.
	UpdateReportLinks(ctx context.Context, row int, onePagerLink, deepDiveLink string) error
}

// ArtifactUploader puts generated PDFs into cloud storage and returns a
// shareable link. Upload failure degrades to an empty link.
type ArtifactUploader interface {
	UploadPDF(ctx context.Context, filename string, content []byte) (string, error)
}

// CRMSync mirrors brief fields into an external CRM-like store. All
// financial values cross this boundary as opaque strings.
type CRMSync interface {
	SyncBrief(ctx context.Context, brief *models.IntelligenceBrief, links map[models.ReportType]string) error
}
