package interfaces

import (
	"context"
	"time"

	"github.com/meridianvc/signalsweep/internal/models"
)

// StoredBrief is one persisted synthesis outcome, keyed by company and run.
type StoredBrief struct {
	ID          string                    `json:"id"`
	RunID       string                    `json:"run_id"`
	CompanyName string                    `json:"company_name"`
	Source      models.BriefSource        `json:"source"`
	Brief       *models.IntelligenceBrief `json:"brief"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// StoredReport is one persisted rendered report plus its PDF artifact.
type StoredReport struct {
	ID          string            `json:"id"`
	RunID       string            `json:"run_id"`
	CompanyName string            `json:"company_name"`
	Type        models.ReportType `json:"report_type"`
	Markdown    string            `json:"markdown"`
	PDF         []byte            `json:"pdf,omitempty"`
	DriveLink   string            `json:"drive_link,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// BriefStorage persists synthesis outcomes for audit and CRM replay.
// The pipeline itself never reads these back; persistence belongs to
// the processor around it.
type BriefStorage interface {
	SaveBrief(ctx context.Context, brief *StoredBrief) error
	GetBrief(ctx context.Context, id string) (*StoredBrief, error)
	ListBriefsByCompany(ctx context.Context, companyName string) ([]*StoredBrief, error)
}

// ReportStorage persists rendered reports and their artifacts.
type ReportStorage interface {
	SaveReport(ctx context.Context, report *StoredReport) error
	GetReport(ctx context.Context, id string) (*StoredReport, error)
	ListReportsByRun(ctx context.Context, runID string) ([]*StoredReport, error)
}
