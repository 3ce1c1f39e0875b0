package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/meridianvc/signalsweep/internal/interfaces"
)

// ReportStorage implements the ReportStorage interface for Badger
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ReportStorage = (*ReportStorage)(nil)

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) *ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport persists one rendered report and its PDF bytes
func (s *ReportStorage) SaveReport(ctx context.Context, report *interfaces.StoredReport) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Debug().
		Str("id", report.ID).
		Str("company", report.CompanyName).
		Str("report_type", string(report.Type)).
		Int("pdf_size", len(report.PDF)).
		Msg("Report persisted")

	return nil
}

// GetReport retrieves one stored report by ID
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*interfaces.StoredReport, error) {
	var report interfaces.StoredReport
	if err := s.db.Store().Get(id, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("report not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// ListReportsByRun returns all reports generated in one batch run
func (s *ReportStorage) ListReportsByRun(ctx context.Context, runID string) ([]*interfaces.StoredReport, error) {
	var reports []interfaces.StoredReport
	err := s.db.Store().Find(&reports, badgerhold.Where("RunID").Eq(runID).SortBy("CreatedAt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for run %s: %w", runID, err)
	}

	result := make([]*interfaces.StoredReport, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}
