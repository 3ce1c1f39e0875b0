package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/meridianvc/signalsweep/internal/interfaces"
)

// BriefStorage implements the BriefStorage interface for Badger. Every
// synthesis outcome is kept, fallback briefs included, so a research run
// can be audited after its reports have shipped.
type BriefStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.BriefStorage = (*BriefStorage)(nil)

// NewBriefStorage creates a new BriefStorage instance
func NewBriefStorage(db *BadgerDB, logger arbor.ILogger) *BriefStorage {
	return &BriefStorage{
		db:     db,
		logger: logger,
	}
}

// SaveBrief persists one synthesis outcome
func (s *BriefStorage) SaveBrief(ctx context.Context, brief *interfaces.StoredBrief) error {
	if brief.ID == "" {
		return fmt.Errorf("brief ID is required")
	}
	if brief.CreatedAt.IsZero() {
		brief.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(brief.ID, brief); err != nil {
		return fmt.Errorf("failed to save brief: %w", err)
	}

	s.logger.Debug().
		Str("id", brief.ID).
		Str("company", brief.CompanyName).
		Str("source", string(brief.Source)).
		Msg("Brief persisted")

	return nil
}

// GetBrief retrieves one stored brief by ID
func (s *BriefStorage) GetBrief(ctx context.Context, id string) (*interfaces.StoredBrief, error) {
	var brief interfaces.StoredBrief
	if err := s.db.Store().Get(id, &brief); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("brief not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get brief: %w", err)
	}
	return &brief, nil
}

// ListBriefsByCompany returns all stored briefs for a company, newest first
func (s *BriefStorage) ListBriefsByCompany(ctx context.Context, companyName string) ([]*interfaces.StoredBrief, error) {
	var briefs []interfaces.StoredBrief
	err := s.db.Store().Find(&briefs, badgerhold.Where("CompanyName").Eq(companyName).SortBy("CreatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list briefs for company %s: %w", companyName, err)
	}

	result := make([]*interfaces.StoredBrief, len(briefs))
	for i := range briefs {
		result[i] = &briefs[i]
	}
	return result, nil
}
