// -----------------------------------------------------------------------
// Sheets Intake - Google Sheets backed intake queue
// -----------------------------------------------------------------------

package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
)

// Well-known intake columns. Everything else is routed into assessment
// sub-records by header prefix.
const (
	colCompanyName   = "company_name"
	colWebsite       = "website"
	colEmail         = "email"
	colStatus        = "status"
	colGenerated     = "generated"
	colDocumentRef   = "document_ref"
	colInternalNotes = "internal_notes"
	colOnePagerLink  = "one_pager_link"
	colDeepDiveLink  = "deep_dive_link"
)

// sectionPrefixes routes prefixed headers into assessment sub-records,
// e.g. "problem_pain_point" -> ProblemAnalysis["pain_point"]
var sectionPrefixes = []struct {
	prefix string
	pick   func(*models.CompanyRecord) models.Attributes
}{
	{"problem_", func(r *models.CompanyRecord) models.Attributes { return r.ProblemAnalysis }},
	{"market_", func(r *models.CompanyRecord) models.Attributes { return r.MarketAnalysis }},
	{"product_", func(r *models.CompanyRecord) models.Attributes { return r.ProductAnalysis }},
	{"team_", func(r *models.CompanyRecord) models.Attributes { return r.TeamAnalysis }},
	{"business_", func(r *models.CompanyRecord) models.Attributes { return r.BusinessAnalysis }},
}

// eligibleStatuses are the intake statuses that make a row processable.
// Comparison is case-insensitive; an empty status is also eligible.
var eligibleStatuses = map[string]bool{
	"pending":              true,
	"ready":                true,
	"new":                  true,
	"to process":           true,
	"reviewed - promising": true,
}

// generatedMarkers are the values in the generated column that mean a
// row has already been processed
var generatedMarkers = map[string]bool{
	"yes":       true,
	"y":         true,
	"true":      true,
	"1":         true,
	"done":      true,
	"completed": true,
}

// SheetsIntake implements IntakeSource on a Google Sheet. Row 1 is the
// header row; data rows are 1-based sheet rows starting at 2.
type SheetsIntake struct {
	service    *sheets.Service
	sheetID    string
	worksheet  string
	batchLimit int
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.IntakeSource = (*SheetsIntake)(nil)

// NewSheetsIntake creates an intake source backed by a Google Sheet,
// authenticating with the configured service account.
func NewSheetsIntake(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*SheetsIntake, error) {
	if cfg.Intake.SheetID == "" {
		return nil, fmt.Errorf("intake sheet_id is not configured")
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.Google.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return &SheetsIntake{
		service:    service,
		sheetID:    cfg.Intake.SheetID,
		worksheet:  cfg.Intake.Worksheet,
		batchLimit: cfg.Intake.BatchLimit,
		logger:     logger,
	}, nil
}

// FetchPending reads the worksheet and returns eligible, unprocessed
// rows up to the batch limit.
func (s *SheetsIntake) FetchPending(ctx context.Context) ([]*models.CompanyRecord, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.sheetID, s.worksheet).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read intake sheet: %w", err)
	}

	if len(resp.Values) < 2 {
		s.logger.Debug().Str("sheet_id", s.sheetID).Msg("Intake sheet has no data rows")
		return nil, nil
	}

	headers := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		headers[i] = normalizeHeader(fmt.Sprint(h))
	}

	var records []*models.CompanyRecord
	for i, raw := range resp.Values[1:] {
		sheetRow := i + 2 // 1-based, after the header row

		record := s.parseRow(headers, raw, sheetRow)
		if record == nil {
			continue
		}
		records = append(records, record)

		if s.batchLimit > 0 && len(records) >= s.batchLimit {
			break
		}
	}

	s.logger.Info().
		Str("sheet_id", s.sheetID).
		Int("pending", len(records)).
		Int("batch_limit", s.batchLimit).
		Msg("Fetched pending intake rows")

	return records, nil
}

// parseRow converts one sheet row into a CompanyRecord. Returns nil for
// rows that are processed, ineligible, or blank.
func (s *SheetsIntake) parseRow(headers []string, raw []interface{}, sheetRow int) *models.CompanyRecord {
	record := &models.CompanyRecord{
		Row:              sheetRow,
		ProblemAnalysis:  models.Attributes{},
		MarketAnalysis:   models.Attributes{},
		ProductAnalysis:  models.Attributes{},
		TeamAnalysis:     models.Attributes{},
		BusinessAnalysis: models.Attributes{},
	}

	for col, header := range headers {
		if col >= len(raw) {
			break
		}
		value := strings.TrimSpace(fmt.Sprint(raw[col]))

		switch header {
		case colCompanyName:
			record.CompanyName = value
		case colWebsite:
			record.Website = value
		case colEmail:
			record.Email = value
		case colStatus:
			record.Status = value
		case colDocumentRef:
			record.DocumentRef = value
		case colInternalNotes:
			record.InternalNotes = value
		case colGenerated:
			if generatedMarkers[strings.ToLower(value)] {
				return nil
			}
		case colOnePagerLink, colDeepDiveLink:
			// Output columns, never read back into the record
		default:
			for _, section := range sectionPrefixes {
				if strings.HasPrefix(header, section.prefix) {
					section.pick(record)[strings.TrimPrefix(header, section.prefix)] = value
					break
				}
			}
		}
	}

	if record.CompanyName == "" {
		return nil
	}

	if record.Status != "" && !eligibleStatuses[strings.ToLower(record.Status)] {
		return nil
	}

	return record
}

// MarkProcessed writes the generated marker for a row: "yes" on success,
// the failure message otherwise so operators see why a row stalled.
func (s *SheetsIntake) MarkProcessed(ctx context.Context, row int, ok bool, message string) error {
	marker := "yes"
	if !ok {
		marker = "error: " + message
	}
	return s.writeCell(ctx, colGenerated, row, marker)
}

// UpdateReportLinks writes artifact links back to a row. Empty links
// leave the cell untouched.
func (s *SheetsIntake) UpdateReportLinks(ctx context.Context, row int, onePagerLink, deepDiveLink string) error {
	if onePagerLink != "" {
		if err := s.writeCell(ctx, colOnePagerLink, row, onePagerLink); err != nil {
			return err
		}
	}
	if deepDiveLink != "" {
		if err := s.writeCell(ctx, colDeepDiveLink, row, deepDiveLink); err != nil {
			return err
		}
	}
	return nil
}

// writeCell updates a single cell addressed by header name and sheet row
func (s *SheetsIntake) writeCell(ctx context.Context, header string, row int, value string) error {
	col, err := s.findColumn(ctx, header)
	if err != nil {
		return err
	}

	cell := fmt.Sprintf("%s!%s%d", s.worksheet, columnLetter(col), row)
	_, err = s.service.Spreadsheets.Values.
		Update(s.sheetID, cell, &sheets.ValueRange{Values: [][]interface{}{{value}}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update cell %s: %w", cell, err)
	}

	s.logger.Debug().
		Str("cell", cell).
		Str("header", header).
		Msg("Updated intake sheet cell")

	return nil
}

// findColumn locates a header's zero-based column index
func (s *SheetsIntake) findColumn(ctx context.Context, header string) (int, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.sheetID, fmt.Sprintf("%s!1:1", s.worksheet)).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read intake sheet header row: %w", err)
	}
	if len(resp.Values) == 0 {
		return 0, fmt.Errorf("intake sheet has no header row")
	}

	for i, h := range resp.Values[0] {
		if normalizeHeader(fmt.Sprint(h)) == header {
			return i, nil
		}
	}
	return 0, fmt.Errorf("intake sheet has no %q column", header)
}

// normalizeHeader lowercases a header and converts spaces to underscores
// so "Company Name" and "company_name" address the same column
func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// columnLetter converts a zero-based column index to A1 notation
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}
