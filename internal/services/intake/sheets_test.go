package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func testIntake() *SheetsIntake {
	return &SheetsIntake{
		worksheet:  "Sheet1",
		batchLimit: 5,
		logger:     arbor.NewLogger(),
	}
}

var testHeaders = []string{
	"company_name", "website", "email", "status", "generated",
	"document_ref", "internal_notes", "problem_pain_point",
	"market_market_size", "one_pager_link",
}

func row(values ...string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func TestParseRow_FullRecord(t *testing.T) {
	s := testIntake()

	record := s.parseRow(testHeaders, row(
		"Acme", "https://acme.io", "founders@acme.io", "Pending", "",
		"https://drive.example/deck.pdf", "promising team", "Launch costs", "Large", "",
	), 2)

	require.NotNil(t, record)
	assert.Equal(t, "Acme", record.CompanyName)
	assert.Equal(t, "https://acme.io", record.Website)
	assert.Equal(t, 2, record.Row)
	assert.Equal(t, "https://drive.example/deck.pdf", record.DocumentRef)
	assert.Equal(t, "promising team", record.InternalNotes)
	assert.Equal(t, "Launch costs", record.ProblemAnalysis["pain_point"])
	assert.Equal(t, "Large", record.MarketAnalysis["market_size"])
}

func TestParseRow_SkipsProcessedRows(t *testing.T) {
	s := testIntake()

	for _, marker := range []string{"yes", "Y", "TRUE", "1", "done", "Completed"} {
		record := s.parseRow(testHeaders, row(
			"Acme", "", "", "Pending", marker, "", "", "", "", "",
		), 2)
		assert.Nil(t, record, "marker %q should skip the row", marker)
	}

	// An error marker from a previous failed run leaves the row pending
	record := s.parseRow(testHeaders, row(
		"Acme", "", "", "Pending", "error: research timed out", "", "", "", "", "",
	), 2)
	assert.NotNil(t, record)
}

func TestParseRow_StatusEligibility(t *testing.T) {
	s := testIntake()

	eligible := []string{"Pending", "ready", "New", "To Process", "Reviewed - Promising", ""}
	for _, status := range eligible {
		record := s.parseRow(testHeaders, row(
			"Acme", "", "", status, "", "", "", "", "", "",
		), 2)
		assert.NotNil(t, record, "status %q should be eligible", status)
	}

	ineligible := []string{"Rejected", "On Hold", "Reviewed - Pass"}
	for _, status := range ineligible {
		record := s.parseRow(testHeaders, row(
			"Acme", "", "", status, "", "", "", "", "", "",
		), 2)
		assert.Nil(t, record, "status %q should be skipped", status)
	}
}

func TestParseRow_SkipsBlankAndShortRows(t *testing.T) {
	s := testIntake()

	assert.Nil(t, s.parseRow(testHeaders, row("", "https://nameless.io"), 2))
	assert.Nil(t, s.parseRow(testHeaders, row(), 3))

	// Short rows still parse when the name column is present
	record := s.parseRow(testHeaders, row("Acme"), 4)
	require.NotNil(t, record)
	assert.Equal(t, "Acme", record.CompanyName)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "company_name", normalizeHeader("Company Name"))
	assert.Equal(t, "company_name", normalizeHeader("  company_name "))
	assert.Equal(t, "one_pager_link", normalizeHeader("One Pager Link"))
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(0))
	assert.Equal(t, "E", columnLetter(4))
	assert.Equal(t, "Z", columnLetter(25))
	assert.Equal(t, "AA", columnLetter(26))
	assert.Equal(t, "AZ", columnLetter(51))
}
