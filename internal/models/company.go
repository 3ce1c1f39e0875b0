package models

import (
	"fmt"
	"sort"
	"strings"
)

// Attributes is one sub-record of intake data: named assessment fields
// mapped to free-text values. Absent fields are stored as empty strings,
// never nil, so downstream concatenation needs no nil checks.
type Attributes map[string]string

// Populated returns the attribute names with non-empty values, sorted,
// so that derived text is byte-identical across runs.
func (a Attributes) Populated() []string {
	keys := make([]string, 0, len(a))
	for k, v := range a {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// CompanyRecord is one row of intake-queue data for a single company.
// It is created by the intake sync collaborator and read-only to the
// pipeline; the "generated" marker lives in the sheet, not here.
type CompanyRecord struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
	Email       string `json:"email"`
	Status      string `json:"status"`

	// Row is the 1-based sheet row this record came from, used by the
	// intake collaborator to write markers and links back. Zero for
	// ad-hoc records.
	Row int `json:"row,omitempty"`

	// DocumentRef is an optional URL or local path to a pitch deck
	// (PDF or plain text).
	DocumentRef string `json:"document_ref,omitempty"`

	// InternalNotes is optional free-text commentary from the intake team.
	InternalNotes string `json:"internal_notes,omitempty"`

	ProblemAnalysis  Attributes `json:"problem_analysis"`
	MarketAnalysis   Attributes `json:"market_analysis"`
	ProductAnalysis  Attributes `json:"product_analysis"`
	TeamAnalysis     Attributes `json:"team_analysis"`
	BusinessAnalysis Attributes `json:"business_analysis"`
}

// SubRecordSection pairs a display label with one sub-record, in the
// fixed order the context aggregator renders them.
type SubRecordSection struct {
	Label  string
	Fields Attributes
}

// Sections returns the five assessment sub-records in canonical order.
func (r *CompanyRecord) Sections() []SubRecordSection {
	return []SubRecordSection{
		{Label: "Problem Analysis", Fields: r.ProblemAnalysis},
		{Label: "Market Analysis", Fields: r.MarketAnalysis},
		{Label: "Product Analysis", Fields: r.ProductAnalysis},
		{Label: "Team Analysis", Fields: r.TeamAnalysis},
		{Label: "Business Analysis", Fields: r.BusinessAnalysis},
	}
}

// Validate checks that the record carries the identifying key the
// pipeline requires. A record failing validation is recorded as a batch
// item error and skipped before any stage runs.
func (r *CompanyRecord) Validate() error {
	if strings.TrimSpace(r.CompanyName) == "" {
		return fmt.Errorf("company record missing company_name")
	}
	return nil
}
