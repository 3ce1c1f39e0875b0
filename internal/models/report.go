package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportType identifies which of the two fixed document variants is
// being rendered.
type ReportType string

const (
	// ReportTypeOnePager is the single-page company snapshot.
	ReportTypeOnePager ReportType = "one_pager"
	// ReportTypeDeepDive is the full multi-section research report.
	ReportTypeDeepDive ReportType = "deep_dive"
)

// AllReportTypes lists the variants in the order the pipeline renders them.
var AllReportTypes = []ReportType{ReportTypeOnePager, ReportTypeDeepDive}

// ParseReportType validates a report type string.
func ParseReportType(s string) (ReportType, error) {
	switch ReportType(strings.TrimSpace(s)) {
	case ReportTypeOnePager:
		return ReportTypeOnePager, nil
	case ReportTypeDeepDive:
		return ReportTypeDeepDive, nil
	default:
		return "", fmt.Errorf("invalid report type %q: must be %q or %q",
			s, ReportTypeOnePager, ReportTypeDeepDive)
	}
}

// RenderedReport is one generated Markdown document plus its variant
// tag. Immutable once produced; handed to the Markdown->PDF renderer.
type RenderedReport struct {
	CompanyName string     `json:"company_name"`
	Type        ReportType `json:"report_type"`
	Markdown    string     `json:"markdown"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Filename returns the artifact name used for local storage and Drive
// upload, e.g. "Acme_Corp_one_pager.pdf".
func (r *RenderedReport) Filename() string {
	safe := strings.NewReplacer(" ", "_", ".", "_", "/", "_").Replace(r.CompanyName)
	return fmt.Sprintf("%s_%s.pdf", safe, r.Type)
}

// CompanyResult is the outcome of running the pipeline for one company.
// Reports that failed to format are absent from Reports and recorded in
// Errors; a company with a valid record always yields at least a brief.
type CompanyResult struct {
	CompanyName string                         `json:"company_name"`
	Row         int                            `json:"row,omitempty"`
	Outcome     *BriefOutcome                  `json:"outcome,omitempty"`
	Reports     map[ReportType]*RenderedReport `json:"reports"`
	Errors      []string                       `json:"errors,omitempty"`
}

// Succeeded reports whether at least one report variant was rendered.
func (r *CompanyResult) Succeeded() bool {
	return len(r.Reports) > 0
}

// BatchItemError records one record that could not be processed at all
// (e.g. missing identifying key), keyed for the intake collaborator.
type BatchItemError struct {
	CompanyName string `json:"company_name"`
	Row         int    `json:"row,omitempty"`
	Message     string `json:"message"`
}

// BatchResult aggregates a batch run. One record's unrecoverable failure
// never stops processing of the others.
type BatchResult struct {
	RunID     string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	Results   []*CompanyResult  `json:"results"`
	Failures  []*BatchItemError `json:"failures,omitempty"`
}
