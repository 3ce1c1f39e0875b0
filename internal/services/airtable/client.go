// -----------------------------------------------------------------------
// Airtable CRM Sync - Mirror intelligence briefs into an Airtable base
// -----------------------------------------------------------------------

package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/httpclient"
	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
)

const apiBaseURL = "https://api.airtable.com/v0"

// Client implements CRMSync against the Airtable REST API. Records are
// upserted by company name; all monetary values cross this boundary as
// the opaque strings the brief carries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	baseID     string
	table      string
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.CRMSync = (*Client)(nil)

// airtableRecord is the wire shape of one Airtable record
type airtableRecord struct {
	ID     string                 `json:"id,omitempty"`
	Fields map[string]interface{} `json:"fields"`
}

type recordList struct {
	Records []airtableRecord `json:"records"`
}

// NewClient creates an Airtable CRM sync client
func NewClient(cfg *common.Config, apiKey string, logger arbor.ILogger) *Client {
	return &Client{
		httpClient: httpclient.NewDefaultHTTPClient(30 * time.Second),
		baseURL:    apiBaseURL,
		apiKey:     apiKey,
		baseID:     cfg.Airtable.BaseID,
		table:      cfg.Airtable.Table,
		logger:     logger,
	}
}

// SyncBrief upserts the brief's CRM fields, keyed by company name
func (c *Client) SyncBrief(ctx context.Context, brief *models.IntelligenceBrief, links map[models.ReportType]string) error {
	fields := briefToFields(brief, links)

	existingID, err := c.findRecordID(ctx, brief.CompanyName)
	if err != nil {
		return err
	}

	if existingID != "" {
		if err := c.updateRecord(ctx, existingID, fields); err != nil {
			return err
		}
	} else {
		if err := c.createRecord(ctx, fields); err != nil {
			return err
		}
	}

	c.logger.Info().
		Str("company", brief.CompanyName).
		Bool("updated", existingID != "").
		Msg("Brief mirrored to Airtable")

	return nil
}

// briefToFields flattens the brief into Airtable column values
func briefToFields(brief *models.IntelligenceBrief, links map[models.ReportType]string) map[string]interface{} {
	teamNames := make([]string, 0, len(brief.Team))
	for _, member := range brief.Team {
		if member.Title != "" {
			teamNames = append(teamNames, fmt.Sprintf("%s (%s)", member.Name, member.Title))
		} else {
			teamNames = append(teamNames, member.Name)
		}
	}

	competitorNames := make([]string, 0, len(brief.MarketAnalysis.Competitors))
	for _, competitor := range brief.MarketAnalysis.Competitors {
		competitorNames = append(competitorNames, competitor.Name)
	}

	fields := map[string]interface{}{
		"Company Name":      brief.CompanyName,
		"Founded":           brief.FoundedYear,
		"Tagline":           brief.Tagline,
		"Executive Summary": brief.ExecutiveSummary,
		"Business Model":    brief.BusinessModel,
		"TAM":               brief.MarketAnalysis.SizeTAM,
		"Target Customer":   brief.MarketAnalysis.TargetCustomer,
		"Competitors":       strings.Join(competitorNames, ", "),
		"Team":              strings.Join(teamNames, ", "),
		"Total Funding":     brief.Financials.TotalFunding,
		"Last Round":        brief.Financials.LastRound,
		"Valuation":         brief.Financials.Valuation,
	}

	if link := links[models.ReportTypeOnePager]; link != "" {
		fields["One Pager"] = link
	}
	if link := links[models.ReportTypeDeepDive]; link != "" {
		fields["Deep Dive"] = link
	}

	return fields
}

// findRecordID looks up an existing record by company name, returning
// an empty string when absent
func (c *Client) findRecordID(ctx context.Context, companyName string) (string, error) {
	formula := fmt.Sprintf("{Company Name}=%q", companyName)
	endpoint := fmt.Sprintf("%s/%s/%s?maxRecords=1&filterByFormula=%s",
		c.baseURL, c.baseID, url.PathEscape(c.table), url.QueryEscape(formula))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to query Airtable for %s: %w", companyName, err)
	}

	var list recordList
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("failed to decode Airtable record list: %w", err)
	}
	if len(list.Records) == 0 {
		return "", nil
	}
	return list.Records[0].ID, nil
}

func (c *Client) createRecord(ctx context.Context, fields map[string]interface{}) error {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(c.table))
	payload, err := json.Marshal(recordList{Records: []airtableRecord{{Fields: fields}}})
	if err != nil {
		return fmt.Errorf("failed to encode Airtable record: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, endpoint, payload); err != nil {
		return fmt.Errorf("failed to create Airtable record: %w", err)
	}
	return nil
}

func (c *Client) updateRecord(ctx context.Context, recordID string, fields map[string]interface{}) error {
	endpoint := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(c.table), recordID)
	payload, err := json.Marshal(airtableRecord{Fields: fields})
	if err != nil {
		return fmt.Errorf("failed to encode Airtable record: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPatch, endpoint, payload); err != nil {
		return fmt.Errorf("failed to update Airtable record %s: %w", recordID, err)
	}
	return nil
}

// do performs one authenticated Airtable request and returns the body
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Airtable returned %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
