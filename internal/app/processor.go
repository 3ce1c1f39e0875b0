// -----------------------------------------------------------------------
// Run Modes - Single pass, ad-hoc company, and scheduled watch
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
)

// RunOnce performs a single intake poll: fetch pending companies, run
// the pipeline batch, then write artifacts, links and markers back.
func (a *App) RunOnce(ctx context.Context) error {
	if a.Intake == nil {
		return fmt.Errorf("no intake sheet configured (set intake.sheet_id or use -company)")
	}

	records, err := a.Intake.FetchPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pending companies: %w", err)
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("No pending companies in intake sheet")
		return nil
	}

	a.Logger.Info().
		Int("count", len(records)).
		Msg("Processing pending companies")

	batch := a.Pipeline.ProcessBatch(ctx, records)
	a.finalizeBatch(ctx, batch)

	succeeded := 0
	for _, result := range batch.Results {
		if result.Succeeded() {
			succeeded++
		}
	}
	a.Logger.Info().
		Str("run_id", batch.RunID).
		Int("succeeded", succeeded).
		Int("failed", len(batch.Results)-succeeded+len(batch.Failures)).
		Msg("Intake poll complete")

	return nil
}

// RunCompany processes a single ad-hoc company that does not come from
// the intake sheet. No markers or links are written back; artifacts
// still land in the output directory, Drive and the CRM as configured.
func (a *App) RunCompany(ctx context.Context, name, website string) error {
	record := &models.CompanyRecord{
		CompanyName: name,
		Website:     website,
	}

	batch := a.Pipeline.ProcessBatch(ctx, []*models.CompanyRecord{record})
	a.finalizeBatch(ctx, batch)

	if len(batch.Failures) > 0 {
		return fmt.Errorf("failed to process %s: %s", name, batch.Failures[0].Message)
	}
	for _, result := range batch.Results {
		if !result.Succeeded() && len(result.Errors) > 0 {
			return fmt.Errorf("failed to process %s: %s", name, result.Errors[0])
		}
	}
	return nil
}

// Watch runs RunOnce on the configured cron schedule until the context
// is cancelled. A poll still in flight when the next tick fires is not
// doubled up; the tick is skipped.
func (a *App) Watch(ctx context.Context) error {
	schedule := a.Config.Intake.Schedule
	if err := common.ValidateSchedule(schedule); err != nil {
		return err
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := scheduler.AddFunc(schedule, func() {
		if err := a.RunOnce(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduled intake poll failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule intake poll: %w", err)
	}

	scheduler.Start()
	a.Logger.Info().
		Str("schedule", schedule).
		Msg("Watching intake sheet")

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	a.Logger.Info().Msg("Watch loop stopped")
	return nil
}

// finalizeBatch persists, renders and writes back every result. Failed
// records are in batch.Results too, so their error markers are written
// by finalizeResult along with everything else.
func (a *App) finalizeBatch(ctx context.Context, batch *models.BatchResult) {
	for _, result := range batch.Results {
		a.finalizeResult(ctx, batch.RunID, result)
	}
}

// finalizeResult turns one pipeline result into artifacts: local PDFs,
// persisted brief and reports, Drive links, sheet writeback and the CRM
// mirror. Every step degrades independently; a Drive outage must not
// cost the local artifact or the sheet marker.
func (a *App) finalizeResult(ctx context.Context, runID string, result *models.CompanyResult) {
	if result.Outcome != nil {
		stored := &interfaces.StoredBrief{
			ID:          uuid.NewString(),
			RunID:       runID,
			CompanyName: result.CompanyName,
			Source:      result.Outcome.Source,
			Brief:       result.Outcome.Brief,
		}
		if err := a.BriefStorage.SaveBrief(ctx, stored); err != nil {
			a.Logger.Warn().Err(err).
				Str("company", result.CompanyName).
				Msg("Failed to persist brief")
		}
	}

	links := make(map[models.ReportType]string)
	for _, reportType := range models.AllReportTypes {
		rendered, ok := result.Reports[reportType]
		if !ok {
			continue
		}
		links[reportType] = a.publishReport(ctx, runID, rendered)
	}

	if a.Intake != nil && result.Row > 0 {
		if err := a.Intake.UpdateReportLinks(ctx, result.Row,
			links[models.ReportTypeOnePager], links[models.ReportTypeDeepDive]); err != nil {
			a.Logger.Warn().Err(err).
				Int("row", result.Row).
				Msg("Failed to write report links")
		}

		message := ""
		if !result.Succeeded() && len(result.Errors) > 0 {
			message = result.Errors[0]
		}
		if err := a.Intake.MarkProcessed(ctx, result.Row, result.Succeeded(), message); err != nil {
			a.Logger.Warn().Err(err).
				Int("row", result.Row).
				Msg("Failed to write generated marker")
		}
	}

	if a.CRM != nil && result.Outcome != nil {
		if err := a.CRM.SyncBrief(ctx, result.Outcome.Brief, links); err != nil {
			a.Logger.Warn().Err(err).
				Str("company", result.CompanyName).
				Msg("Failed to mirror brief to CRM")
		}
	}
}

// publishReport renders the PDF, writes the local artifact, uploads it
// when Drive is enabled and persists the stored report. Returns the
// shareable link, empty when upload was skipped or failed.
func (a *App) publishReport(ctx context.Context, runID string, rendered *models.RenderedReport) string {
	pdf, err := a.Renderer.RenderPDF(rendered.Markdown, rendered.CompanyName)
	if err != nil {
		a.Logger.Warn().Err(err).
			Str("company", rendered.CompanyName).
			Str("type", string(rendered.Type)).
			Msg("Failed to render PDF")
		return ""
	}

	filename := rendered.Filename()

	if err := os.MkdirAll(a.Config.Reports.OutputDir, 0755); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to create report output directory")
	} else {
		path := filepath.Join(a.Config.Reports.OutputDir, filename)
		if err := os.WriteFile(path, pdf, 0644); err != nil {
			a.Logger.Warn().Err(err).Str("path", path).Msg("Failed to write report PDF")
		} else {
			a.Logger.Info().Str("path", path).Msg("Report PDF written")
		}
	}

	link := ""
	if a.Uploader != nil {
		uploaded, err := a.Uploader.UploadPDF(ctx, filename, pdf)
		if err != nil {
			a.Logger.Warn().Err(err).
				Str("filename", filename).
				Msg("Drive upload failed, continuing without link")
		} else {
			link = uploaded
		}
	}

	stored := &interfaces.StoredReport{
		ID:          uuid.NewString(),
		RunID:       runID,
		CompanyName: rendered.CompanyName,
		Type:        rendered.Type,
		Markdown:    rendered.Markdown,
		PDF:         pdf,
		DriveLink:   link,
	}
	if err := a.ReportStorage.SaveReport(ctx, stored); err != nil {
		a.Logger.Warn().Err(err).
			Str("company", rendered.CompanyName).
			Msg("Failed to persist report")
	}

	return link
}
