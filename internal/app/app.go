// -----------------------------------------------------------------------
// Application Wiring - Builds the pipeline and its collaborators
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/interfaces"
	"github.com/meridianvc/signalsweep/internal/models"
	"github.com/meridianvc/signalsweep/internal/services/airtable"
	"github.com/meridianvc/signalsweep/internal/services/drive"
	"github.com/meridianvc/signalsweep/internal/services/extract"
	"github.com/meridianvc/signalsweep/internal/services/intake"
	"github.com/meridianvc/signalsweep/internal/services/llm"
	"github.com/meridianvc/signalsweep/internal/services/pipeline"
	"github.com/meridianvc/signalsweep/internal/services/render"
	"github.com/meridianvc/signalsweep/internal/services/report"
	"github.com/meridianvc/signalsweep/internal/services/research"
	"github.com/meridianvc/signalsweep/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage layer
	DB            *badger.BadgerDB
	KVStorage     interfaces.KeyValueStorage
	BriefStorage  interfaces.BriefStorage
	ReportStorage interfaces.ReportStorage

	// Pipeline stages
	Providers   *llm.ProviderFactory
	Extractor   interfaces.DocumentExtractor
	Contexts    interfaces.ContextBuilder
	Synthesizer interfaces.BriefSynthesizer
	Formatter   interfaces.ReportFormatter
	Renderer    interfaces.PDFRenderer
	Pipeline    interfaces.Pipeline

	// Collaborators, nil when not configured
	Intake   interfaces.IntakeSource
	Uploader interfaces.ArtifactUploader
	CRM      interfaces.CRMSync
}

// New initializes the application with all dependencies. Collaborators
// (intake sheet, Drive upload, Airtable mirror) are wired only when
// their configuration sections enable them; the pipeline itself always
// comes up.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initPipeline(); err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if err := app.initCollaborators(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize collaborators: %w", err)
	}

	logger.Info().
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Bool("intake", app.Intake != nil).
		Bool("drive", app.Uploader != nil).
		Bool("airtable", app.CRM != nil).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the storage layer (Badger)
func (a *App) initStorage() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open badger database: %w", err)
	}

	a.DB = db
	a.KVStorage = badger.NewKVStorage(db, a.Logger)
	a.BriefStorage = badger.NewBriefStorage(db, a.Logger)
	a.ReportStorage = badger.NewReportStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initPipeline wires the four stages and the orchestrator around them
func (a *App) initPipeline() error {
	a.Providers = llm.NewProviderFactory(a.Config, a.KVStorage, a.Logger)
	a.Extractor = extract.NewExtractor(a.Logger)
	a.Contexts = research.NewContextBuilder()
	a.Synthesizer = research.NewSynthesizer(a.Config, a.Providers, a.Logger)
	a.Renderer = render.NewRenderer(a.Logger)

	formatter, err := report.NewFormatter(a.Config.Reports.TemplatesDir, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load report templates: %w", err)
	}
	a.Formatter = formatter

	reportTypes, err := parseReportTypes(a.Config.Reports.Types)
	if err != nil {
		return err
	}

	a.Pipeline = pipeline.NewService(
		a.Extractor,
		a.Contexts,
		a.Synthesizer,
		a.Formatter,
		reportTypes,
		a.Config.Pipeline.Concurrency,
		a.Logger,
	)

	return nil
}

// initCollaborators wires the configured outer integrations
func (a *App) initCollaborators(ctx context.Context) error {
	if a.Config.Intake.SheetID != "" {
		sheetsIntake, err := intake.NewSheetsIntake(ctx, a.Config, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect intake sheet: %w", err)
		}
		a.Intake = sheetsIntake
	}

	if a.Config.Drive.Enabled {
		uploader, err := drive.NewUploader(ctx, a.Config, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect Drive: %w", err)
		}
		a.Uploader = uploader
	}

	if a.Config.Airtable.Enabled {
		apiKey, err := common.ResolveAPIKey(ctx, a.KVStorage, "airtable_api_key", a.Config.Airtable.APIKey)
		if err != nil {
			return fmt.Errorf("airtable sync enabled but no API key resolved: %w", err)
		}
		a.CRM = airtable.NewClient(a.Config, apiKey, a.Logger)
	}

	return nil
}

func parseReportTypes(names []string) ([]models.ReportType, error) {
	types := make([]models.ReportType, 0, len(names))
	for _, name := range names {
		rt, err := models.ParseReportType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	return types, nil
}

// Close releases held resources. Safe to call once at end of shutdown.
func (a *App) Close() error {
	if a.Providers != nil {
		if err := a.Providers.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close provider clients")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
