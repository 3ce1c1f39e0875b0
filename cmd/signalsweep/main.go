// -----------------------------------------------------------------------
// SignalSweep - Company research report pipeline entrypoint
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/app"
	"github.com/meridianvc/signalsweep/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	runOnce      = flag.Bool("once", false, "Poll the intake sheet once and exit (default: watch on schedule)")
	companyName  = flag.String("company", "", "Process a single ad-hoc company by name and exit")
	companyURL   = flag.String("website", "", "Website for the ad-hoc company (with -company)")
	sheetID      = flag.String("sheet", "", "Intake sheet ID (overrides config)")
	batchLimit   = flag.Int("limit", 0, "Max companies per poll (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	// Parse command-line flags
	flag.Parse()

	// Handle version flag
	if *showVersion || *showVersionV {
		fmt.Printf("SignalSweep version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("signalsweep.toml"); err == nil {
			configFiles = append(configFiles, "signalsweep.toml")
		} else if _, err := os.Stat("deployments/local/signalsweep.toml"); err == nil {
			// Fallback for users running from the project root
			configFiles = append(configFiles, "deployments/local/signalsweep.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env)
	// Later config files override earlier ones
	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// 2. Apply command-line flag overrides (highest priority)
	common.ApplyFlagOverrides(config, *sheetID, *batchLimit)

	// 3. Initialize logger with final configuration
	logger = common.InitLogger(config)

	// 4. Print banner
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("provider", string(config.LLM.DefaultProvider)).
		Str("output_dir", config.Reports.OutputDir).
		Str("log_level", config.Logging.Level).
		Msg("Application configuration loaded")

	// Root context cancelled on interrupt so in-flight batches can
	// finish their writebacks before shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Interrupt signal received, shutting down")
		cancel()
	}()

	// Initialize application
	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	switch {
	case *companyName != "":
		err = application.RunCompany(ctx, *companyName, *companyURL)
	case *runOnce:
		err = application.RunOnce(ctx)
	default:
		err = application.Watch(ctx)
	}

	if err != nil {
		logger.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}

	logger.Info().Msg("SignalSweep stopped")
}
