package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/meridianvc/signalsweep/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Reports     ReportsConfig  `toml:"reports"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	OpenAI      OpenAIConfig   `toml:"openai"`
	Claude      ClaudeConfig   `toml:"claude"`
	Gemini      GeminiConfig   `toml:"gemini"`
	LLM         LLMConfig      `toml:"llm"`
	Google      GoogleConfig   `toml:"google"`
	Intake      IntakeConfig   `toml:"intake"`
	Drive       DriveConfig    `toml:"drive"`
	Airtable    AirtableConfig `toml:"airtable"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// ReportsConfig controls which variants are rendered and where PDFs land
type ReportsConfig struct {
	OutputDir    string   `toml:"output_dir"`                                        // Local directory for generated PDFs
	TemplatesDir string   `toml:"templates_dir"`                                     // Optional override directory for report templates
	Types        []string `toml:"types" validate:"dive,oneof=one_pager deep_dive"` // Report variants to render
}

// PipelineConfig controls batch processing behavior
type PipelineConfig struct {
	Concurrency int `toml:"concurrency" validate:"min=1"` // Concurrent company pipelines per batch
}

// OpenAIConfig configures the OpenAI-compatible research endpoint.
// This is the default synthesis provider: any service speaking the
// chat-completions wire format (OpenAI, Perplexity, vLLM) works here.
type OpenAIConfig struct {
	Endpoint    string  `toml:"endpoint"`    // Chat completions URL (e.g. "https://api.perplexity.ai/chat/completions")
	APIKey      string  `toml:"api_key"`     // Bearer credential
	Model       string  `toml:"model"`       // Model name (default: "sonar-pro")
	Temperature float32 `toml:"temperature"` // Sampling temperature (default: 0.1 for schema-following output)
	MaxTokens   int     `toml:"max_tokens"`  // Response token budget (default: 4000)
	Timeout     string  `toml:"timeout"`     // Request timeout as duration string (default: "3m", responses are large)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for research operations
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.1)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "3m")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for research operations
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.1)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "3m")
}

// LLMProvider represents the synthesis provider type
type LLMProvider string

const (
	// LLMProviderOpenAI uses an OpenAI-compatible chat completions endpoint
	LLMProviderOpenAI LLMProvider = "openai"
	// LLMProviderClaude uses the Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses the Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains provider-independent synthesis settings
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=openai claude gemini"` // default: "openai"
	RateLimit       string      `toml:"rate_limit"`                                             // Minimum spacing between research requests (default: "4s")
}

// GoogleConfig holds shared Google API credentials for Sheets and Drive
type GoogleConfig struct {
	CredentialsFile string `toml:"credentials_file"` // Service account JSON path
}

// IntakeConfig configures the spreadsheet intake queue
type IntakeConfig struct {
	SheetID    string `toml:"sheet_id"`   // Google Sheet ID of the intake queue
	Worksheet  string `toml:"worksheet"`  // Worksheet name (default: "Sheet1")
	BatchLimit int    `toml:"batch_limit"` // Max companies processed per poll (default: 5)
	Schedule   string `toml:"schedule"`   // Cron schedule for watch mode (default: "*/5 * * * *")
}

// DriveConfig configures artifact upload
type DriveConfig struct {
	Enabled bool   `toml:"enabled"` // Upload PDFs to Google Drive
	Folder  string `toml:"folder"`  // Target folder name (created on demand)
}

// AirtableConfig configures the CRM mirror
type AirtableConfig struct {
	Enabled bool   `toml:"enabled"`  // Mirror briefs to Airtable
	APIKey  string `toml:"api_key"`  // Airtable personal access token
	BaseID  string `toml:"base_id"`  // Target base
	Table   string `toml:"table"`    // Target table name (default: "Companies")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should be exposed in signalsweep.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Reports: ReportsConfig{
			OutputDir: "./reports",
			Types:     []string{"one_pager", "deep_dive"},
		},
		Pipeline: PipelineConfig{
			Concurrency: 3, // Companies are independent; the rate gate serializes LLM calls
		},
		OpenAI: OpenAIConfig{
			Endpoint:    "https://api.perplexity.ai/chat/completions",
			APIKey:      "", // User must provide API key
			Model:       "sonar-pro",
			Temperature: 0.1, // Low randomness favors schema-following output
			MaxTokens:   4000,
			Timeout:     "3m",
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Temperature: 0.1,
			Timeout:     "3m",
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Temperature: 0.1,
			Timeout:     "3m",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenAI, // The intake contract is the OpenAI wire format
			RateLimit:       "4s",
		},
		Google: GoogleConfig{
			CredentialsFile: "./auth/service-account.json",
		},
		Intake: IntakeConfig{
			Worksheet:  "Sheet1",
			BatchLimit: 5,
			Schedule:   "*/5 * * * *",
		},
		Drive: DriveConfig{
			Enabled: false, // Opt-in: requires Drive scope on the service account
			Folder:  "Signal Sweep Reports",
		},
		Airtable: AirtableConfig{
			Enabled: false,
			Table:   "Companies",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files, later files
// overriding earlier ones. Priority: CLI flags > env > last file > ... > defaults.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the loaded configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Intake.Schedule != "" {
		if err := ValidateSchedule(c.Intake.Schedule); err != nil {
			return fmt.Errorf("invalid intake schedule: %w", err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SIGNALSWEEP_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("SIGNALSWEEP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SIGNALSWEEP_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SIGNALSWEEP_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("SIGNALSWEEP_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Reports configuration
	if outputDir := os.Getenv("SIGNALSWEEP_REPORTS_OUTPUT_DIR"); outputDir != "" {
		config.Reports.OutputDir = outputDir
	}

	// Pipeline configuration
	if concurrency := os.Getenv("SIGNALSWEEP_PIPELINE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Pipeline.Concurrency = c
		}
	}

	// OpenAI-compatible endpoint configuration
	if endpoint := os.Getenv("SIGNALSWEEP_OPENAI_ENDPOINT"); endpoint != "" {
		config.OpenAI.Endpoint = endpoint
	}
	if apiKey := os.Getenv("SIGNALSWEEP_OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if model := os.Getenv("SIGNALSWEEP_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
	if temperature := os.Getenv("SIGNALSWEEP_OPENAI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.OpenAI.Temperature = float32(t)
		}
	}
	if maxTokens := os.Getenv("SIGNALSWEEP_OPENAI_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.OpenAI.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("SIGNALSWEEP_OPENAI_TIMEOUT"); timeout != "" {
		config.OpenAI.Timeout = timeout
	}

	// Claude configuration (standard env var honored alongside the prefixed one)
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SIGNALSWEEP_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("SIGNALSWEEP_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("SIGNALSWEEP_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("SIGNALSWEEP_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("SIGNALSWEEP_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// LLM provider configuration
	if provider := os.Getenv("SIGNALSWEEP_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if rateLimit := os.Getenv("SIGNALSWEEP_LLM_RATE_LIMIT"); rateLimit != "" {
		config.LLM.RateLimit = rateLimit
	}

	// Google configuration
	if credFile := os.Getenv("SIGNALSWEEP_GOOGLE_CREDENTIALS_FILE"); credFile != "" {
		config.Google.CredentialsFile = credFile
	}

	// Intake configuration
	if sheetID := os.Getenv("SIGNALSWEEP_INTAKE_SHEET_ID"); sheetID != "" {
		config.Intake.SheetID = sheetID
	}
	if worksheet := os.Getenv("SIGNALSWEEP_INTAKE_WORKSHEET"); worksheet != "" {
		config.Intake.Worksheet = worksheet
	}
	if batchLimit := os.Getenv("SIGNALSWEEP_INTAKE_BATCH_LIMIT"); batchLimit != "" {
		if bl, err := strconv.Atoi(batchLimit); err == nil {
			config.Intake.BatchLimit = bl
		}
	}
	if schedule := os.Getenv("SIGNALSWEEP_INTAKE_SCHEDULE"); schedule != "" {
		config.Intake.Schedule = schedule
	}

	// Drive configuration
	if enabled := os.Getenv("SIGNALSWEEP_DRIVE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Drive.Enabled = e
		}
	}
	if folder := os.Getenv("SIGNALSWEEP_DRIVE_FOLDER"); folder != "" {
		config.Drive.Folder = folder
	}

	// Airtable configuration
	if enabled := os.Getenv("SIGNALSWEEP_AIRTABLE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Airtable.Enabled = e
		}
	}
	if apiKey := os.Getenv("SIGNALSWEEP_AIRTABLE_API_KEY"); apiKey != "" {
		config.Airtable.APIKey = apiKey
	}
	if baseID := os.Getenv("SIGNALSWEEP_AIRTABLE_BASE_ID"); baseID != "" {
		config.Airtable.BaseID = baseID
	}
	if table := os.Getenv("SIGNALSWEEP_AIRTABLE_TABLE"); table != "" {
		config.Airtable.Table = table
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, sheetID string, batchLimit int) {
	if sheetID != "" {
		config.Intake.SheetID = sheetID
	}
	if batchLimit > 0 {
		config.Intake.BatchLimit = batchLimit
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"openai_api_key":    {"SIGNALSWEEP_OPENAI_API_KEY"},
		"anthropic_api_key": {"SIGNALSWEEP_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"gemini_api_key":    {"SIGNALSWEEP_GEMINI_API_KEY"},
		"airtable_api_key":  {"SIGNALSWEEP_AIRTABLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// ParseDurationOr parses a duration string, falling back to a default
// when the value is empty or malformed.
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// ValidateSchedule validates a cron schedule expression and enforces a
// minimum 5-minute poll interval against the intake spreadsheet.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
