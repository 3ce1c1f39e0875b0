package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFiles(t *testing.T) {
	t.Run("defaults when no files given", func(t *testing.T) {
		config, err := LoadFromFiles()
		require.NoError(t, err)

		assert.Equal(t, "sonar-pro", config.OpenAI.Model)
		assert.Equal(t, float32(0.1), config.OpenAI.Temperature)
		assert.Equal(t, 4000, config.OpenAI.MaxTokens)
		assert.Equal(t, 5, config.Intake.BatchLimit)
		assert.Equal(t, "*/5 * * * *", config.Intake.Schedule)
		assert.Equal(t, LLMProviderOpenAI, config.LLM.DefaultProvider)
	})

	t.Run("later file overrides earlier", func(t *testing.T) {
		dir := t.TempDir()

		base := filepath.Join(dir, "base.toml")
		require.NoError(t, os.WriteFile(base, []byte(`
[openai]
model = "gpt-4o"
max_tokens = 2000
`), 0644))

		override := filepath.Join(dir, "override.toml")
		require.NoError(t, os.WriteFile(override, []byte(`
[openai]
model = "sonar-reasoning"
`), 0644))

		config, err := LoadFromFiles(base, override)
		require.NoError(t, err)

		assert.Equal(t, "sonar-reasoning", config.OpenAI.Model)
		assert.Equal(t, 2000, config.OpenAI.MaxTokens)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadFromFiles("/nonexistent/config.toml")
		assert.Error(t, err)
	})

	t.Run("invalid provider rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[llm]
default_provider = "cohere"
`), 0644))

		_, err := LoadFromFiles(path)
		assert.Error(t, err)
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SIGNALSWEEP_OPENAI_MODEL", "sonar")
	t.Setenv("SIGNALSWEEP_INTAKE_BATCH_LIMIT", "10")
	t.Setenv("SIGNALSWEEP_DRIVE_ENABLED", "true")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "sonar", config.OpenAI.Model)
	assert.Equal(t, 10, config.Intake.BatchLimit)
	assert.True(t, config.Drive.Enabled)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, "sheet-abc", 3)
	assert.Equal(t, "sheet-abc", config.Intake.SheetID)
	assert.Equal(t, 3, config.Intake.BatchLimit)

	// Zero values leave config untouched
	ApplyFlagOverrides(config, "", 0)
	assert.Equal(t, "sheet-abc", config.Intake.SheetID)
	assert.Equal(t, 3, config.Intake.BatchLimit)
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"every five minutes", "*/5 * * * *", false},
		{"hourly", "0 * * * *", false},
		{"every minute rejected", "* * * * *", true},
		{"two minute interval rejected", "*/2 * * * *", true},
		{"garbage rejected", "not a schedule", true},
		{"six fields rejected", "0 */5 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("SIGNALSWEEP_AIRTABLE_API_KEY", "pat-env")
		key, err := ResolveAPIKey(t.Context(), nil, "airtable_api_key", "pat-config")
		require.NoError(t, err)
		assert.Equal(t, "pat-env", key)
	})

	t.Run("config fallback", func(t *testing.T) {
		key, err := ResolveAPIKey(t.Context(), nil, "airtable_api_key", "pat-config")
		require.NoError(t, err)
		assert.Equal(t, "pat-config", key)
	})

	t.Run("unresolvable errors", func(t *testing.T) {
		_, err := ResolveAPIKey(t.Context(), nil, "airtable_api_key", "")
		assert.Error(t, err)
	})
}

func TestParseDurationOr(t *testing.T) {
	assert.Equal(t, 3*time.Minute, ParseDurationOr("3m", time.Second))
	assert.Equal(t, time.Second, ParseDurationOr("", time.Second))
	assert.Equal(t, time.Second, ParseDurationOr("soon", time.Second))
}
