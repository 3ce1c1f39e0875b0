package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/common"
)

func collaboratorTestApp() *App {
	cfg := common.NewDefaultConfig()
	cfg.Intake.SheetID = ""
	cfg.Drive.Enabled = false
	return &App{
		Config: cfg,
		Logger: arbor.NewLogger(),
	}
}

func TestInitCollaborators_NoneConfigured(t *testing.T) {
	a := collaboratorTestApp()

	require.NoError(t, a.initCollaborators(context.Background()))
	assert.Nil(t, a.Intake)
	assert.Nil(t, a.Uploader)
	assert.Nil(t, a.CRM)
}

func TestInitCollaborators_AirtableKeyFromEnv(t *testing.T) {
	a := collaboratorTestApp()
	a.Config.Airtable.Enabled = true
	a.Config.Airtable.BaseID = "appTEST"
	t.Setenv("SIGNALSWEEP_AIRTABLE_API_KEY", "pat-env")

	require.NoError(t, a.initCollaborators(context.Background()))
	assert.NotNil(t, a.CRM)
}

func TestInitCollaborators_AirtableKeyMissing(t *testing.T) {
	a := collaboratorTestApp()
	a.Config.Airtable.Enabled = true
	t.Setenv("SIGNALSWEEP_AIRTABLE_API_KEY", "")

	err := a.initCollaborators(context.Background())
	require.Error(t, err)
	assert.Nil(t, a.CRM)

	// The resolution failure explains where the lookup was attempted
	assert.Contains(t, err.Error(), "airtable sync enabled")
	assert.Contains(t, err.Error(), "airtable_api_key")
}
