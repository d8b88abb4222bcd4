package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmsas95/medtrack/internal/adherence"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{
			name:    "create app with version",
			version: "1.0.0",
		},
		{
			name:    "create app with dev version",
			version: "dev",
		},
		{
			name:    "create app with empty version",
			version: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := New(nil, nil, nil, nil, tt.version)
			if app == nil {
				t.Fatal("expected app to be created, got nil")
			}
			if app.Version != tt.version {
				t.Errorf("expected version %q, got %q", tt.version, app.Version)
			}
		})
	}
}

func TestSetSkillsRegistry(t *testing.T) {
	app := New(nil, nil, nil, nil, "test")

	app.SetSkillsRegistry(nil)
	if app.SkillsRegistry != nil {
		t.Error("expected skills registry to be nil")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEDTRACK_DATA_DIR", "MEDTRACK_STORAGE_DATA_DIR",
		"MEDTRACK_DB", "MEDTRACK_STORAGE_SQLITE_PATH",
		"MEDTRACK_LOG_LEVEL", "LOG_LEVEL",
		"MEDTRACK_REMINDERS_SCHEDULE", "MEDTRACK_REMIND_EVERY",
		"MEDTRACK_REMINDERS_ENABLED",
		"MEDTRACK_REPORT_DEFAULT_DAYS", "MEDTRACK_REPORT_ALLOWED_DAYS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("MEDTRACK_LOG_LEVEL", "error")
}

func setupApp(t *testing.T) *App {
	t.Helper()
	clearEnv(t)

	application, err := Init("", t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(application.Close)
	return application
}

func TestInit(t *testing.T) {
	application := setupApp(t)

	assert.Equal(t, "test", application.Version)
	assert.NotNil(t, application.Store)
	assert.NotNil(t, application.Medication)
	skillList := application.SkillsRegistry.ListSkills()
	require.Len(t, skillList, 1)
	assert.Equal(t, "medication", skillList[0].Name())

	_, ok := application.SkillsRegistry.GetTool("get_adherence_report")
	assert.True(t, ok)
}

func TestInit_InvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDTRACK_REPORT_DEFAULT_DAYS", "45")

	_, err := Init("", t.TempDir(), "test")
	assert.Error(t, err)
}

func TestApp_CallAndReport(t *testing.T) {
	application := setupApp(t)
	ctx := context.Background()

	_, err := application.Call(ctx, "add_medication", map[string]interface{}{
		"name":   "Lisinopril",
		"dosage": "10mg",
		"times":  []interface{}{"08:00"},
	})
	require.NoError(t, err)

	report, err := application.Report(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Days)

	_, err = application.Report(ctx, 14)
	assert.Error(t, err)

	snap := application.Metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ToolCalls["add_medication"])
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("WARN")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("chatty")
	assert.Error(t, err)
}

func TestRunReminders_Disabled(t *testing.T) {
	application := setupApp(t)
	application.Config.Reminders.Enabled = false

	err := application.RunReminders(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunReminders_StopsOnCancel(t *testing.T) {
	application := setupApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	notify := func(context.Context, adherence.Reminder) error { return nil }
	require.NoError(t, application.RunReminders(ctx, notify))
	assert.False(t, application.CronRunner.IsRunning())
}
