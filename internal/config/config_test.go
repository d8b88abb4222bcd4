package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearMedtrackEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEDTRACK_STORAGE_DATA_DIR", "MEDTRACK_DATA_DIR",
		"MEDTRACK_STORAGE_SQLITE_PATH", "MEDTRACK_DB",
		"MEDTRACK_LOG_LEVEL", "LOG_LEVEL",
		"MEDTRACK_REMINDERS_SCHEDULE", "MEDTRACK_REMIND_EVERY",
		"MEDTRACK_REMINDERS_ENABLED",
		"MEDTRACK_REPORT_DEFAULT_DAYS", "MEDTRACK_REPORT_ALLOWED_DAYS",
		"MEDTRACK_REPORT_STREAK_LOOKBACK_DAYS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearMedtrackEnv(t)
	dir := t.TempDir()

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(dir, "medtrack.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, 30, cfg.Report.DefaultDays)
	assert.Equal(t, []int{7, 30, 90}, cfg.Report.AllowedDays)
	assert.Equal(t, 365, cfg.Report.StreakLookbackDays)
	assert.True(t, cfg.Reminders.Enabled)
	assert.Equal(t, "@every 1m", cfg.Reminders.Schedule)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_CreatesDataDir(t *testing.T) {
	clearMedtrackEnv(t)
	dir := filepath.Join(t.TempDir(), "nested", "medtrack")

	_, err := Load("", dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_ConfigFile(t *testing.T) {
	clearMedtrackEnv(t)
	dir := t.TempDir()

	content := `report:
  default_days: 7
reminders:
  enabled: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medtrack.yaml"), []byte(content), 0644))

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Report.DefaultDays)
	assert.False(t, cfg.Reminders.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearMedtrackEnv(t)
	dir := t.TempDir()

	t.Setenv("MEDTRACK_REPORT_DEFAULT_DAYS", "90")
	t.Setenv("MEDTRACK_DB", filepath.Join(dir, "other.db"))
	t.Setenv("MEDTRACK_REMIND_EVERY", "@every 5m")

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Report.DefaultDays)
	assert.Equal(t, filepath.Join(dir, "other.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, "@every 5m", cfg.Reminders.Schedule)
}

func TestLoad_AllowedDaysFromEnv(t *testing.T) {
	clearMedtrackEnv(t)
	t.Setenv("MEDTRACK_REPORT_ALLOWED_DAYS", "14,30")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []int{14, 30}, cfg.Report.AllowedDays)
	assert.True(t, cfg.IsAllowedWindow(14))
	assert.False(t, cfg.IsAllowedWindow(7))
}

func TestLoad_InvalidDefaultDays(t *testing.T) {
	clearMedtrackEnv(t)
	t.Setenv("MEDTRACK_REPORT_DEFAULT_DAYS", "12")

	_, err := Load("", t.TempDir())
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearMedtrackEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report: [unterminated"), 0644))

	_, err := Load(path, dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:   StorageConfig{SQLitePath: "/tmp/medtrack.db"},
			Report:    ReportConfig{DefaultDays: 30, AllowedDays: []int{7, 30, 90}, StreakLookbackDays: 365},
			Reminders: RemindersConfig{Enabled: true, Schedule: "@every 1m"},
			Log:       LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing sqlite path", func(c *Config) { c.Storage.SQLitePath = "" }, true},
		{"empty windows", func(c *Config) { c.Report.AllowedDays = nil }, true},
		{"negative window", func(c *Config) { c.Report.AllowedDays = []int{-7, 30} }, true},
		{"zero lookback", func(c *Config) { c.Report.StreakLookbackDays = 0 }, true},
		{"blank schedule", func(c *Config) { c.Reminders.Schedule = " " }, true},
		{"blank schedule while disabled", func(c *Config) {
			c.Reminders.Enabled = false
			c.Reminders.Schedule = ""
		}, false},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"upper case log level", func(c *Config) { c.Log.Level = "WARN" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
