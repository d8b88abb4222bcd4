package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for medtrack
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Report    ReportConfig    `mapstructure:"report"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Log       LogConfig       `mapstructure:"log"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ReportConfig holds adherence report settings
type ReportConfig struct {
	DefaultDays        int   `mapstructure:"default_days"`
	AllowedDays        []int `mapstructure:"allowed_days"`
	StreakLookbackDays int   `mapstructure:"streak_lookback_days"`
}

// RemindersConfig holds reminder scheduler settings
type RemindersConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = ResolveEnvWithAliases("MEDTRACK_STORAGE_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}
	dataDir = expandPath(dataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "medtrack.db"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medtrack.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// MEDTRACK_REPORT_DEFAULT_DAYS, MEDTRACK_REMINDERS_SCHEDULE, etc.
	v.SetEnvPrefix("MEDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)
	cfg.Storage.SQLitePath = expandPath(cfg.Storage.SQLitePath)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("report.default_days", 30)
	v.SetDefault("report.allowed_days", []int{7, 30, 90})
	v.SetDefault("report.streak_lookback_days", 365)

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.schedule", "@every 1m")

	v.SetDefault("log.level", "info")
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medtrack")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medtrack")
}

// loadEnvOverrides applies the short alias variables viper does not know about
func loadEnvOverrides(cfg *Config) {
	if path := ResolveEnvWithAliases("MEDTRACK_STORAGE_SQLITE_PATH"); path != "" {
		cfg.Storage.SQLitePath = path
	}
	if level := ResolveEnvWithAliases("MEDTRACK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if sched := ResolveEnvWithAliases("MEDTRACK_REMINDERS_SCHEDULE"); sched != "" {
		cfg.Reminders.Schedule = sched
	}

	// viper leaves a comma separated env value as a single element
	if raw := os.Getenv("MEDTRACK_REPORT_ALLOWED_DAYS"); raw != "" {
		var days []int
		for _, part := range strings.Split(raw, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				days = append(days, n)
			}
		}
		if len(days) > 0 {
			cfg.Report.AllowedDays = days
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required")
	}

	if len(cfg.Report.AllowedDays) == 0 {
		return fmt.Errorf("report.allowed_days must not be empty")
	}
	for _, d := range cfg.Report.AllowedDays {
		if d <= 0 {
			return fmt.Errorf("report.allowed_days contains non-positive window %d", d)
		}
	}
	if !slices.Contains(cfg.Report.AllowedDays, cfg.Report.DefaultDays) {
		return fmt.Errorf("report.default_days %d is not one of report.allowed_days %v",
			cfg.Report.DefaultDays, cfg.Report.AllowedDays)
	}
	if cfg.Report.StreakLookbackDays <= 0 {
		return fmt.Errorf("report.streak_lookback_days must be positive")
	}

	if cfg.Reminders.Enabled && strings.TrimSpace(cfg.Reminders.Schedule) == "" {
		return fmt.Errorf("reminders.schedule is required when reminders are enabled")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}

	return nil
}

// IsAllowedWindow reports whether days is one of the configured report windows
func (c *Config) IsAllowedWindow(days int) bool {
	return slices.Contains(c.Report.AllowedDays, days)
}
