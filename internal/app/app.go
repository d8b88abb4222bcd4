package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/config"
	"github.com/gmsas95/medtrack/internal/cron"
	"github.com/gmsas95/medtrack/internal/metrics"
	"github.com/gmsas95/medtrack/internal/skills"
	"github.com/gmsas95/medtrack/internal/skills/medication"
	"github.com/gmsas95/medtrack/internal/store"
)

var nowFunc = time.Now

type App struct {
	Config         *config.Config
	Store          *store.Store
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	SkillsRegistry *skills.Registry
	Medication     *medication.MedicationSkill
	CronRunner     *cron.Runner
	Version        string
}

func New(cfg *config.Config, st *store.Store, logger *zap.Logger, m *metrics.Metrics, version string) *App {
	return &App{
		Config:  cfg,
		Store:   st,
		Logger:  logger,
		Metrics: m,
		Version: version,
	}
}

func (app *App) SetSkillsRegistry(registry *skills.Registry) {
	app.SkillsRegistry = registry
}

// Init loads configuration and wires the store, skills and metrics
func Init(configPath, dataDir, version string) (*App, error) {
	cfg, err := config.Load(configPath, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	st, err := store.Open(cfg.Storage.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	m := metrics.New()
	registry := skills.NewRegistry(m)

	application := New(cfg, st, logger, m, version)
	application.SetSkillsRegistry(registry)

	medSkill, err := RegisterSkills(cfg, st, registry, m, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	application.Medication = medSkill

	logger.Debug("medtrack initialized",
		zap.String("version", version),
		zap.String("database", cfg.Storage.SQLitePath),
	)
	return application, nil
}

// NewLogger builds a development logger at the given level
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// Close flushes the logger and closes the store
func (app *App) Close() {
	if app.CronRunner != nil {
		app.CronRunner.Stop()
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to close store", zap.Error(err))
		}
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}

// Call executes a skill tool by name
func (app *App) Call(ctx context.Context, tool string, args map[string]interface{}) (interface{}, error) {
	return app.SkillsRegistry.Execute(ctx, tool, args)
}

// NewCronRunner builds the reminder runner from configuration
func (app *App) NewCronRunner(notify cron.Notifier) (*cron.Runner, error) {
	runner, err := cron.NewRunner(cron.Config{Schedule: app.Config.Reminders.Schedule}, app.Store, notify, app.Metrics, app.Logger)
	if err != nil {
		return nil, err
	}
	app.CronRunner = runner
	return runner, nil
}

// RunReminders runs an immediate reminder check and then keeps checking on
// the configured schedule until ctx is cancelled or SIGINT/SIGTERM arrives
func (app *App) RunReminders(ctx context.Context, notify cron.Notifier) error {
	if !app.Config.Reminders.Enabled {
		return fmt.Errorf("reminders are disabled (reminders.enabled=false)")
	}

	runner, err := app.NewCronRunner(notify)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Tick(ctx, nowFunc()); err != nil {
		app.Logger.Error("Initial reminder check failed", zap.Error(err))
	}

	if err := runner.Start(ctx); err != nil {
		return err
	}

	app.Logger.Info("Reminder runner started",
		zap.String("schedule", app.Config.Reminders.Schedule),
		zap.Time("next_check", runner.Next(nowFunc())),
	)

	<-ctx.Done()

	app.Logger.Info("Shutting down...")
	runner.Stop()
	return nil
}

// Report builds the adherence report for days, falling back to the configured default
func (app *App) Report(ctx context.Context, days int) (*adherence.Report, error) {
	return app.Medication.Report(ctx, days)
}
