package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/config"
	"github.com/gmsas95/medtrack/internal/metrics"
	"github.com/gmsas95/medtrack/internal/skills"
	"github.com/gmsas95/medtrack/internal/skills/medication"
	"github.com/gmsas95/medtrack/internal/store"
)

func RegisterSkills(cfg *config.Config, st *store.Store, registry *skills.Registry, m *metrics.Metrics, logger *zap.Logger) (*medication.MedicationSkill, error) {
	medSkill := medication.NewMedicationSkill(st, medication.Config{
		DefaultDays:        cfg.Report.DefaultDays,
		AllowedDays:        cfg.Report.AllowedDays,
		StreakLookbackDays: cfg.Report.StreakLookbackDays,
	}, m, logger)

	if err := registry.Register(medSkill); err != nil {
		return nil, fmt.Errorf("failed to register medication skill: %w", err)
	}
	return medSkill, nil
}
