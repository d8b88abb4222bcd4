package medication

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gmsas95/medtrack/internal/adherence"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/security"
)

// Plan is a YAML medication plan, typically handed out by a clinic:
//
//	medications:
//	  - name: Lisinopril
//	    dosage: 10mg
//	    times: ["08:00"]
//	    start_date: 2024-01-01
//	  - name: Metformin 500mg
//	    schedule: twice daily with meals
type Plan struct {
	Medications []PlanEntry `yaml:"medications"`
}

// PlanEntry mirrors the add_medication arguments
type PlanEntry struct {
	Name            string   `yaml:"name"`
	Dosage          string   `yaml:"dosage,omitempty"`
	Frequency       string   `yaml:"frequency,omitempty"`
	Times           []string `yaml:"times,omitempty"`
	Schedule        string   `yaml:"schedule,omitempty"`
	StartDate       string   `yaml:"start_date,omitempty"`
	EndDate         string   `yaml:"end_date,omitempty"`
	Notes           string   `yaml:"notes,omitempty"`
	ReminderEnabled *bool    `yaml:"reminder_enabled,omitempty"`
}

func (e PlanEntry) args() map[string]interface{} {
	args := map[string]interface{}{
		"name":       e.Name,
		"dosage":     e.Dosage,
		"frequency":  e.Frequency,
		"schedule":   e.Schedule,
		"start_date": e.StartDate,
		"end_date":   e.EndDate,
		"notes":      e.Notes,
	}
	if len(e.Times) > 0 {
		args["times"] = e.Times
	}
	if e.ReminderEnabled != nil {
		args["reminder_enabled"] = *e.ReminderEnabled
	}
	return args
}

// ParsePlan decodes a plan, rejecting unknown fields
func ParsePlan(data []byte) (*Plan, error) {
	if err := security.PlanValidator.Validate(string(data)); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidArgument.Code, "invalid medication plan")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidArgument.Code, "invalid medication plan")
	}
	if len(plan.Medications) == 0 {
		return nil, apperrors.InvalidArgument("medication plan has no medications")
	}
	return &plan, nil
}

// ImportPlan validates every entry before storing any of them, so a plan
// with one bad entry imports nothing
func (s *MedicationSkill) ImportPlan(ctx context.Context, plan *Plan) ([]adherence.Medication, error) {
	meds := make([]*adherence.Medication, 0, len(plan.Medications))
	for i, entry := range plan.Medications {
		med, err := s.buildMedication(entry.args())
		if err != nil {
			return nil, fmt.Errorf("plan entry %d: %w", i+1, err)
		}
		check := *med
		check.Times = append([]string(nil), med.Times...)
		check.Normalize()
		if err := check.Validate(); err != nil {
			return nil, fmt.Errorf("plan entry %d: %w", i+1, err)
		}
		meds = append(meds, med)
	}

	imported := make([]adherence.Medication, 0, len(meds))
	for _, med := range meds {
		if err := s.store.CreateMedication(ctx, med); err != nil {
			return imported, err
		}
		imported = append(imported, *med)
	}

	s.logger.Info("Medication plan imported", zap.Int("count", len(imported)))
	return imported, nil
}

func (s *MedicationSkill) handleImportPlan(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	path := getStringArg(args, "path", "")
	content := getStringArg(args, "content", "")

	var data []byte
	switch {
	case content != "":
		data = []byte(content)
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, fmt.Sprintf("failed to read plan %s", path))
		}
		data = b
	default:
		return nil, apperrors.InvalidArgument("either path or content is required")
	}

	plan, err := ParsePlan(data)
	if err != nil {
		return nil, err
	}

	imported, err := s.ImportPlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(imported))
	for i, med := range imported {
		names[i] = med.Name
	}

	return map[string]interface{}{
		"imported":    len(imported),
		"medications": names,
		"message":     fmt.Sprintf("Imported %d medications", len(imported)),
	}, nil
}
