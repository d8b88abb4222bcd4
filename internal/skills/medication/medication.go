package medication

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/adherence"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/metrics"
	"github.com/gmsas95/medtrack/internal/security"
	"github.com/gmsas95/medtrack/internal/skills"
	"github.com/gmsas95/medtrack/internal/store"
)

const dateLayout = "2006-01-02"

// Config holds report settings for the medication skill
type Config struct {
	DefaultDays        int
	AllowedDays        []int
	StreakLookbackDays int
}

// MedicationSkill exposes medication tracking and adherence reports as tools
type MedicationSkill struct {
	*skills.BaseSkill
	store   *store.Store
	parser  *Parser
	metrics *metrics.Metrics
	logger  *zap.Logger
	config  Config
	now     func() time.Time
}

// NewMedicationSkill creates a new medication skill
func NewMedicationSkill(st *store.Store, config Config, m *metrics.Metrics, logger *zap.Logger) *MedicationSkill {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Default()
	}
	if config.DefaultDays <= 0 {
		config.DefaultDays = 30
	}
	if len(config.AllowedDays) == 0 {
		config.AllowedDays = adherence.SupportedWindows
	}
	if config.StreakLookbackDays <= 0 {
		config.StreakLookbackDays = adherence.DefaultStreakLookbackDays
	}

	skill := &MedicationSkill{
		BaseSkill: skills.NewBaseSkill("medication", "Medication tracking and adherence", "1.0.0"),
		store:     st,
		parser:    NewParser(),
		metrics:   m,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}

	skill.registerTools()
	return skill
}

// WithClock replaces the time source used for "now"
func (s *MedicationSkill) WithClock(now func() time.Time) *MedicationSkill {
	s.now = now
	return s
}

func (s *MedicationSkill) registerTools() {
	tools := []skills.Tool{
		{
			Name:        "add_medication",
			Description: "Add a medication with its dosing schedule. Examples: 'Lisinopril 10mg daily at 8am', 'Metformin 500mg twice daily with meals'",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Medication name, optionally with dosage (e.g., 'Lisinopril 10mg')",
					},
					"dosage": map[string]interface{}{
						"type":        "string",
						"description": "Dosage text (e.g., '10mg', '1 tablet')",
					},
					"frequency": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"once", "twice", "three-times", "four-times", "daily"},
						"description": "Frequency preset, used for default times when none are given",
					},
					"times": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Dose times as HH:MM",
					},
					"schedule": map[string]interface{}{
						"type":        "string",
						"description": "Free-text schedule (e.g., 'twice daily at 8am and 8pm')",
					},
					"start_date": map[string]interface{}{
						"type":        "string",
						"description": "First day (YYYY-MM-DD, default: today)",
					},
					"end_date": map[string]interface{}{
						"type":        "string",
						"description": "Last day (YYYY-MM-DD, default: ongoing)",
					},
					"notes": map[string]interface{}{
						"type":        "string",
						"description": "Additional instructions or notes",
					},
					"reminder_enabled": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether to send reminders (default: true)",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "list_medications",
			Description: "List all medications",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"active_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only show medications active today",
					},
				},
			},
		},
		{
			Name:        "delete_medication",
			Description: "Delete a medication. Its dose history is kept.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"medication_id": map[string]interface{}{
						"type":        "string",
						"description": "ID of the medication",
					},
				},
				"required": []string{"medication_id"},
			},
		},
		{
			Name:        "mark_taken",
			Description: "Record that a dose was taken",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"medication_id": map[string]interface{}{
						"type":        "string",
						"description": "ID of the medication",
					},
					"scheduled_time": map[string]interface{}{
						"type":        "string",
						"description": "The HH:MM dose slot this intake is for",
					},
					"time": map[string]interface{}{
						"type":        "string",
						"description": "When it was taken, RFC 3339 or HH:MM today (default: now)",
					},
				},
				"required": []string{"medication_id"},
			},
		},
		{
			Name:        "set_reminder",
			Description: "Turn reminders on or off for a medication",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"medication_id": map[string]interface{}{
						"type":        "string",
						"description": "ID of the medication",
					},
					"enabled": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether reminders fire for this medication",
					},
				},
				"required": []string{"medication_id", "enabled"},
			},
		},
		{
			Name:        "get_reminders",
			Description: "Get today's doses with their timing status",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"due_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only untaken doses that are due or overdue",
					},
				},
			},
		},
		{
			Name:        "get_adherence_report",
			Description: "Get adherence analytics, streaks, insights and achievements for a window of days",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"days": map[string]interface{}{
						"type":        "integer",
						"description": "Window length in days (7, 30 or 90)",
					},
				},
			},
		},
		{
			Name:        "import_plan",
			Description: "Import medications from a YAML plan",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to a YAML plan file",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Inline YAML plan",
					},
				},
			},
		},
	}

	for _, tool := range tools {
		tool.Handler = s.handleTool(tool.Name)
		s.AddTool(tool)
	}
}

func (s *MedicationSkill) handleTool(name string) skills.ToolHandler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		switch name {
		case "add_medication":
			return s.handleAddMedication(ctx, args)
		case "list_medications":
			return s.handleListMedications(ctx, args)
		case "delete_medication":
			return s.handleDeleteMedication(ctx, args)
		case "mark_taken":
			return s.handleMarkTaken(ctx, args)
		case "set_reminder":
			return s.handleSetReminder(ctx, args)
		case "get_reminders":
			return s.handleGetReminders(ctx, args)
		case "get_adherence_report":
			return s.handleGetReport(ctx, args)
		case "import_plan":
			return s.handleImportPlan(ctx, args)
		default:
			return nil, apperrors.New(apperrors.ErrToolNotFound.Code, fmt.Sprintf("unknown tool: %s", name))
		}
	}
}

func getStringArg(args map[string]interface{}, key string, defaultVal string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return defaultVal
}

func getBoolArg(args map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return defaultVal
}

// getIntArg accepts JSON numbers (float64) as well as Go ints
func getIntArg(args map[string]interface{}, key string, defaultVal int) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return defaultVal, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, apperrors.InvalidArgument("%s must be a whole number", key)
		}
		return int(v), nil
	default:
		return 0, apperrors.InvalidArgument("%s must be a number", key)
	}
}

func getStringSliceArg(args map[string]interface{}, key string) ([]string, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, apperrors.InvalidArgument("%s must be a list of strings", key)
			}
			out = append(out, str)
		}
		return out, nil
	case string:
		return strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }), nil
	default:
		return nil, apperrors.InvalidArgument("%s must be a list of strings", key)
	}
}

func (s *MedicationSkill) parseDate(value string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, value, s.now().Location())
	if err != nil {
		return time.Time{}, apperrors.InvalidArgument("invalid date %q, expected YYYY-MM-DD", value)
	}
	return d, nil
}

var textFields = []struct {
	key       string
	validator *security.InputValidator
}{
	{"name", security.NameValidator},
	{"dosage", security.DosageValidator},
	{"schedule", security.NameValidator},
	{"notes", security.NotesValidator},
}

func validateText(args map[string]interface{}) error {
	for _, f := range textFields {
		if err := security.ValidateField(f.validator, f.key, getStringArg(args, f.key, "")); err != nil {
			return apperrors.Wrap(err, apperrors.ErrInvalidArgument.Code, "invalid medication")
		}
	}
	return nil
}

// buildMedication resolves name, dosage and times from structured arguments,
// falling back to the free-text parser and then to the frequency preset
func (s *MedicationSkill) buildMedication(args map[string]interface{}) (*adherence.Medication, error) {
	name := getStringArg(args, "name", "")
	if name == "" {
		return nil, apperrors.InvalidArgument("medication name is required")
	}
	if err := validateText(args); err != nil {
		return nil, err
	}

	times, err := getStringSliceArg(args, "times")
	if err != nil {
		return nil, err
	}

	med := &adherence.Medication{
		Name:            name,
		Dosage:          getStringArg(args, "dosage", ""),
		Frequency:       getStringArg(args, "frequency", ""),
		Times:           times,
		Notes:           getStringArg(args, "notes", ""),
		ReminderEnabled: getBoolArg(args, "reminder_enabled", true),
	}

	schedule := getStringArg(args, "schedule", "")
	if med.Dosage == "" || schedule != "" {
		parsed := s.parser.ParseMedication(strings.TrimSpace(name + " " + schedule))
		if med.Dosage == "" && parsed.Dosage != "" {
			med.Name, med.Dosage = parsed.Name, parsed.Dosage
		}
		if med.Frequency == "" {
			med.Frequency = parsed.Frequency
		}
		if len(med.Times) == 0 {
			med.Times = parsed.Times
		}
		if parsed.WithFood && !strings.Contains(strings.ToLower(med.Notes), "food") {
			med.Notes = strings.TrimSpace(med.Notes + " Take with food.")
		}
	}

	if med.Frequency == "" {
		med.Frequency = adherence.FrequencyDaily
	}
	if len(med.Times) == 0 {
		med.Times = adherence.DefaultTimes(med.Frequency)
	}

	if v := getStringArg(args, "start_date", ""); v != "" {
		if med.StartDate, err = s.parseDate(v); err != nil {
			return nil, err
		}
	} else {
		med.StartDate = s.now()
	}
	if v := getStringArg(args, "end_date", ""); v != "" {
		end, err := s.parseDate(v)
		if err != nil {
			return nil, err
		}
		med.EndDate = &end
	}

	return med, nil
}

func (s *MedicationSkill) handleAddMedication(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	med, err := s.buildMedication(args)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateMedication(ctx, med); err != nil {
		return nil, err
	}

	s.logger.Info("Medication added",
		zap.String("medication_id", med.ID),
		zap.String("name", med.Name),
		zap.Strings("times", med.Times),
	)

	return map[string]interface{}{
		"id":        med.ID,
		"name":      med.Name,
		"dosage":    med.Dosage,
		"frequency": med.Frequency,
		"times":     med.Times,
		"message":   fmt.Sprintf("Added %s to your medications", med.Name),
	}, nil
}

func (s *MedicationSkill) handleListMedications(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	activeOnly := getBoolArg(args, "active_only", false)

	meds, err := s.store.ListMedications(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetMedicationCount(len(meds))

	now := s.now()
	result := make([]adherence.Medication, 0, len(meds))
	for _, med := range meds {
		if activeOnly && !med.IsActiveOn(now, now) {
			continue
		}
		result = append(result, med)
	}

	return map[string]interface{}{
		"count":       len(result),
		"medications": result,
	}, nil
}

func (s *MedicationSkill) handleDeleteMedication(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	medicationID := getStringArg(args, "medication_id", "")
	if medicationID == "" {
		return nil, apperrors.InvalidArgument("medication_id is required")
	}

	med, err := s.store.GetMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteMedication(ctx, medicationID); err != nil {
		return nil, err
	}

	s.logger.Info("Medication deleted", zap.String("medication_id", medicationID))

	return map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Deleted %s", med.Name),
	}, nil
}

func (s *MedicationSkill) handleSetReminder(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	medicationID := getStringArg(args, "medication_id", "")
	if medicationID == "" {
		return nil, apperrors.InvalidArgument("medication_id is required")
	}
	enabled, ok := args["enabled"].(bool)
	if !ok {
		return nil, apperrors.InvalidArgument("enabled must be true or false")
	}

	med, err := s.store.GetMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetReminderEnabled(ctx, medicationID, enabled); err != nil {
		return nil, err
	}

	state := "off"
	if enabled {
		state = "on"
	}
	s.logger.Info("Reminders toggled",
		zap.String("medication_id", medicationID),
		zap.Bool("enabled", enabled),
	)

	return map[string]interface{}{
		"success": true,
		"enabled": enabled,
		"message": fmt.Sprintf("Reminders %s for %s", state, med.Name),
	}, nil
}

// parseTakenAt accepts an RFC 3339 instant or an HH:MM clock time today
func (s *MedicationSkill) parseTakenAt(value string) (time.Time, error) {
	now := s.now()
	if value == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	tod, err := adherence.ParseTimeOfDay(value)
	if err != nil {
		return time.Time{}, apperrors.InvalidArgument("invalid time %q, expected RFC 3339 or HH:MM", value)
	}
	return tod.On(now), nil
}

func (s *MedicationSkill) handleMarkTaken(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	medicationID := getStringArg(args, "medication_id", "")
	if medicationID == "" {
		return nil, apperrors.InvalidArgument("medication_id is required")
	}

	med, err := s.store.GetMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}

	takenAt, err := s.parseTakenAt(getStringArg(args, "time", ""))
	if err != nil {
		return nil, err
	}

	slot := getStringArg(args, "scheduled_time", "")
	if slot != "" {
		tod, err := adherence.ParseTimeOfDay(slot)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(med.Times, tod.String()) {
			return nil, apperrors.InvalidArgument("%s is not scheduled at %s", med.Name, tod)
		}
	}

	ev := &adherence.TakenEvent{
		MedicationID:  med.ID,
		ScheduledTime: slot,
		Timestamp:     takenAt,
	}
	if err := s.store.RecordTaken(ctx, ev); err != nil {
		return nil, err
	}
	s.metrics.RecordDoseTaken()

	s.logger.Info("Dose taken",
		zap.String("medication_id", med.ID),
		zap.String("slot", ev.ScheduledTime),
		zap.Time("taken_at", ev.Timestamp),
	)

	return map[string]interface{}{
		"success":        true,
		"event_id":       ev.ID,
		"medication_id":  med.ID,
		"scheduled_time": ev.ScheduledTime,
		"taken_at":       ev.Timestamp.Format(time.RFC3339),
		"message":        fmt.Sprintf("Marked %s %s as taken", med.Name, med.Dosage),
	}, nil
}

// ReminderView is the tool-facing shape of a reminder
type ReminderView struct {
	MedicationID  string `json:"medication_id"`
	Name          string `json:"name"`
	Dosage        string `json:"dosage"`
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	Color         string `json:"color"`
	Taken         bool   `json:"taken"`
}

func toReminderView(r adherence.Reminder) ReminderView {
	return ReminderView{
		MedicationID:  r.Medication.ID,
		Name:          r.Medication.Name,
		Dosage:        r.Medication.Dosage,
		ScheduledTime: r.ScheduledTime.String(),
		Status:        r.Timing.Status.String(),
		Message:       r.Timing.Message(),
		Color:         r.Timing.Color(),
		Taken:         r.Taken,
	}
}

func (s *MedicationSkill) handleGetReminders(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	dueOnly := getBoolArg(args, "due_only", false)

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reminders := adherence.TodaysReminders(snap.Medications, snap.Events, now)

	views := make([]ReminderView, 0, len(reminders))
	taken := 0
	for _, r := range reminders {
		if r.Taken {
			taken++
		}
		if dueOnly && !r.IsDue() {
			continue
		}
		views = append(views, toReminderView(r))
	}

	return map[string]interface{}{
		"date":      now.Format("Monday, Jan 2"),
		"total":     len(reminders),
		"taken":     taken,
		"remaining": len(reminders) - taken,
		"reminders": views,
	}, nil
}

// Report builds the adherence report for a window of days. Zero days means
// the configured default.
func (s *MedicationSkill) Report(ctx context.Context, days int) (*adherence.Report, error) {
	if days == 0 {
		days = s.config.DefaultDays
	}
	if !slices.Contains(s.config.AllowedDays, days) {
		err := apperrors.InvalidArgument("unsupported report window %d, choose one of %v", days, s.config.AllowedDays)
		s.metrics.RecordReport(0, err)
		return nil, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		s.metrics.RecordReport(0, err)
		return nil, err
	}
	s.metrics.SetMedicationCount(len(snap.Medications))

	start := time.Now()
	report, err := adherence.BuildReport(snap.Medications, snap.Events, days, s.now(), s.config.StreakLookbackDays)
	s.metrics.RecordReport(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Adherence report built",
		zap.Int("days", days),
		zap.Int("average_adherence", report.Stats.AverageAdherence),
		zap.Int("current_streak", report.CurrentStreak),
	)
	return report, nil
}

func (s *MedicationSkill) handleGetReport(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	days, err := getIntArg(args, "days", 0)
	if err != nil {
		return nil, err
	}
	return s.Report(ctx, days)
}
