package medication

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/adherence"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/metrics"
	"github.com/gmsas95/medtrack/internal/security"
	"github.com/gmsas95/medtrack/internal/skills"
	"github.com/gmsas95/medtrack/internal/store"
)

// Wednesday 10 January 2024, 08:10 local
var testNow = time.Date(2024, time.January, 10, 8, 10, 0, 0, time.Local)

func setupTestSkill(t *testing.T) (*MedicationSkill, *store.Store, *metrics.Metrics) {
	t.Helper()
	st, err := store.Open(store.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	skill := NewMedicationSkill(st, Config{}, m, zap.NewNop()).
		WithClock(func() time.Time { return testNow })
	return skill, st, m
}

func addLisinopril(t *testing.T, skill *MedicationSkill, extra map[string]interface{}) string {
	t.Helper()
	args := map[string]interface{}{
		"name":       "Lisinopril",
		"dosage":     "10mg",
		"times":      []interface{}{"08:00", "20:00"},
		"start_date": "2024-01-01",
	}
	for k, v := range extra {
		args[k] = v
	}
	result, err := skill.handleAddMedication(context.Background(), args)
	require.NoError(t, err)
	return result.(map[string]interface{})["id"].(string)
}

func TestMedicationSkill_Tools(t *testing.T) {
	skill, _, _ := setupTestSkill(t)

	var names []string
	for _, tool := range skill.Tools() {
		names = append(names, tool.Name)
		assert.NotNil(t, tool.Handler, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"add_medication", "list_medications", "delete_medication", "mark_taken",
		"set_reminder", "get_reminders", "get_adherence_report", "import_plan",
	}, names)
}

func TestMedicationSkill_AddMedication(t *testing.T) {
	skill, st, _ := setupTestSkill(t)

	id := addLisinopril(t, skill, map[string]interface{}{"notes": "with water"})

	med, err := st.GetMedication(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Lisinopril", med.Name)
	assert.Equal(t, []string{"08:00", "20:00"}, med.Times)
	assert.Equal(t, "2024-01-01", med.StartDate.Format(dateLayout))
	assert.Equal(t, adherence.FrequencyDaily, med.Frequency)
	assert.True(t, med.ReminderEnabled)
}

func TestMedicationSkill_AddMedication_FreeText(t *testing.T) {
	skill, _, _ := setupTestSkill(t)

	result, err := skill.handleAddMedication(context.Background(), map[string]interface{}{
		"name":     "Metformin 500mg",
		"schedule": "twice daily with meals",
	})
	require.NoError(t, err)

	resp := result.(map[string]interface{})
	assert.Equal(t, "Metformin", resp["name"])
	assert.Equal(t, "500mg", resp["dosage"])
	assert.Equal(t, adherence.FrequencyTwice, resp["frequency"])
	assert.Equal(t, []string{"08:00", "20:00"}, resp["times"])
}

func TestMedicationSkill_AddMedication_Invalid(t *testing.T) {
	skill, _, _ := setupTestSkill(t)
	ctx := context.Background()

	_, err := skill.handleAddMedication(ctx, map[string]interface{}{"dosage": "10mg"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = skill.handleAddMedication(ctx, map[string]interface{}{"name": "Aspirin"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument, "dosage is required")

	_, err = skill.handleAddMedication(ctx, map[string]interface{}{
		"name": "Aspirin", "dosage": "81mg", "start_date": "01/02/2024",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = skill.handleAddMedication(ctx, map[string]interface{}{
		"name": "Aspirin", "dosage": "81mg", "start_date": "2024-02-01", "end_date": "2024-01-01",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = skill.handleAddMedication(ctx, map[string]interface{}{"name": "Aspirin\x1b[2J", "dosage": "81mg"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.ErrorIs(t, err, security.ErrControlCharacter)

	_, err = skill.handleAddMedication(ctx, map[string]interface{}{
		"name": "Aspirin", "dosage": "81mg", "notes": strings.Repeat("take care ", 300),
	})
	assert.ErrorIs(t, err, security.ErrInputTooLarge)
}

func TestMedicationSkill_ListMedications_ActiveOnly(t *testing.T) {
	skill, _, m := setupTestSkill(t)

	addLisinopril(t, skill, nil)
	addLisinopril(t, skill, map[string]interface{}{
		"name":     "Amoxicillin",
		"end_date": "2024-01-05",
	})

	result, err := skill.handleListMedications(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.(map[string]interface{})["count"])
	assert.Equal(t, int64(2), m.Snapshot().Medications)

	result, err = skill.handleListMedications(context.Background(), map[string]interface{}{"active_only": true})
	require.NoError(t, err)
	resp := result.(map[string]interface{})
	assert.Equal(t, 1, resp["count"])
	assert.Equal(t, "Lisinopril", resp["medications"].([]adherence.Medication)[0].Name)
}

func TestMedicationSkill_DeleteMedication(t *testing.T) {
	skill, st, _ := setupTestSkill(t)
	ctx := context.Background()

	id := addLisinopril(t, skill, nil)

	result, err := skill.handleDeleteMedication(ctx, map[string]interface{}{"medication_id": id})
	require.NoError(t, err)
	assert.True(t, result.(map[string]interface{})["success"].(bool))

	_, err = st.GetMedication(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrMedicationNotFound)

	_, err = skill.handleDeleteMedication(ctx, map[string]interface{}{"medication_id": id})
	assert.ErrorIs(t, err, apperrors.ErrMedicationNotFound)
}

func TestMedicationSkill_MarkTaken(t *testing.T) {
	skill, st, m := setupTestSkill(t)
	ctx := context.Background()

	id := addLisinopril(t, skill, nil)

	result, err := skill.handleMarkTaken(ctx, map[string]interface{}{
		"medication_id":  id,
		"scheduled_time": "8:00",
	})
	require.NoError(t, err)
	resp := result.(map[string]interface{})
	assert.Equal(t, "08:00", resp["scheduled_time"])
	assert.Equal(t, int64(1), m.Snapshot().DosesTaken)

	events, err := st.ListEvents(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Timestamp.Equal(testNow))
}

func TestMedicationSkill_MarkTaken_Errors(t *testing.T) {
	skill, _, m := setupTestSkill(t)
	ctx := context.Background()

	id := addLisinopril(t, skill, nil)

	_, err := skill.handleMarkTaken(ctx, map[string]interface{}{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = skill.handleMarkTaken(ctx, map[string]interface{}{"medication_id": "missing"})
	assert.ErrorIs(t, err, apperrors.ErrMedicationNotFound)

	_, err = skill.handleMarkTaken(ctx, map[string]interface{}{"medication_id": id, "scheduled_time": "12:00"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument, "slot not in schedule")

	_, err = skill.handleMarkTaken(ctx, map[string]interface{}{"medication_id": id, "time": "yesterday"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	assert.Equal(t, int64(0), m.Snapshot().DosesTaken)
}

func TestMedicationSkill_MarkTaken_ExplicitTime(t *testing.T) {
	skill, st, _ := setupTestSkill(t)
	ctx := context.Background()

	id := addLisinopril(t, skill, nil)

	_, err := skill.handleMarkTaken(ctx, map[string]interface{}{"medication_id": id, "time": "07:45"})
	require.NoError(t, err)
	_, err = skill.handleMarkTaken(ctx, map[string]interface{}{"medication_id": id, "time": "2024-01-08T20:05:00Z"})
	require.NoError(t, err)

	events, err := st.ListEvents(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.Equal(time.Date(2024, time.January, 8, 20, 5, 0, 0, time.UTC)))
	assert.True(t, events[1].Timestamp.Equal(time.Date(2024, time.January, 10, 7, 45, 0, 0, time.Local)))
}

func TestMedicationSkill_GetReminders(t *testing.T) {
	skill, _, _ := setupTestSkill(t)
	ctx := context.Background()

	id := addLisinopril(t, skill, nil)
	addLisinopril(t, skill, map[string]interface{}{
		"name":             "Vitamin D",
		"times":            []interface{}{"12:00"},
		"reminder_enabled": false,
	})

	result, err := skill.handleGetReminders(ctx, map[string]interface{}{})
	require.NoError(t, err)
	resp := result.(map[string]interface{})
	assert.Equal(t, 2, resp["total"])

	views := resp["reminders"].([]ReminderView)
	require.Len(t, views, 2)
	assert.Equal(t, "08:00", views[0].ScheduledTime)
	assert.Equal(t, "due", views[0].Status)
	assert.Equal(t, "Due now", views[0].Message)
	assert.Equal(t, "upcoming", views[1].Status)

	result, err = skill.handleGetReminders(ctx, map[string]interface{}{"due_only": true})
	require.NoError(t, err)
	assert.Len(t, result.(map[string]interface{})["reminders"], 1)

	_, err = skill.handleMarkTaken(ctx, map[string]interface{}{"medication_id": id, "scheduled_time": "08:00"})
	require.NoError(t, err)

	result, err = skill.handleGetReminders(ctx, map[string]interface{}{"due_only": true})
	require.NoError(t, err)
	resp = result.(map[string]interface{})
	assert.Empty(t, resp["reminders"])
	assert.Equal(t, 1, resp["taken"])
	assert.Equal(t, 1, resp["remaining"])
}

func TestMedicationSkill_SetReminder(t *testing.T) {
	skill, st, _ := setupTestSkill(t)
	ctx := context.Background()

	id := addLisinopril(t, skill, nil)

	result, err := skill.handleSetReminder(ctx, map[string]interface{}{"medication_id": id, "enabled": false})
	require.NoError(t, err)
	assert.Equal(t, "Reminders off for Lisinopril", result.(map[string]interface{})["message"])

	med, err := st.GetMedication(ctx, id)
	require.NoError(t, err)
	assert.False(t, med.ReminderEnabled)

	result, err = skill.handleGetReminders(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.(map[string]interface{})["total"])

	_, err = skill.handleSetReminder(ctx, map[string]interface{}{"medication_id": id, "enabled": true})
	require.NoError(t, err)
	result, err = skill.handleGetReminders(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.(map[string]interface{})["total"])

	_, err = skill.handleSetReminder(ctx, map[string]interface{}{"medication_id": id})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = skill.handleSetReminder(ctx, map[string]interface{}{"medication_id": "missing", "enabled": true})
	assert.ErrorIs(t, err, apperrors.ErrMedicationNotFound)
}

func TestMedicationSkill_Report(t *testing.T) {
	skill, st, m := setupTestSkill(t)
	ctx := context.Background()

	id := addLisinopril(t, skill, map[string]interface{}{"start_date": "2024-01-04"})

	// every dose from Jan 4 through Jan 9, plus this morning's
	for day := 4; day <= 9; day++ {
		for _, hour := range []int{8, 20} {
			require.NoError(t, st.RecordTaken(ctx, &adherence.TakenEvent{
				MedicationID: id,
				Timestamp:    time.Date(2024, time.January, day, hour, 2, 0, 0, time.Local),
			}))
		}
	}
	require.NoError(t, st.RecordTaken(ctx, &adherence.TakenEvent{
		MedicationID: id,
		Timestamp:    time.Date(2024, time.January, 10, 8, 1, 0, 0, time.Local),
	}))

	report, err := skill.Report(ctx, 7)
	require.NoError(t, err)

	require.Len(t, report.Daily, 7)
	assert.Equal(t, "Jan 4", report.Daily[0].Label)
	assert.Equal(t, 100, report.Daily[0].Adherence)
	assert.Equal(t, 50, report.Daily[6].Adherence)
	assert.Equal(t, 14, report.Stats.TotalScheduled)
	assert.Equal(t, 13, report.Stats.TotalTaken)
	assert.Equal(t, 6, report.Stats.PerfectDays)
	assert.Equal(t, 1, report.Stats.MissedDoses)
	assert.Equal(t, 6, report.CurrentStreak)
	assert.Equal(t, int64(1), m.Snapshot().ReportsBuilt)
}

func TestMedicationSkill_Report_DefaultAndInvalidWindow(t *testing.T) {
	skill, _, m := setupTestSkill(t)
	ctx := context.Background()

	report, err := skill.Report(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Days)
	assert.False(t, report.HasData())

	_, err = skill.handleGetReport(ctx, map[string]interface{}{"days": float64(12)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = skill.handleGetReport(ctx, map[string]interface{}{"days": "seven"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	assert.Equal(t, int64(1), m.Snapshot().ReportErrors)
}

func TestMedicationSkill_ThroughRegistry(t *testing.T) {
	skill, _, m := setupTestSkill(t)
	registry := skills.NewRegistry(m)
	require.NoError(t, registry.Register(skill))

	args, _ := json.Marshal(map[string]interface{}{
		"name":   "Lisinopril",
		"dosage": "10mg",
		"times":  []string{"08:00"},
	})
	result, err := registry.ExecuteTool(context.Background(), "add_medication", args)
	require.NoError(t, err)
	assert.NotEmpty(t, result.(map[string]interface{})["id"])

	_, err = registry.ExecuteTool(context.Background(), "get_adherence_report", json.RawMessage(`{"days": 90}`))
	require.NoError(t, err)

	_, err = registry.ExecuteTool(context.Background(), "mark_taken", json.RawMessage(`{}`))
	assert.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ToolCallsSuccess)
	assert.Equal(t, int64(1), snap.ToolCallsFailed)
	assert.Equal(t, int64(1), snap.ToolCalls["mark_taken"])
}
