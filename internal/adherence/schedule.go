package adherence

import (
	"sort"
	"strings"
	"time"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

// Frequency presets
const (
	FrequencyOnce       = "once"
	FrequencyTwice      = "twice"
	FrequencyThreeTimes = "three-times"
	FrequencyFourTimes  = "four-times"
	FrequencyDaily      = "daily"
)

// DefaultTimes returns the preset dose times for a frequency
func DefaultTimes(frequency string) []string {
	switch frequency {
	case FrequencyTwice:
		return []string{"08:00", "20:00"}
	case FrequencyThreeTimes:
		return []string{"08:00", "14:00", "20:00"}
	case FrequencyFourTimes:
		return []string{"08:00", "12:00", "16:00", "20:00"}
	default:
		return []string{"08:00"}
	}
}

// Normalize trims free-text fields and canonicalises times to HH:MM.
// Unparsable times are left as-is for Validate to report.
func (m *Medication) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Dosage = strings.TrimSpace(m.Dosage)
	m.Notes = strings.TrimSpace(m.Notes)
	m.Frequency = strings.TrimSpace(m.Frequency)
	if m.Frequency == "" {
		m.Frequency = FrequencyDaily
	}
	for i, s := range m.Times {
		if t, err := ParseTimeOfDay(s); err == nil {
			m.Times[i] = t.String()
		}
	}
}

// Validate checks the medication invariants
func (m Medication) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return apperrors.InvalidArgument("medication name is required")
	}
	if strings.TrimSpace(m.Dosage) == "" {
		return apperrors.InvalidArgument("dosage is required for %s", m.Name)
	}
	if len(m.Times) == 0 {
		return apperrors.InvalidArgument("%s needs at least one scheduled time", m.Name)
	}
	for _, s := range m.Times {
		if _, err := ParseTimeOfDay(s); err != nil {
			return err
		}
	}
	if m.EndDate != nil && civilDate(*m.EndDate, time.UTC).Before(civilDate(m.StartDate, time.UTC)) {
		return apperrors.InvalidArgument("end date of %s is before its start date", m.Name)
	}
	return nil
}

// Reminder is one scheduled dose of today
type Reminder struct {
	Medication    Medication `json:"medication"`
	ScheduledTime TimeOfDay  `json:"-"`
	Timing        DoseTiming `json:"timing"`
	Taken         bool       `json:"taken"`
}

// IsOverdue reports whether the dose is past its grace period
func (r Reminder) IsOverdue() bool {
	return r.Timing.Status == Overdue
}

// IsDue reports whether the dose should be surfaced to the user now
func (r Reminder) IsDue() bool {
	return !r.Taken && (r.Timing.Status == DueNow || r.Timing.Status == Overdue)
}

// TodaysReminders lists every scheduled dose of today for medications with
// reminders enabled, ordered by time then medication order. A dose counts as
// taken when an event for the same medication and slot was recorded today.
func TodaysReminders(meds []Medication, events []TakenEvent, now time.Time) []Reminder {
	loc := now.Location()
	today := civilDate(now, loc)
	todayKey := keyOf(today)

	type slot struct {
		medID string
		time  TimeOfDay
	}
	taken := make(map[slot]bool)
	for _, ev := range events {
		if ev.ScheduledTime == "" || keyOf(ev.Timestamp.In(loc)) != todayKey {
			continue
		}
		t, err := ParseTimeOfDay(ev.ScheduledTime)
		if err != nil {
			continue
		}
		taken[slot{medID: ev.MedicationID, time: t}] = true
	}

	var reminders []Reminder
	for _, med := range meds {
		if !med.ReminderEnabled || !med.IsActiveOn(today, today) {
			continue
		}
		for _, s := range med.Times {
			t, err := ParseTimeOfDay(s)
			if err != nil {
				continue
			}
			reminders = append(reminders, Reminder{
				Medication:    med,
				ScheduledTime: t,
				Timing:        ClassifyDoseTiming(t, now),
				Taken:         taken[slot{medID: med.ID, time: t}],
			})
		}
	}

	sort.SliceStable(reminders, func(i, j int) bool {
		a, b := reminders[i].ScheduledTime, reminders[j].ScheduledTime
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		return a.Minute < b.Minute
	})

	return reminders
}
