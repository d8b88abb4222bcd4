// Package adherence computes medication adherence analytics from snapshots
// of medications and taken-dose events.
//
// Every function in this package is a pure function of its arguments: the
// caller owns the canonical collections and passes them in, nothing is
// cached between calls, and inputs are never mutated.
package adherence

import (
	"time"
)

// Medication represents a medication with its dosing schedule
type Medication struct {
	ID        string `json:"id" yaml:"id,omitempty"`
	Name      string `json:"name" yaml:"name"`
	Dosage    string `json:"dosage" yaml:"dosage"`       // e.g., "10mg", "1 tablet"
	Frequency string `json:"frequency" yaml:"frequency"` // once, twice, three-times, four-times, or free text

	// Times are local clock times ("08:00"). Order is dose order.
	Times []string `json:"times" yaml:"times"`

	// StartDate and EndDate are calendar dates; their clock component is ignored.
	StartDate time.Time  `json:"start_date" yaml:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`

	Notes           string `json:"notes,omitempty" yaml:"notes,omitempty"`
	ReminderEnabled bool   `json:"reminder_enabled" yaml:"reminder_enabled"`
}

// TakenEvent records one consumed dose
type TakenEvent struct {
	ID           string `json:"id"`
	MedicationID string `json:"medication_id"` // not validated against existing medications

	// ScheduledTime is the "HH:MM" slot the dose was marked for, empty when
	// the dose was logged outside a reminder.
	ScheduledTime string    `json:"scheduled_time,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// DayRecord is the adherence of a single calendar day
type DayRecord struct {
	Date      time.Time `json:"-"`
	Label     string    `json:"date"` // "Jan 2"
	Weekday   string    `json:"day"`  // "Mon"
	Scheduled int       `json:"scheduled"`
	Taken     int       `json:"taken"`
	Adherence int       `json:"adherence"` // percentage, 0 when nothing was scheduled
}

// StreakRecord is the running perfect-day streak at a calendar day
type StreakRecord struct {
	Date    time.Time `json:"-"`
	Label   string    `json:"date"`
	Streak  int       `json:"streak"`
	Perfect bool      `json:"perfect"`
}

// MedicationBreakdown is the per-medication adherence within a window
type MedicationBreakdown struct {
	Name      string `json:"name"`
	Taken     int    `json:"taken"`
	Scheduled int    `json:"scheduled"` // times per day × window length
	Adherence int    `json:"adherence"`
	Color     string `json:"color"`
}

// OverallStats aggregates a daily adherence series
type OverallStats struct {
	TotalScheduled   int `json:"total_scheduled"`
	TotalTaken       int `json:"total_taken"`
	AverageAdherence int `json:"average_adherence"`
	PerfectDays      int `json:"perfect_days"`
	MissedDoses      int `json:"missed_doses"`
}

// IsActiveOn reports whether the medication is scheduled on day. An open
// ended medication stays active through today.
func (m Medication) IsActiveOn(day, today time.Time) bool {
	loc := day.Location()
	d := civilDate(day, loc)
	start := civilDate(m.StartDate, loc)
	end := civilDate(today, loc)
	if m.EndDate != nil {
		end = civilDate(*m.EndDate, loc)
	}
	return !d.Before(start) && !d.After(end)
}

// DosesPerDay returns the number of scheduled doses per active day
func (m Medication) DosesPerDay() int {
	return len(m.Times)
}

// civilDate keeps the calendar date of t as written and places it at
// midnight in loc.
func civilDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	return dayKey{year: t.Year(), month: t.Month(), day: t.Day()}
}

// ratioPercent rounds taken/scheduled×100 half up using integer arithmetic
func ratioPercent(taken, scheduled int) int {
	if scheduled <= 0 {
		return 0
	}
	return (200*taken + scheduled) / (2 * scheduled)
}

// percent is ratioPercent capped at 100; duplicate events can push a day's
// taken count past scheduled.
func percent(taken, scheduled int) int {
	return min(ratioPercent(taken, scheduled), 100)
}
