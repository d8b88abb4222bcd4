package adherence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

// TimeOfDay is a local clock time
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (the hour may be a single digit)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hs) == 0 || len(hs) > 2 || len(ms) != 2 {
		return TimeOfDay{}, apperrors.InvalidArgument("invalid time of day %q, want HH:MM", s)
	}

	hour, err := strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, apperrors.InvalidArgument("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(ms)
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, apperrors.InvalidArgument("invalid minute in %q", s)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant of t on the calendar day of day, in day's location
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// TimingStatus classifies a dose relative to now
type TimingStatus int

const (
	Upcoming TimingStatus = iota
	DueSoon
	DueNow
	Overdue
)

// Thresholds in minutes relative to the scheduled time
const (
	dueSoonWindow = 30
	dueNowGrace   = 30
)

func (s TimingStatus) String() string {
	switch s {
	case Upcoming:
		return "upcoming"
	case DueSoon:
		return "soon"
	case DueNow:
		return "due"
	case Overdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// DoseTiming is the timing classification of one scheduled dose
type DoseTiming struct {
	Status      TimingStatus `json:"status"`
	MinutesLate int          `json:"minutes_late,omitempty"` // set only when Overdue
}

// Message returns the badge text for the timing
func (d DoseTiming) Message() string {
	switch d.Status {
	case Upcoming:
		return "Upcoming"
	case DueSoon:
		return "Due soon"
	case DueNow:
		return "Due now"
	default:
		return fmt.Sprintf("%dmin overdue", d.MinutesLate)
	}
}

// Color returns the badge color for the timing
func (d DoseTiming) Color() string {
	switch d.Status {
	case Upcoming:
		return "#2196f3"
	case DueSoon:
		return "#ff9800"
	case DueNow:
		return "#f44336"
	default:
		return "#d32f2f"
	}
}

// ClassifyDoseTiming compares now with the scheduled time on now's date.
// Elapsed minutes are floored, so 30 seconds early is already DueSoon.
func ClassifyDoseTiming(scheduled TimeOfDay, now time.Time) DoseTiming {
	diff := int(math.Floor(now.Sub(scheduled.On(now)).Minutes()))

	switch {
	case diff < -dueSoonWindow:
		return DoseTiming{Status: Upcoming}
	case diff < 0:
		return DoseTiming{Status: DueSoon}
	case diff <= dueNowGrace:
		return DoseTiming{Status: DueNow}
	default:
		return DoseTiming{Status: Overdue, MinutesLate: diff}
	}
}
