package adherence

import (
	"time"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

// Report ranges offered to users
var SupportedWindows = []int{7, 30, 90}

// DateWindow is an ordered run of calendar days, oldest first
type DateWindow struct {
	Dates []time.Time // midnight of each day in the reference location
	Today time.Time   // midnight of the reference day
}

// BuildDateWindow returns the days calendar dates ending at now's date.
// Day boundaries follow now's location.
func BuildDateWindow(days int, now time.Time) (DateWindow, error) {
	if days <= 0 {
		return DateWindow{}, apperrors.InvalidArgument("window size must be positive, got %d", days)
	}

	today := civilDate(now, now.Location())
	dates := make([]time.Time, days)
	for i := 0; i < days; i++ {
		dates[i] = today.AddDate(0, 0, i-(days-1))
	}

	return DateWindow{Dates: dates, Today: today}, nil
}

// Len returns the number of days in the window
func (w DateWindow) Len() int {
	return len(w.Dates)
}

// Location returns the location day boundaries are computed in
func (w DateWindow) Location() *time.Location {
	if w.Today.IsZero() {
		return time.Local
	}
	return w.Today.Location()
}

// Contains reports whether the instant t falls on one of the window's days
func (w DateWindow) Contains(t time.Time) bool {
	if len(w.Dates) == 0 {
		return false
	}
	d := civilDate(t.In(w.Location()), w.Location())
	return !d.Before(w.Dates[0]) && !d.After(w.Dates[len(w.Dates)-1])
}
