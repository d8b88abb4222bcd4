package adherence

import (
	"time"
	"unicode/utf8"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

// Palette used for per-medication display colors
var Palette = []string{"#667eea", "#764ba2", "#4ecdc4", "#44a08d", "#fd746c", "#ff9068", "#4caf50", "#8bc34a"}

// tally holds scheduled and taken counts per window day
type tally struct {
	scheduled []int
	taken     []int
}

func countWindow(meds []Medication, events []TakenEvent, window DateWindow) tally {
	loc := window.Location()
	t := tally{
		scheduled: make([]int, window.Len()),
		taken:     make([]int, window.Len()),
	}

	index := make(map[dayKey]int, window.Len())
	for i, d := range window.Dates {
		index[keyOf(d)] = i
		for _, med := range meds {
			if med.IsActiveOn(d, window.Today) {
				t.scheduled[i] += med.DosesPerDay()
			}
		}
	}

	for _, ev := range events {
		if i, ok := index[keyOf(ev.Timestamp.In(loc))]; ok {
			t.taken[i]++
		}
	}

	return t
}

func isPerfect(scheduled, taken int) bool {
	return scheduled > 0 && taken >= scheduled
}

// ComputeDailyAdherence returns one DayRecord per window day, in window order
func ComputeDailyAdherence(meds []Medication, events []TakenEvent, window DateWindow) []DayRecord {
	t := countWindow(meds, events, window)

	records := make([]DayRecord, window.Len())
	for i, d := range window.Dates {
		records[i] = DayRecord{
			Date:      d,
			Label:     d.Format("Jan 2"),
			Weekday:   d.Format("Mon"),
			Scheduled: t.scheduled[i],
			Taken:     t.taken[i],
			Adherence: percent(t.taken[i], t.scheduled[i]),
		}
	}
	return records
}

// ComputeStreaks returns the running perfect-day streak for each window day.
// The streak starts at zero at the beginning of the window; history before
// the window is not consulted.
func ComputeStreaks(meds []Medication, events []TakenEvent, window DateWindow) []StreakRecord {
	t := countWindow(meds, events, window)

	records := make([]StreakRecord, window.Len())
	streak := 0
	for i, d := range window.Dates {
		perfect := isPerfect(t.scheduled[i], t.taken[i])
		if perfect {
			streak++
		} else {
			streak = 0
		}
		records[i] = StreakRecord{
			Date:    d,
			Label:   d.Format("Jan 2"),
			Streak:  streak,
			Perfect: perfect,
		}
	}
	return records
}

// ComputeMedicationBreakdown returns adherence per medication name.
//
// Taken counts every supplied event for the medication, so callers filter
// events to the window first. The percentage is not capped: logging more
// doses than the estimate reads above 100. The scheduled figure is the number of
// daily doses times the window length, regardless of the medication's own
// start and end dates. When two medications share a name the later one
// wins, keeping the position of the first.
func ComputeMedicationBreakdown(meds []Medication, events []TakenEvent, windowDays int) ([]MedicationBreakdown, error) {
	if windowDays <= 0 {
		return nil, apperrors.InvalidArgument("window size must be positive, got %d", windowDays)
	}

	takenByMed := make(map[string]int)
	for _, ev := range events {
		takenByMed[ev.MedicationID]++
	}

	var result []MedicationBreakdown
	position := make(map[string]int)
	for _, med := range meds {
		scheduled := med.DosesPerDay() * windowDays
		taken := takenByMed[med.ID]
		entry := MedicationBreakdown{
			Name:      med.Name,
			Taken:     taken,
			Scheduled: scheduled,
			Adherence: ratioPercent(taken, scheduled),
			Color:     ColorFor(med.Name),
		}

		if i, ok := position[med.Name]; ok {
			result[i] = entry
			continue
		}
		position[med.Name] = len(result)
		result = append(result, entry)
	}

	return result, nil
}

// ColorFor picks a palette color from the length of name. Names of equal
// length share a color.
func ColorFor(name string) string {
	return Palette[utf8.RuneCountInString(name)%len(Palette)]
}

// ComputeOverallStats aggregates a daily series. Missed doses never go
// below zero even when extra doses were logged.
func ComputeOverallStats(days []DayRecord) OverallStats {
	var stats OverallStats
	if len(days) == 0 {
		return stats
	}

	sumAdherence := 0
	for _, d := range days {
		stats.TotalScheduled += d.Scheduled
		stats.TotalTaken += d.Taken
		sumAdherence += d.Adherence
		if d.Adherence == 100 {
			stats.PerfectDays++
		}
	}

	n := len(days)
	stats.AverageAdherence = (2*sumAdherence + n) / (2 * n)

	if missed := stats.TotalScheduled - stats.TotalTaken; missed > 0 {
		stats.MissedDoses = missed
	}

	return stats
}

// CurrentStreak counts consecutive perfect days ending at now's date,
// looking back at most maxLookbackDays days. Today counts only once it is
// perfect; an unfinished today does not break a streak that ended
// yesterday.
func CurrentStreak(meds []Medication, events []TakenEvent, now time.Time, maxLookbackDays int) (int, error) {
	window, err := BuildDateWindow(maxLookbackDays, now)
	if err != nil {
		return 0, err
	}

	t := countWindow(meds, events, window)
	last := window.Len() - 1

	streak := 0
	i := last
	if !isPerfect(t.scheduled[last], t.taken[last]) {
		i--
	}
	for ; i >= 0; i-- {
		if !isPerfect(t.scheduled[i], t.taken[i]) {
			break
		}
		streak++
	}

	return streak, nil
}
