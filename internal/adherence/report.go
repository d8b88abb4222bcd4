package adherence

import (
	"time"
)

// DefaultStreakLookbackDays bounds CurrentStreak when the caller has no preference
const DefaultStreakLookbackDays = 365

// Report bundles every derived series for one window
type Report struct {
	Days          int                   `json:"days"`
	GeneratedAt   time.Time             `json:"generated_at"`
	Daily         []DayRecord           `json:"daily"`
	Streaks       []StreakRecord        `json:"streaks"`
	Breakdown     []MedicationBreakdown `json:"breakdown"`
	Stats         OverallStats          `json:"stats"`
	CurrentStreak int                   `json:"current_streak"`
	Insights      []Insight             `json:"insights"`
	Achievements  []Achievement         `json:"achievements"`
}

// BuildReport computes the analytics for the days ending at now
func BuildReport(meds []Medication, events []TakenEvent, days int, now time.Time, lookbackDays int) (*Report, error) {
	window, err := BuildDateWindow(days, now)
	if err != nil {
		return nil, err
	}

	var inWindow []TakenEvent
	for _, ev := range events {
		if window.Contains(ev.Timestamp) {
			inWindow = append(inWindow, ev)
		}
	}

	breakdown, err := ComputeMedicationBreakdown(meds, inWindow, days)
	if err != nil {
		return nil, err
	}

	if lookbackDays <= 0 {
		lookbackDays = DefaultStreakLookbackDays
	}
	streak, err := CurrentStreak(meds, events, now, lookbackDays)
	if err != nil {
		return nil, err
	}

	daily := ComputeDailyAdherence(meds, events, window)
	stats := ComputeOverallStats(daily)

	return &Report{
		Days:          days,
		GeneratedAt:   now,
		Daily:         daily,
		Streaks:       ComputeStreaks(meds, events, window),
		Breakdown:     breakdown,
		Stats:         stats,
		CurrentStreak: streak,
		Insights:      Insights(stats, streak),
		Achievements:  Achievements(stats, streak),
	}, nil
}

// HasData reports whether there is anything to chart
func (r *Report) HasData() bool {
	return len(r.Breakdown) > 0
}
