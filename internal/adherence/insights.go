package adherence

import "fmt"

// InsightKind categorises an insight
type InsightKind string

const (
	InsightImprovement InsightKind = "improvement"
	InsightExcellent   InsightKind = "excellent"
	InsightStreak      InsightKind = "streak"
	InsightMissed      InsightKind = "missed"
)

// Insight is a recommendation derived from the stats
type Insight struct {
	Kind    InsightKind `json:"kind"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// Achievement is a badge the user earns by meeting a threshold
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

const (
	lowAdherence       = 80
	highAdherence      = 90
	longStreak         = 14
	weekStreak         = 7
	perfectWeekDays    = 5
	missedAlertCeiling = 3
)

// Insights returns the recommendations that apply, in display order
func Insights(stats OverallStats, currentStreak int) []Insight {
	var out []Insight

	if stats.AverageAdherence < lowAdherence {
		out = append(out, Insight{
			Kind:    InsightImprovement,
			Title:   "Improvement Opportunity",
			Message: "Your adherence rate is below 80%. Consider setting more reminders or reviewing your medication schedule.",
		})
	}
	if stats.AverageAdherence >= highAdherence {
		out = append(out, Insight{
			Kind:    InsightExcellent,
			Title:   "Excellent Work!",
			Message: "You're maintaining excellent adherence! Keep up the great work with your medication routine.",
		})
	}
	if currentStreak >= longStreak {
		out = append(out, Insight{
			Kind:    InsightStreak,
			Title:   "Amazing Streak!",
			Message: fmt.Sprintf("You've maintained a %d-day streak! This consistency will greatly benefit your health.", currentStreak),
		})
	}
	if stats.MissedDoses > 0 && stats.MissedDoses <= missedAlertCeiling {
		noun := "dose"
		if stats.MissedDoses > 1 {
			noun = "doses"
		}
		out = append(out, Insight{
			Kind:    InsightMissed,
			Title:   "Missed Doses Alert",
			Message: fmt.Sprintf("You've missed %d %s recently. Try setting up additional reminders to stay on track.", stats.MissedDoses, noun),
		})
	}

	return out
}

// Achievements returns the four badges with their earned state
func Achievements(stats OverallStats, currentStreak int) []Achievement {
	return []Achievement{
		{Title: "Consistent", Description: "90%+ adherence rate", Earned: stats.AverageAdherence >= highAdherence},
		{Title: "Week Warrior", Description: "7+ day streak", Earned: currentStreak >= weekStreak},
		{Title: "Perfect Week", Description: "5+ perfect days", Earned: stats.PerfectDays >= perfectWeekDays},
		{Title: "Flawless", Description: "Zero missed doses", Earned: stats.MissedDoses == 0},
	}
}
