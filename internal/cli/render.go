package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/skills/medication"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7c4dff"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9e9e9e"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4caf50"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f44336"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#616161"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7c4dff")).
			Padding(0, 1)
)

const barWidth = 20

// badge renders text in a colored pill
func badge(text, color string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(color)).
		Render("● " + text)
}

// adherenceColor maps a percentage to the traffic-light colors used in reports
func adherenceColor(pct int) string {
	switch {
	case pct >= 90:
		return "#4caf50"
	case pct >= 80:
		return "#ff9800"
	default:
		return "#f44336"
	}
}

func bar(pct int, color string) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * barWidth / 100
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✓ "+msg))
}

// RenderError prints err the way every command reports failures
func RenderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: ")+err.Error())
}

func renderMedications(w io.Writer, meds []adherence.Medication) {
	if len(meds) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No medications yet. Add one with: medtrack add <name>"))
		return
	}

	t := newTable("ID", "Name", "Dosage", "Times", "Period", "Reminders")
	for _, med := range meds {
		period := "from " + med.StartDate.Format("2006-01-02")
		if med.EndDate != nil {
			period += " to " + med.EndDate.Format("2006-01-02")
		}
		reminders := "on"
		if !med.ReminderEnabled {
			reminders = "off"
		}
		t.Row(
			shortID(med.ID),
			lipgloss.NewStyle().Foreground(lipgloss.Color(adherence.ColorFor(med.Name))).Render(med.Name),
			med.Dosage,
			strings.Join(med.Times, ", "),
			period,
			reminders,
		)
	}
	fmt.Fprintln(w, t.String())
}

func renderReminders(w io.Writer, date string, total, taken int, reminders []medication.ReminderView) {
	fmt.Fprintln(w, titleStyle.Render("Today's doses")+" "+mutedStyle.Render(date))
	if total == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nothing scheduled today."))
		return
	}
	fmt.Fprintf(w, "%d of %d taken\n", taken, total)
	if len(reminders) == 0 {
		fmt.Fprintln(w, successStyle.Render("Nothing due right now."))
		return
	}

	t := newTable("Time", "Medication", "Dosage", "Status", "ID")
	for _, r := range reminders {
		status := badge(r.Message, r.Color)
		if r.Taken {
			status = successStyle.Render("✓ Taken")
		}
		t.Row(r.ScheduledTime, r.Name, r.Dosage, status, shortID(r.MedicationID))
	}
	fmt.Fprintln(w, t.String())
}

func renderReminder(w io.Writer, r adherence.Reminder) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		mutedStyle.Render(r.ScheduledTime.String()),
		lipgloss.NewStyle().Bold(true).Render(r.Medication.Name),
		r.Medication.Dosage,
		badge(r.Timing.Message(), r.Timing.Color()),
	)
}

func renderReport(w io.Writer, report *adherence.Report) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Adherence report, last %d days", report.Days)))

	if !report.HasData() {
		fmt.Fprintln(w, mutedStyle.Render("No doses were scheduled in this window."))
		return
	}

	stats := report.Stats
	summary := strings.Join([]string{
		fmt.Sprintf("Average adherence  %s %d%%", bar(stats.AverageAdherence, adherenceColor(stats.AverageAdherence)), stats.AverageAdherence),
		fmt.Sprintf("Doses taken        %d / %d", stats.TotalTaken, stats.TotalScheduled),
		fmt.Sprintf("Missed doses       %d", stats.MissedDoses),
		fmt.Sprintf("Perfect days       %d", stats.PerfectDays),
		fmt.Sprintf("Current streak     %d days", report.CurrentStreak),
	}, "\n")
	fmt.Fprintln(w, boxStyle.Render(summary))

	if len(report.Breakdown) > 0 {
		fmt.Fprintln(w, titleStyle.Render("By medication"))
		t := newTable("Medication", "Taken", "Scheduled", "Adherence")
		for _, b := range report.Breakdown {
			t.Row(
				lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(b.Name),
				fmt.Sprint(b.Taken),
				fmt.Sprint(b.Scheduled),
				fmt.Sprintf("%s %d%%", bar(b.Adherence, b.Color), b.Adherence),
			)
		}
		fmt.Fprintln(w, t.String())
	}

	fmt.Fprintln(w, titleStyle.Render("Daily"))
	t := newTable("Date", "Day", "Taken", "Adherence", "Streak")
	for i, d := range report.Daily {
		if d.Scheduled == 0 {
			t.Row(d.Label, d.Weekday, "-", mutedStyle.Render("nothing scheduled"), "")
			continue
		}
		streak := ""
		if i < len(report.Streaks) && report.Streaks[i].Streak > 0 {
			streak = fmt.Sprint(report.Streaks[i].Streak)
		}
		t.Row(
			d.Label,
			d.Weekday,
			fmt.Sprintf("%d/%d", d.Taken, d.Scheduled),
			fmt.Sprintf("%s %d%%", bar(d.Adherence, adherenceColor(d.Adherence)), d.Adherence),
			streak,
		)
	}
	fmt.Fprintln(w, t.String())

	if len(report.Insights) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Insights"))
		for _, in := range report.Insights {
			fmt.Fprintf(w, "  %s %s\n", lipgloss.NewStyle().Bold(true).Render(in.Title+":"), in.Message)
		}
	}

	fmt.Fprintln(w, titleStyle.Render("Achievements"))
	for _, a := range report.Achievements {
		mark := mutedStyle.Render("○ " + a.Title)
		if a.Earned {
			mark = successStyle.Render("★ " + a.Title)
		}
		fmt.Fprintf(w, "  %s %s\n", mark, mutedStyle.Render(a.Description))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
