package cli

import (
	"fmt"
	"io"
)

func PrintExtendedHelp(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("medtrack")+" - medication schedules, reminders and adherence")
	fmt.Fprint(w, `
Usage: medtrack [-config FILE] [-data DIR] <command> [arguments]

Commands:
  add [flags] <name...>        Add a medication ("Metformin 500mg twice daily")
  list [--active]              List medications
  delete <id|name>             Delete a medication, keeping its history
  take [flags] <id|name>       Record a dose as taken
  today [--due]                Show today's doses with their status
  report [--days N] [--json]   Adherence report for the last N days
  remind [--once]              Watch for due doses in the foreground
  remind on|off <med>          Turn reminders on or off for a medication
  import <plan.yaml>           Import medications from a YAML plan
  status                       Show configuration and counters
  version                      Print the version
  help                         Show this help

Medications can be referenced by id, id prefix or name.

Environment:
  MEDTRACK_DATA_DIR            Data directory (default ~/.local/share/medtrack)
  MEDTRACK_DB                  SQLite database path
  MEDTRACK_LOG_LEVEL           debug, info, warn or error
  MEDTRACK_REMIND_EVERY        Reminder schedule, e.g. "@every 5m" or "*/10 * * * *"
`)
}

func PrintAddHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: medtrack add [flags] <name...>

The name may carry the whole schedule:
  medtrack add Lisinopril 10mg every morning
  medtrack add Metformin 500mg twice daily with meals

Flags (before the name):
  --dosage 10mg                Dosage text
  --frequency twice            once, twice, three-times or four-times
  --times 08:00,20:00          Dose times
  --start 2024-01-01           First day (default: today)
  --end 2024-06-30             Last day (default: ongoing)
  --notes "..."                Instructions
  --no-remind                  Disable reminders
`)
}

func PrintTakeHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: medtrack take [flags] <id|name>

Flags:
  --slot 08:00                 Dose slot this intake is for
  --at 08:05                   When it was taken, HH:MM today or RFC 3339 (default: now)
`)
}

func PrintImportHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: medtrack import <plan.yaml>

Example plan:
  medications:
    - name: Lisinopril
      dosage: 10mg
      times: ["08:00"]
    - name: Metformin 500mg
      schedule: twice daily with meals
      end_date: 2024-06-30

Nothing is imported when any entry is invalid.
`)
}
