package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/app"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/skills/medication"
)

var Version = "dev"

func newFlagSet(name string, w io.Writer, usage func()) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = usage
	return fs
}

func HandleAddCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("add", w, func() { PrintAddHelp(w) })
	dosage := fs.String("dosage", "", "Dosage, e.g. 10mg")
	frequency := fs.String("frequency", "", "once, twice, three-times or four-times")
	times := fs.String("times", "", "Comma separated HH:MM dose times")
	start := fs.String("start", "", "First day (YYYY-MM-DD)")
	end := fs.String("end", "", "Last day (YYYY-MM-DD)")
	notes := fs.String("notes", "", "Notes or instructions")
	noRemind := fs.Bool("no-remind", false, "Disable reminders for this medication")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		PrintAddHelp(w)
		return apperrors.InvalidArgument("medication name is required")
	}

	text := strings.Join(fs.Args(), " ")
	toolArgs := map[string]interface{}{
		"name":             text,
		"dosage":           *dosage,
		"frequency":        *frequency,
		"start_date":       *start,
		"end_date":         *end,
		"notes":            *notes,
		"reminder_enabled": !*noRemind,
	}
	if *times != "" {
		var list []interface{}
		for _, t := range strings.Split(*times, ",") {
			list = append(list, strings.TrimSpace(t))
		}
		toolArgs["times"] = list
	}

	result, err := application.Call(ctx, "add_medication", toolArgs)
	if err != nil {
		return err
	}
	resp := result.(map[string]interface{})
	renderSuccess(w, fmt.Sprintf("Added %s %s at %s",
		resp["name"], resp["dosage"], strings.Join(resp["times"].([]string), ", ")))
	fmt.Fprintln(w, mutedStyle.Render("id: "+resp["id"].(string)))
	return nil
}

func HandleListCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("list", w, func() {
		fmt.Fprintln(w, "Usage: medtrack list [--active]")
	})
	active := fs.Bool("active", false, "Only medications active today")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := application.Call(ctx, "list_medications", map[string]interface{}{"active_only": *active})
	if err != nil {
		return err
	}
	renderMedications(w, result.(map[string]interface{})["medications"].([]adherence.Medication))
	return nil
}

// resolveMedication finds a medication by full ID, unique ID prefix or
// case-insensitive name
func resolveMedication(ctx context.Context, application *app.App, ref string) (*adherence.Medication, error) {
	meds, err := application.Store.ListMedications(ctx)
	if err != nil {
		return nil, err
	}

	var matches []adherence.Medication
	for _, med := range meds {
		if med.ID == ref {
			return &med, nil
		}
		if strings.HasPrefix(med.ID, ref) || strings.EqualFold(med.Name, ref) {
			matches = append(matches, med)
		}
	}

	switch len(matches) {
	case 0:
		return nil, apperrors.New(apperrors.ErrMedicationNotFound.Code, fmt.Sprintf("no medication matches %q", ref))
	case 1:
		return &matches[0], nil
	default:
		return nil, apperrors.InvalidArgument("%q matches %d medications, use the full id", ref, len(matches))
	}
}

func HandleDeleteCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: medtrack delete <id|name>")
		return apperrors.InvalidArgument("expected exactly one medication")
	}

	med, err := resolveMedication(ctx, application, args[0])
	if err != nil {
		return err
	}
	result, err := application.Call(ctx, "delete_medication", map[string]interface{}{"medication_id": med.ID})
	if err != nil {
		return err
	}
	renderSuccess(w, result.(map[string]interface{})["message"].(string))
	return nil
}

func HandleTakeCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("take", w, func() { PrintTakeHelp(w) })
	slot := fs.String("slot", "", "Dose slot (HH:MM) this intake is for")
	at := fs.String("at", "", "When it was taken, HH:MM today or RFC 3339 (default: now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		PrintTakeHelp(w)
		return apperrors.InvalidArgument("expected exactly one medication")
	}

	med, err := resolveMedication(ctx, application, fs.Arg(0))
	if err != nil {
		return err
	}
	result, err := application.Call(ctx, "mark_taken", map[string]interface{}{
		"medication_id":  med.ID,
		"scheduled_time": *slot,
		"time":           *at,
	})
	if err != nil {
		return err
	}
	renderSuccess(w, result.(map[string]interface{})["message"].(string))
	return nil
}

func HandleTodayCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("today", w, func() {
		fmt.Fprintln(w, "Usage: medtrack today [--due]")
	})
	due := fs.Bool("due", false, "Only untaken doses that are due or overdue")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := application.Call(ctx, "get_reminders", map[string]interface{}{"due_only": *due})
	if err != nil {
		return err
	}
	resp := result.(map[string]interface{})
	renderReminders(w,
		resp["date"].(string),
		resp["total"].(int),
		resp["taken"].(int),
		resp["reminders"].([]medication.ReminderView),
	)
	return nil
}

func HandleReportCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("report", w, func() {
		fmt.Fprintf(w, "Usage: medtrack report [--days N] [--json]\n\nWindows: %v (default %d)\n",
			application.Config.Report.AllowedDays, application.Config.Report.DefaultDays)
	})
	days := fs.Int("days", 0, "Window length in days")
	asJSON := fs.Bool("json", false, "Print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := application.Report(ctx, *days)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	renderReport(w, report)
	return nil
}

func HandleRemindCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("remind", w, func() {
		fmt.Fprintln(w, "Usage: medtrack remind [--once]")
		fmt.Fprintln(w, "       medtrack remind on|off <id|name>")
		fmt.Fprintln(w, "Runs the reminder check in the foreground on reminders.schedule.")
	})
	once := fs.Bool("once", false, "Run a single check and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return toggleReminder(ctx, application, fs.Args(), w)
	}

	notify := func(_ context.Context, r adherence.Reminder) error {
		renderReminder(w, r)
		return nil
	}

	if *once {
		runner, err := application.NewCronRunner(notify)
		if err != nil {
			return err
		}
		delivered, err := runner.Tick(ctx, time.Now())
		if err != nil {
			return err
		}
		if len(delivered) == 0 {
			fmt.Fprintln(w, mutedStyle.Render("No doses due right now."))
		}
		return nil
	}

	fmt.Fprintln(w, titleStyle.Render("Watching for due doses")+" "+
		mutedStyle.Render("("+application.Config.Reminders.Schedule+", Ctrl+C to stop)"))
	return application.RunReminders(ctx, notify)
}

func toggleReminder(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	if len(args) != 2 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(w, "Usage: medtrack remind on|off <id|name>")
		return apperrors.InvalidArgument("expected on or off and one medication")
	}

	med, err := resolveMedication(ctx, application, args[1])
	if err != nil {
		return err
	}
	result, err := application.Call(ctx, "set_reminder", map[string]interface{}{
		"medication_id": med.ID,
		"enabled":       args[0] == "on",
	})
	if err != nil {
		return err
	}
	renderSuccess(w, result.(map[string]interface{})["message"].(string))
	return nil
}

func HandleImportCommand(ctx context.Context, application *app.App, args []string, w io.Writer) error {
	if len(args) != 1 {
		PrintImportHelp(w)
		return apperrors.InvalidArgument("expected a plan file")
	}

	result, err := application.Call(ctx, "import_plan", map[string]interface{}{"path": args[0]})
	if err != nil {
		return err
	}
	resp := result.(map[string]interface{})
	renderSuccess(w, fmt.Sprintf("Imported %d medications: %s",
		resp["imported"], strings.Join(resp["medications"].([]string), ", ")))
	return nil
}

func HandleStatusCommand(ctx context.Context, application *app.App, w io.Writer) error {
	meds, err := application.Store.ListMedications(ctx)
	if err != nil {
		return err
	}
	application.Metrics.SetMedicationCount(len(meds))

	cfg := application.Config
	snap := application.Metrics.Snapshot()

	reminders := "disabled"
	if cfg.Reminders.Enabled {
		reminders = cfg.Reminders.Schedule
		if runner, err := application.NewCronRunner(nil); err == nil {
			reminders += ", next check " + runner.Next(time.Now()).Format("15:04")
		}
	}

	lines := []string{
		fmt.Sprintf("Version:      %s", Version),
		fmt.Sprintf("Data:         %s", cfg.Storage.DataDir),
		fmt.Sprintf("Database:     %s", cfg.Storage.SQLitePath),
		fmt.Sprintf("Medications:  %d", snap.Medications),
		fmt.Sprintf("Reports:      default %d days, windows %v", cfg.Report.DefaultDays, cfg.Report.AllowedDays),
		fmt.Sprintf("Reminders:    %s", reminders),
		fmt.Sprintf("Log level:    %s", cfg.Log.Level),
	}
	fmt.Fprintln(w, titleStyle.Render("medtrack status"))
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return nil
}

func HandleVersionCommand(w io.Writer) {
	fmt.Fprintf(w, "medtrack version %s\n", Version)
}
