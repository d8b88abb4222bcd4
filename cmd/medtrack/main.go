package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gmsas95/medtrack/internal/app"
	"github.com/gmsas95/medtrack/internal/cli"
	"github.com/gmsas95/medtrack/internal/config"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	flag.Usage = func() { cli.PrintExtendedHelp(os.Stderr) }
	flag.Parse()
	cli.Version = version

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintExtendedHelp(os.Stdout)
		return
	}

	switch args[0] {
	case "help", "--help", "-h":
		cli.PrintExtendedHelp(os.Stdout)
		return
	case "version", "--version", "-v":
		cli.HandleVersionCommand(os.Stdout)
		return
	}

	application := initApp()
	defer application.Close()

	if err := run(context.Background(), application, args[0], args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		cli.RenderError(os.Stderr, err)
		application.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.App, command string, args []string) error {
	out := os.Stdout

	switch command {
	case "add":
		return cli.HandleAddCommand(ctx, application, args, out)
	case "list", "ls":
		return cli.HandleListCommand(ctx, application, args, out)
	case "delete", "rm":
		return cli.HandleDeleteCommand(ctx, application, args, out)
	case "take":
		return cli.HandleTakeCommand(ctx, application, args, out)
	case "today":
		return cli.HandleTodayCommand(ctx, application, args, out)
	case "report":
		return cli.HandleReportCommand(ctx, application, args, out)
	case "remind":
		return cli.HandleRemindCommand(ctx, application, args, out)
	case "import":
		return cli.HandleImportCommand(ctx, application, args, out)
	case "status":
		return cli.HandleStatusCommand(ctx, application, out)
	default:
		cli.PrintExtendedHelp(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func initApp() *app.App {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	application, err := app.Init(*configPath, *dataDir, version)
	if err != nil {
		cli.RenderError(os.Stderr, err)
		os.Exit(1)
	}
	return application
}
