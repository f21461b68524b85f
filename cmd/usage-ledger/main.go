// Package main provides the usage-ledger CLI application.
//
// Usage Ledger reads Claude Code session logs, deduplicates repeated
// records across files, attributes cost per model, and reports usage by
// session, day, and month, with a live view of the current active
// window.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	// Define global flags.
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	// Parse command.
	flag.Parse()

	// Handle version flag.
	if *showVersion {
		fmt.Printf("usage-ledger %s\n", version)
		return nil
	}

	// Get command.
	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "sessions":
		return runReportCommand(reportSessions, *configPath, args[1:])
	case "daily":
		return runReportCommand(reportDaily, *configPath, args[1:])
	case "monthly":
		return runReportCommand(reportMonthly, *configPath, args[1:])
	case "live":
		return runLiveCommand(*configPath, args[1:])
	case "watch":
		return runWatchCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runReportCommand runs one of the batch report commands.
func runReportCommand(kind reportKind, configPath string, args []string) error {
	cmd, err := parseReportCommand(kind, configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// parseReportCommand parses the shared report flags.
func parseReportCommand(kind reportKind, configPath string, args []string) (*reportCommand, error) {
	fs := flag.NewFlagSet(string(kind), flag.ContinueOnError)
	since := fs.String("since", "", "include activity on or after this date (YYYY-MM-DD)")
	until := fs.String("until", "", "include activity on or before this date (YYYY-MM-DD)")
	limit := fs.Int("limit", 0, "limit output to the first N rows")
	format := fs.String("format", "table", "output format (table, json, simple)")
	jsonOut := fs.Bool("json", false, "shorthand for -format json")
	compact := fs.Bool("compact", false, "compact JSON output")
	projects := fs.Bool("projects", true, "show per-project rows in the daily report")
	stats := fs.Bool("stats", false, "print ingest statistics to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	outputFormat := *format
	if *jsonOut {
		outputFormat = "json"
	}

	return &reportCommand{
		kind:         kind,
		since:        *since,
		until:        *until,
		limit:        *limit,
		format:       outputFormat,
		compact:      *compact,
		showProjects: *projects,
		showStats:    *stats,
		configPath:   configPath,
	}, nil
}

// runLiveCommand runs the live command.
func runLiveCommand(configPath string, args []string) error {
	cmd, err := parseLiveCommand(configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// parseLiveCommand parses the live command flags.
func parseLiveCommand(configPath string, args []string) (*liveCommand, error) {
	fs := flag.NewFlagSet("live", flag.ContinueOnError)
	snapshot := fs.Bool("snapshot", false, "render one frame and exit")
	jsonOut := fs.Bool("json", false, "machine-readable JSON output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &liveCommand{
		snapshot:   *snapshot,
		jsonOut:    *jsonOut,
		configPath: configPath,
	}, nil
}

// runWatchCommand runs the watch command.
func runWatchCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &watchCommand{
		configPath: configPath,
	}

	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `Usage Ledger - Claude Code session usage accounting

Usage:
  usage-ledger [flags] <command> [command flags]

Commands:
  sessions    Per-session usage and cost, most recent first
  daily       Daily usage with per-project breakdowns
  monthly     Monthly usage totals
  live        Live view of the current active window
  watch       Follow session logs and print updates as they land
  config      Configuration management (show, path, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Report Command Flags (sessions, daily, monthly):
  -since      Include activity on or after this date (YYYY-MM-DD)
  -until      Include activity on or before this date (YYYY-MM-DD)
  -limit      Limit output to the first N rows
  -format     Output format (table, json, simple)
  -json       Shorthand for -format json
  -compact    Compact JSON output
  -projects   Show per-project rows in the daily report (default: true)
  -stats      Print ingest statistics to stderr

Live Command Flags:
  -snapshot   Render one frame and exit
  -json       Machine-readable JSON output

Examples:
  # Per-session report
  usage-ledger sessions

  # Daily report for June 2025
  usage-ledger daily -since 2025-06-01 -until 2025-06-30

  # Monthly totals as JSON
  usage-ledger monthly -json

  # Top 10 most recent sessions
  usage-ledger sessions -limit 10

  # Live active-window monitor
  usage-ledger live

  # One machine-readable frame
  usage-ledger live -snapshot -json

  # Follow the logs
  usage-ledger watch

  # Configuration
  usage-ledger config show
  usage-ledger config reset

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
