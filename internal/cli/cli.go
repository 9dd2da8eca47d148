package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/jazz-events/internal/config"
	"github.com/pfrederiksen/jazz-events/internal/logger"
	"github.com/pfrederiksen/jazz-events/internal/pipeline"
)

// Version is reported by --version; set at build time
var Version = "dev"

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitNoEvents = 2
)

// options holds the raw flag values
type options struct {
	configPath  string
	days        int
	workers     int
	logLevel    string
	template    string
	output      string
	ics         string
	json        string
	metricsFile string
	dumpDir     string
	sort        string
	format      string
	dryRun      bool
	verbose     bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "jazz-events",
		Short: "Build a static page of upcoming jazz shows ranked by artist popularity",
		Long: `A batch job that scrapes the venue calendar for the coming weeks,
looks up each headliner's popularity and renders the listing as a static
HTML page. Intended to run from cron.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	// Define flags
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	f.IntVar(&opts.days, "days", 0, "Number of days to look ahead, starting today (default 25)")
	f.IntVar(&opts.workers, "workers", 0, "Concurrent HTTP requests per phase (default: number of CPUs)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (default info)")
	f.StringVar(&opts.template, "template", "", "Page template path (default templates/index.html)")
	f.StringVar(&opts.output, "output", "", "Rendered page path (default public/index.html)")
	f.StringVar(&opts.ics, "ics", "", "Also write an iCalendar feed to this path")
	f.StringVar(&opts.json, "json", "", "Also write the enriched events as JSON to this path")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.StringVar(&opts.dumpDir, "dump-dir", "", "Save event blocks that failed extraction to this directory")
	f.StringVar(&opts.sort, "sort", "", "Listing order: none, popularity or artist (default none)")
	f.StringVar(&opts.format, "format", "text", "Summary output format: text or json")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Run every phase but write no files")
	f.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging and list every event in the summary")

	return cmd
}

// run is the main command logic
func run(cmd *cobra.Command, opts *options) error {
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)

	p, err := pipeline.New(cfg,
		pipeline.WithLogger(log),
		pipeline.WithDryRun(opts.dryRun),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if err := WriteOutput(cmd.OutOrStdout(), NewOutputResult(result), format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// applyFlags overrides cfg with every flag set on the command line
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("days") {
		cfg.Days = opts.days
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if opts.verbose && !f.Changed("log-level") {
		cfg.LogLevel = "debug"
	}
	if f.Changed("template") {
		cfg.TemplatePath = opts.template
	}
	if f.Changed("output") {
		cfg.OutputPath = opts.output
	}
	if f.Changed("ics") {
		cfg.ICSPath = opts.ics
	}
	if f.Changed("json") {
		cfg.JSONPath = opts.json
	}
	if f.Changed("metrics-file") {
		cfg.MetricsPath = opts.metricsFile
	}
	if f.Changed("dump-dir") {
		cfg.DumpDir = opts.dumpDir
	}
	if f.Changed("sort") {
		cfg.Sort = opts.sort
	}
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, pipeline.ErrNoEvents):
		return ExitNoEvents
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
