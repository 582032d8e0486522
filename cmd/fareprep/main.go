// Package main provides the CLI entry point for the taxi fare data preparation pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/cli"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/config"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/partition"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/persistence"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/runtime"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// exitError carries the exit code of a failed command. Details have
// already been printed when it is returned.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

// options holds the flag values of one invocation.
type options struct {
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string

	mode          string
	limit         int
	seed          uint64
	trainFraction float64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI with args and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	defer logger.CloseLogFile()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitRuntimeError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "fareprep",
		Short: "fareprep - NYC taxi fare data preparation",
		Long: `fareprep cleans raw NYC taxi trip CSVs into parquet artifacts and
splits the cleaned training data into train/test partitions.

Training data goes through coordinate bounds, fare range, distance and
fare-per-distance filters before temporal features are derived. Inference
data keeps every row with coordinates and derives the same features.

Examples:
  # Validate a run configuration
  fareprep validate run.yaml

  # Clean every configured dataset
  fareprep clean run.yaml

  # Clean, then split the training artifact
  fareprep run --mode overwrite run.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Console log format: json or human (overrides the config)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file (overrides the config)")

	validateCmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a run configuration file",
		Long: `Validate a run configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(opts, args[0], stdout, stderr)
		},
	}

	cleanCmd := &cobra.Command{
		Use:   "clean <config-file>",
		Short: "Clean every configured dataset into a parquet artifact",
		Long: `Run the training or inference pipeline of every configured dataset,
in order. With mode "preserve", datasets whose artifact already exists
are skipped.

Exit codes:
  0 - All datasets cleaned or skipped
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd, opts, args[0], stderr)
			if err != nil {
				return err
			}
			return runClean(cmd.Context(), opts, cfg, uuid.NewString(), stdout, stderr)
		},
	}

	splitCmd := &cobra.Command{
		Use:   "split <config-file>",
		Short: "Split the cleaned training artifact into train/test CSVs",
		Long: `Read the cleaned artifact named by the split section, shuffle it with
the configured seed and write X_train.csv, Y_train.csv, x_test.csv and
y_test.csv to the output directory.

Exit codes:
  0 - Partitions written
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd, opts, args[0], stderr)
			if err != nil {
				return err
			}
			return runSplit(cmd.Context(), opts, cfg, uuid.NewString(), stdout, stderr)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <config-file>",
		Short: "Clean every dataset, then split the training artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd, opts, args[0], stderr)
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			if err := runClean(cmd.Context(), opts, cfg, runID, stdout, stderr); err != nil {
				return err
			}
			if cfg.Split == nil {
				logger.Info("no split configured", slog.String("run_id", runID))
				return nil
			}
			return runSplit(cmd.Context(), opts, cfg, runID, stdout, stderr)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "Version: %s\n", version)
			fmt.Fprintf(stdout, "Commit: %s\n", commit)
			fmt.Fprintf(stdout, "Build Date: %s\n", buildDate)
		},
	}

	for _, cmd := range []*cobra.Command{cleanCmd, runCmd} {
		cmd.Flags().StringVar(&opts.mode, "mode", "", "Write mode override: overwrite or preserve")
	}
	for _, cmd := range []*cobra.Command{splitCmd, runCmd} {
		cmd.Flags().IntVar(&opts.limit, "limit", 0, "Keep only the first N cleaned rows before shuffling")
		cmd.Flags().Uint64Var(&opts.seed, "seed", partition.DefaultSeed, "Shuffle seed")
		cmd.Flags().Float64Var(&opts.trainFraction, "train-fraction", partition.DefaultTrainFraction, "Share of rows sent to the train partition")
	}

	root.AddCommand(validateCmd, cleanCmd, splitCmd, runCmd, versionCmd)
	return root
}

func runValidate(opts *options, path string, stdout, stderr io.Writer) error {
	if !opts.quiet {
		fmt.Fprintf(stdout, "Validating configuration: %s\n", path)
	}

	cfg, result, err := loadConfig(opts, path, stderr)
	if err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Fprintf(stdout, "✓ Configuration is valid (format: %s)\n", result.Format)
		if opts.verbose {
			cli.PrintConfigSummary(stdout, cfg)
		}
	}
	return nil
}

// loadConfig loads path and prints every problem found.
func loadConfig(opts *options, path string, stderr io.Writer) (*trip.RunConfig, *config.Result, error) {
	cfg, result, err := config.Load(path)
	switch {
	case err == nil:
		return cfg, result, nil
	case errors.Is(err, config.ErrParseFailed):
		cli.PrintParseErrors(stderr, result.ParseErrors, opts.verbose)
		return nil, result, exitWith(ExitParseError, err)
	case len(result.ValidationErrors) > 0:
		cli.PrintValidationErrors(stderr, result.ValidationErrors, opts.verbose, opts.quiet)
		return nil, result, exitWith(ExitValidationError, err)
	default:
		fmt.Fprintf(stderr, "✗ Invalid configuration: %v\n", err)
		return nil, result, exitWith(ExitValidationError, err)
	}
}

// prepare loads the configuration, applies flag overrides and configures logging.
func prepare(cmd *cobra.Command, opts *options, path string, stderr io.Writer) (*trip.RunConfig, error) {
	cfg, _, err := loadConfig(opts, path, stderr)
	if err != nil {
		return nil, err
	}

	if err := applyOverrides(cmd, opts, cfg); err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return nil, exitWith(ExitValidationError, err)
	}

	if err := configureLogging(opts, cfg.Logging, stderr); err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return nil, exitWith(ExitValidationError, err)
	}
	return cfg, nil
}

// applyOverrides copies explicitly set flags over the configuration.
func applyOverrides(cmd *cobra.Command, opts *options, cfg *trip.RunConfig) error {
	flags := cmd.Flags()

	if flags.Changed("mode") {
		mode, err := trip.ParseWriteMode(opts.mode)
		if err != nil {
			return err
		}
		cfg.WriteMode = mode
	}

	if cfg.Split == nil {
		return nil
	}
	if flags.Changed("limit") {
		if opts.limit < 0 {
			return fmt.Errorf("--limit must not be negative, got %d", opts.limit)
		}
		cfg.Split.LimitRows = opts.limit
	}
	if flags.Changed("seed") {
		cfg.Split.Seed = opts.seed
	}
	if flags.Changed("train-fraction") {
		if !(opts.trainFraction > 0 && opts.trainFraction < 1) {
			return fmt.Errorf("--train-fraction must be between 0 and 1, got %v", opts.trainFraction)
		}
		cfg.Split.TrainFraction = opts.trainFraction
	}
	return nil
}

// configureLogging applies the logging section, then the verbosity and log flags.
func configureLogging(opts *options, lc trip.LoggingConfig, stderr io.Writer) error {
	level, err := logger.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	switch {
	case opts.verbose:
		level = slog.LevelDebug
	case opts.quiet:
		level = slog.LevelError
	}

	formatName := lc.Format
	if opts.logFormat != "" {
		formatName = opts.logFormat
	}
	format, err := logger.ParseFormat(formatName)
	if err != nil {
		return err
	}
	logger.SetOutput(stderr, level, format)

	file := lc.File
	if opts.logFile != "" {
		file = opts.logFile
	}
	if file != "" {
		return logger.SetLogFile(file, level, format)
	}
	return nil
}

func runClean(ctx context.Context, opts *options, cfg *trip.RunConfig, runID string, stdout, stderr io.Writer) error {
	executor := runtime.NewExecutor(persistence.NewManifestStore(cfg.CleanDir))
	results, err := executor.CleanAll(ctx, runtime.JobsFromConfig(cfg, runID))

	outOpts := cli.OutputOptions{Verbose: opts.verbose, Quiet: opts.quiet}
	for _, res := range results {
		w := stdout
		if res.Status == trip.StatusError {
			w = stderr
		}
		cli.PrintExecutionResult(w, res, nil, outOpts)
	}
	if err != nil {
		return exitWith(ExitRuntimeError, err)
	}
	return nil
}

func runSplit(ctx context.Context, opts *options, cfg *trip.RunConfig, runID string, stdout, stderr io.Writer) error {
	if cfg.Split == nil {
		err := errors.New("configuration has no split section")
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return exitWith(ExitValidationError, err)
	}

	var source string
	for _, job := range runtime.JobsFromConfig(cfg, runID) {
		if job.Name == cfg.Split.Dataset {
			source = job.ArtifactPath()
		}
	}

	result, err := partition.Run(ctx, partition.Job{
		RunID:     runID,
		Source:    source,
		OutputDir: cfg.Split.OutputDir,
		Options: partition.Options{
			Limit:         cfg.Split.LimitRows,
			TrainFraction: cfg.Split.TrainFraction,
			Seed:          cfg.Split.Seed,
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "✗ Split failed: %v\n", err)
		return exitWith(ExitRuntimeError, err)
	}

	cli.PrintSplitResult(stdout, result, cli.OutputOptions{Verbose: opts.verbose, Quiet: opts.quiet})
	return nil
}
