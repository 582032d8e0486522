package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/partition"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// PrintExecutionResult displays the result of one cleaning pipeline.
func PrintExecutionResult(w io.Writer, result *trip.ExecutionResult, err error, opts OutputOptions) {
	if result == nil {
		fmt.Fprintln(w, "✗ No execution result available")
		return
	}

	if err != nil || result.Status == trip.StatusError {
		fmt.Fprintf(w, "✗ Cleaning %s failed\n", result.Dataset)
		if result.Error != nil {
			if result.Error.Stage != "" {
				fmt.Fprintf(w, "  Stage: %s\n", result.Error.Stage)
			}
			fmt.Fprintf(w, "  Code: %s\n", result.Error.Code)
			fmt.Fprintf(w, "  Error: %s\n", result.Error.Message)
		}
		return
	}

	if opts.Quiet {
		return
	}

	if result.Status == trip.StatusSkipped {
		fmt.Fprintf(w, "• %s skipped: %s already exists\n", result.Dataset, result.ArtifactPath)
		return
	}

	fmt.Fprintf(w, "✓ %s cleaned (%s pipeline)\n", result.Dataset, result.Pipeline)
	fmt.Fprintf(w, "  Rows read: %d\n", result.RowsRead)
	fmt.Fprintf(w, "  Rows written: %d\n", result.RowsWritten)
	fmt.Fprintf(w, "  Artifact: %s\n", result.ArtifactPath)
	if opts.Verbose {
		fmt.Fprintf(w, "  Columns: %s\n", strings.Join(result.Columns, ", "))
		for _, stage := range result.Stages {
			fmt.Fprintf(w, "    [%d] %-24s %d → %d (%s)\n",
				stage.Index, stage.Name, stage.RowsIn, stage.RowsOut, logger.FormatDuration(stage.Duration))
		}
		fmt.Fprintf(w, "  Duration: %s\n", logger.FormatDuration(result.CompletedAt.Sub(result.StartedAt)))
	}
}

// PrintSplitResult displays what the partitioner wrote.
func PrintSplitResult(w io.Writer, result *partition.Result, opts OutputOptions) {
	if result == nil || opts.Quiet {
		return
	}
	fmt.Fprintln(w, "✓ Dataset partitioned")
	fmt.Fprintf(w, "  Rows read: %d\n", result.RowsRead)
	fmt.Fprintf(w, "  Train rows: %d\n", result.TrainRows)
	fmt.Fprintf(w, "  Test rows: %d\n", result.TestRows)
	if opts.Verbose {
		for _, f := range result.Files {
			fmt.Fprintf(w, "    %s\n", f)
		}
	}
}

// PrintConfigSummary prints the datasets and split of a run configuration.
func PrintConfigSummary(w io.Writer, cfg *trip.RunConfig) {
	if cfg == nil {
		return
	}
	fmt.Fprintf(w, "  Run: %s\n", cfg.Name)
	fmt.Fprintf(w, "  Mode: %s\n", cfg.WriteMode)
	fmt.Fprintf(w, "  Clean dir: %s\n", cfg.CleanDir)
	for _, d := range cfg.Datasets {
		fmt.Fprintf(w, "  Dataset %s: %s (%s)\n", d.Name, d.Source, d.Pipeline)
		for _, c := range d.Conditions {
			fmt.Fprintf(w, "    condition: %s\n", c)
		}
	}
	if cfg.Split != nil {
		fmt.Fprintf(w, "  Split: %s → %s (train fraction %.2f, seed %d",
			cfg.Split.Dataset, cfg.Split.OutputDir, cfg.Split.TrainFraction, cfg.Split.Seed)
		if cfg.Split.LimitRows > 0 {
			fmt.Fprintf(w, ", limit %d", cfg.Split.LimitRows)
		}
		fmt.Fprintln(w, ")")
	}
}
