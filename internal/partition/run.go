package partition

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/input"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/output"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Output file names. Predictor files carry a header, target files do not.
const (
	FileXTrain = "X_train.csv"
	FileYTrain = "Y_train.csv"
	FileXTest  = "x_test.csv"
	FileYTest  = "y_test.csv"
)

// Job describes one split run.
type Job struct {
	// RunID correlates logs; generated when empty
	RunID string
	// Source is the cleaned parquet artifact
	Source string
	// OutputDir receives the four CSV files
	OutputDir string
	// Options drive the split
	Options Options
}

// Result reports what a split run wrote.
type Result struct {
	RunID     string
	RowsRead  int
	TrainRows int
	TestRows  int
	Files     []string
}

// Write stores the four tables of p in dir, each atomically.
func Write(ctx context.Context, p *Partitions, dir string) ([]string, error) {
	tables := []struct {
		name   string
		header bool
		df     dataframe.DataFrame
	}{
		{FileXTrain, true, p.XTrain},
		{FileYTrain, false, p.YTrain},
		{FileXTest, true, p.XTest},
		{FileYTest, false, p.YTest},
	}

	files := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		out, err := output.NewCSVOutput(path, t.header)
		if err != nil {
			return files, err
		}
		if _, err := out.Write(ctx, t.df); err != nil {
			return files, fmt.Errorf("writing %s: %w", t.name, err)
		}
		files = append(files, path)
	}
	return files, nil
}

// Run reads the cleaned artifact, splits it and writes the partitions.
func Run(ctx context.Context, job Job) (*Result, error) {
	if job.RunID == "" {
		job.RunID = uuid.NewString()
	}
	startedAt := time.Now()
	execCtx := logger.ExecutionContext{
		RunID:      job.RunID,
		Dataset:    filepath.Base(job.Source),
		Pipeline:   "split",
		StageIndex: -1,
	}
	logger.LogExecutionStart(execCtx)

	result, err := run(ctx, job)
	if err != nil {
		logger.LogError("split failed", logger.ErrorContext{
			ExecutionContext: execCtx,
			Path:             job.Source,
			Err:              err,
			Duration:         time.Since(startedAt),
		})
		return nil, err
	}

	logger.LogExecutionEnd(execCtx, trip.StatusSuccess, result.TrainRows+result.TestRows, time.Since(startedAt))
	return result, nil
}

func run(ctx context.Context, job Job) (*Result, error) {
	if err := job.Options.Validate(); err != nil {
		return nil, err
	}

	src, err := input.NewParquetSource(job.Source, Target)
	if err != nil {
		return nil, err
	}
	lf, err := src.Scan(ctx)
	if err != nil {
		return nil, err
	}
	df, err := lf.Collect(ctx)
	if err != nil {
		return nil, err
	}

	p, err := Split(ctx, df, job.Options)
	if err != nil {
		return nil, err
	}

	logger.WithRun(job.RunID).Info("dataset partitioned",
		slog.Int("rows_read", df.Nrow()),
		slog.Int("limit", job.Options.Limit),
		slog.Int("train_rows", p.TrainRows()),
		slog.Int("test_rows", p.TestRows()),
		slog.Uint64("seed", job.Options.Seed),
	)

	files, err := Write(ctx, p, job.OutputDir)
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:     job.RunID,
		RowsRead:  df.Nrow(),
		TrainRows: p.TrainRows(),
		TestRows:  p.TestRows(),
		Files:     files,
	}, nil
}
