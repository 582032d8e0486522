// Package runtime provides the pipeline execution engine.
// It orchestrates one cleaning run: Source → Stages → parquet artifact → manifest.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/persistence"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/registry"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Job describes one dataset to clean.
type Job struct {
	// RunID correlates logs and manifests; generated when empty
	RunID string

	// Name is the artifact base name (<CleanDir>/<Name>.parquet)
	Name string

	// Source is the raw input path; its extension selects the reader
	Source string

	// Pipeline selects the training or inference composition
	Pipeline trip.Mode

	// Conditions are extra row predicates (training only)
	Conditions []string

	// CleanDir receives the artifact and its manifest
	CleanDir string

	// WriteMode is the guard applied when the artifact already exists
	WriteMode trip.WriteMode
}

// ArtifactPath returns where the cleaned table is written.
func (j Job) ArtifactPath() string {
	return filepath.Join(j.CleanDir, j.Name+".parquet")
}

// JobsFromConfig creates one job per configured dataset, in order.
func JobsFromConfig(cfg *trip.RunConfig, runID string) []Job {
	jobs := make([]Job, 0, len(cfg.Datasets))
	for _, d := range cfg.Datasets {
		jobs = append(jobs, Job{
			RunID:      runID,
			Name:       d.Name,
			Source:     d.Source,
			Pipeline:   d.Pipeline,
			Conditions: d.Conditions,
			CleanDir:   cfg.CleanDir,
			WriteMode:  cfg.WriteMode,
		})
	}
	return jobs
}

// Executor runs cleaning jobs.
type Executor struct {
	manifests *persistence.ManifestStore
}

// NewExecutor creates an executor. When manifests is nil, no manifest is
// written after a successful run.
func NewExecutor(manifests *persistence.ManifestStore) *Executor {
	return &Executor{manifests: manifests}
}

// validateJob checks the job before anything touches the filesystem.
func validateJob(job Job) error {
	switch {
	case job.Name == "":
		return ErrNoDatasetName
	case job.Source == "":
		return ErrNoSource
	case job.CleanDir == "":
		return ErrNoCleanDir
	}
	return nil
}

// Run cleans one dataset. The returned result is never nil; on failure its
// Error field carries the code, stage and category of the error.
//
// Execution flow:
//  1. Validate the job
//  2. Apply the write guard (preserve + existing artifact = skipped)
//  3. Resolve the source and the stage composition
//  4. Collect the lazy frame once
//  5. Write the parquet artifact atomically, then the manifest
func (e *Executor) Run(ctx context.Context, job Job) (*trip.ExecutionResult, error) {
	if job.RunID == "" {
		job.RunID = uuid.NewString()
	}
	startedAt := time.Now()
	result := &trip.ExecutionResult{
		RunID:        job.RunID,
		Dataset:      job.Name,
		Pipeline:     job.Pipeline,
		Status:       trip.StatusError,
		StartedAt:    startedAt,
		ArtifactPath: job.ArtifactPath(),
	}

	execCtx := logger.ExecutionContext{
		RunID:      job.RunID,
		Dataset:    job.Name,
		Pipeline:   string(job.Pipeline),
		StageIndex: -1,
	}
	logger.LogExecutionStart(execCtx)

	fail := func(code, stage string, err error) (*trip.ExecutionResult, error) {
		result.CompletedAt = time.Now()
		result.Error = buildExecutionError(code, stage, err)
		logger.LogError("pipeline execution failed", logger.ErrorContext{
			ExecutionContext: logger.ExecutionContext{
				RunID:      job.RunID,
				Dataset:    job.Name,
				Pipeline:   string(job.Pipeline),
				Stage:      stage,
				StageIndex: -1,
			},
			Category: result.Error.Category,
			Path:     job.Source,
			Err:      err,
			Duration: time.Since(startedAt),
		})
		logger.LogExecutionEnd(execCtx, trip.StatusError, 0, time.Since(startedAt))
		return result, err
	}

	if err := validateJob(job); err != nil {
		return fail(ErrCodeInvalidJob, "", err)
	}

	if job.WriteMode == trip.WritePreserve {
		exists, err := persistence.Exists(result.ArtifactPath)
		if err != nil {
			return fail(ErrCodeGuardFailed, "", err)
		}
		if exists {
			logger.Info("artifact exists; skipping pipeline",
				slog.String("run_id", job.RunID),
				slog.String("dataset", job.Name),
				slog.String("path", result.ArtifactPath),
				slog.String("mode", job.WriteMode.String()),
			)
			result.Status = trip.StatusSkipped
			result.CompletedAt = time.Now()
			logger.LogExecutionEnd(execCtx, trip.StatusSkipped, 0, time.Since(startedAt))
			return result, nil
		}
	}

	src, err := registry.InputFor(job.Source, job.Pipeline)
	if err != nil {
		return fail(ErrCodeInvalidJob, "", err)
	}
	configs, err := StagesFor(job.Pipeline, job.Conditions)
	if err != nil {
		return fail(ErrCodeInvalidJob, "", err)
	}
	stages, err := registry.BuildFilters(configs)
	if err != nil {
		return fail(ErrCodeInvalidJob, "", err)
	}

	lf, err := src.Scan(ctx)
	if err != nil {
		return fail(ErrCodeInputFailed, frame.ScanStageName, err)
	}
	lf = lf.Pipe(stages...)

	logger.Debug("pipeline planned",
		slog.String("run_id", job.RunID),
		slog.String("dataset", job.Name),
		slog.Any("stages", lf.Plan()),
	)

	var (
		scanDuration time.Duration
		failedStage  = -1
		failedName   string
	)
	observe := func(r frame.StageReport) {
		stageCtx := execCtx
		stageCtx.Stage = r.Name
		stageCtx.StageIndex = r.Index
		logger.LogStageEnd(stageCtx, r.RowsIn, r.RowsOut, r.Duration, r.Err)

		if r.Err != nil {
			failedStage, failedName = r.Index, r.Name
			return
		}
		if r.Index < 0 {
			result.RowsRead = r.RowsOut
			scanDuration = r.Duration
			return
		}
		result.Stages = append(result.Stages, trip.StageResult{
			Index:    r.Index,
			Name:     r.Name,
			RowsIn:   r.RowsIn,
			RowsOut:  r.RowsOut,
			Duration: r.Duration,
		})
	}

	df, err := lf.Collect(ctx, observe)
	if err != nil {
		switch {
		case failedName == frame.ScanStageName && failedStage < 0:
			return fail(ErrCodeInputFailed, failedName, err)
		case failedName != "":
			return fail(ErrCodeStageFailed, failedName, err)
		default:
			// canceled between stages
			return fail(ErrCodeStageFailed, "", err)
		}
	}

	sink, err := registry.OutputFor(result.ArtifactPath)
	if err != nil {
		return fail(ErrCodeOutputFailed, "write", err)
	}
	writeStart := time.Now()
	written, err := sink.Write(ctx, df)
	if err != nil {
		return fail(ErrCodeOutputFailed, "write", err)
	}
	writeDuration := time.Since(writeStart)

	result.RowsWritten = written
	result.Columns = df.Names()
	result.Status = trip.StatusSuccess
	result.CompletedAt = time.Now()

	if e.manifests != nil {
		if err := e.manifests.Save(job.Name, manifestFor(job, result)); err != nil {
			return fail(ErrCodeOutputFailed, "manifest", fmt.Errorf("saving manifest: %w", err))
		}
	}

	total := time.Since(startedAt)
	var rowsPerSecond float64
	if total > 0 {
		rowsPerSecond = float64(result.RowsRead) / total.Seconds()
	}
	logger.LogExecutionEnd(execCtx, trip.StatusSuccess, written, total)
	logger.LogMetrics(execCtx, logger.ExecutionMetrics{
		TotalDuration: total,
		ScanDuration:  scanDuration,
		WriteDuration: writeDuration,
		RowsRead:      result.RowsRead,
		RowsWritten:   written,
		RowsDropped:   result.RowsRead - written,
		RowsPerSecond: rowsPerSecond,
	})
	return result, nil
}

func manifestFor(job Job, result *trip.ExecutionResult) *persistence.Manifest {
	return &persistence.Manifest{
		Pipeline:    job.Pipeline,
		RunID:       job.RunID,
		Source:      job.Source,
		Artifact:    result.ArtifactPath,
		WriteMode:   job.WriteMode.String(),
		RowsRead:    result.RowsRead,
		RowsWritten: result.RowsWritten,
		Columns:     result.Columns,
		Stages:      result.Stages,
		CreatedAt:   result.CompletedAt,
	}
}

// CleanAll runs every job in order and stops at the first failure.
// Results of the jobs that ran are returned in both cases.
func (e *Executor) CleanAll(ctx context.Context, jobs []Job) ([]*trip.ExecutionResult, error) {
	results := make([]*trip.ExecutionResult, 0, len(jobs))
	for _, job := range jobs {
		res, err := e.Run(ctx, job)
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("cleaning dataset %q: %w", job.Name, err)
		}
	}
	return results, nil
}
