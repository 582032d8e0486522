// Package runtime provides error codes and result helpers for pipeline execution.
package runtime

import (
	"errors"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Error codes for pipeline execution errors
const (
	ErrCodeInvalidJob   = "INVALID_JOB"
	ErrCodeInputFailed  = "INPUT_FAILED"
	ErrCodeStageFailed  = "STAGE_FAILED"
	ErrCodeOutputFailed = "OUTPUT_FAILED"
	ErrCodeGuardFailed  = "GUARD_FAILED"
)

// Common errors
var (
	// ErrNoDatasetName is returned when a job has no dataset name
	ErrNoDatasetName = errors.New("dataset name is required")

	// ErrNoSource is returned when a job has no source path
	ErrNoSource = errors.New("source path is required")

	// ErrNoCleanDir is returned when a job has no output directory
	ErrNoCleanDir = errors.New("clean directory is required")
)

// buildExecutionError creates an ExecutionError with classified category.
func buildExecutionError(code, stage string, err error) *trip.ExecutionError {
	cl := errhandling.ClassifyError(err)
	ex := &trip.ExecutionError{
		Code:     code,
		Message:  err.Error(),
		Stage:    stage,
		Category: string(cl.Category),
	}
	if cl.Column != "" {
		ex.Details = map[string]interface{}{"column": cl.Column}
	}
	if cl.Path != "" {
		if ex.Details == nil {
			ex.Details = map[string]interface{}{}
		}
		ex.Details["path"] = cl.Path
	}
	return ex
}
