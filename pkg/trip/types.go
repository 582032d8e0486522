// Package trip provides public types for the taxi fare data preparation pipeline.
// This package is intended to be importable by the external collaborators
// (downloader, trainer, predictor) that feed or consume the cleaned datasets.
package trip

import (
	"fmt"
	"strings"
	"time"
)

// Raw input columns.
const (
	ColKey              = "key"
	ColPickupDatetime   = "pickup_datetime"
	ColPickupLongitude  = "pickup_longitude"
	ColPickupLatitude   = "pickup_latitude"
	ColDropoffLongitude = "dropoff_longitude"
	ColDropoffLatitude  = "dropoff_latitude"
	ColPassengerCount   = "passenger_count"
	ColFareAmount       = "fare_amount"
)

// Derived columns.
const (
	ColDistance        = "distance"
	ColFarePerDistance = "fare_per_distance"
	ColPickupTime      = "pickup_time"
	ColPickupYear      = "pickup_year"
	ColPickupMonth     = "pickup_month"
	ColPickupHour      = "pickup_hour"
	ColPickupDay       = "pickup_day"
)

// CoordinateColumns lists the four coordinate fields in pickup/dropoff, lon/lat order.
var CoordinateColumns = []string{
	ColPickupLongitude,
	ColPickupLatitude,
	ColDropoffLongitude,
	ColDropoffLatitude,
}

// Mode selects which of the two dataset flavors a pipeline produces.
type Mode string

const (
	// ModeTraining has a fare and no key.
	ModeTraining Mode = "training"
	// ModeInference has a key and no fare.
	ModeInference Mode = "inference"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTraining:
		return ModeTraining, nil
	case ModeInference:
		return ModeInference, nil
	default:
		return "", fmt.Errorf("unknown pipeline mode %q (expected %q or %q)", s, ModeTraining, ModeInference)
	}
}

// RequiredColumns returns the input columns a raw dataset must carry for this mode.
func (m Mode) RequiredColumns() []string {
	cols := []string{ColPickupDatetime}
	cols = append(cols, CoordinateColumns...)
	cols = append(cols, ColPassengerCount)
	switch m {
	case ModeTraining:
		cols = append(cols, ColFareAmount)
	case ModeInference:
		cols = append(cols, ColKey)
	}
	return cols
}

// WriteMode decides what happens when a cleaned artifact already exists.
type WriteMode int

const (
	// WriteOverwrite always recomputes and replaces the artifact.
	WriteOverwrite WriteMode = iota
	// WritePreserve skips the pipeline when the artifact exists.
	WritePreserve
)

// String returns the configuration spelling of the write mode.
func (m WriteMode) String() string {
	switch m {
	case WritePreserve:
		return "preserve"
	default:
		return "overwrite"
	}
}

// ParseWriteMode converts a configuration string into a WriteMode.
// "over_write" is accepted as an alias of "overwrite".
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "over_write":
		return WriteOverwrite, nil
	case "preserve":
		return WritePreserve, nil
	default:
		return WriteOverwrite, fmt.Errorf("unknown write mode %q (expected \"overwrite\" or \"preserve\")", s)
	}
}

// StageConfig describes one stage of a pipeline by registered type name.
type StageConfig struct {
	// Type is the registered stage type (e.g., "boundingBox", "distance", "project")
	Type string `json:"type"`

	// Config contains stage-specific settings
	Config map[string]interface{} `json:"config,omitempty"`
}

// RunConfig is the validated content of a run configuration file.
type RunConfig struct {
	// Name identifies the run in logs
	Name string `json:"name"`

	// WriteMode is the guard applied to every cleaned artifact
	WriteMode WriteMode `json:"-"`

	// CleanDir is where cleaned parquet artifacts and manifests are written
	CleanDir string `json:"cleanDir"`

	// Datasets lists the raw files to clean, in execution order
	Datasets []DatasetConfig `json:"datasets"`

	// Split configures the partitioner; nil disables it
	Split *SplitConfig `json:"split,omitempty"`

	// Logging configures the logger
	Logging LoggingConfig `json:"logging"`
}

// Dataset returns the dataset configuration with the given name.
func (c *RunConfig) Dataset(name string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return DatasetConfig{}, false
}

// DatasetConfig describes one raw input and the pipeline applied to it.
type DatasetConfig struct {
	// Name is the artifact base name (e.g., "train" -> train.parquet)
	Name string `json:"name"`

	// Source is the raw CSV path
	Source string `json:"source"`

	// Pipeline selects the training or inference composition
	Pipeline Mode `json:"pipeline"`

	// Conditions are extra row predicates (training only)
	Conditions []string `json:"conditions,omitempty"`
}

// SplitConfig configures the train/test partitioner.
type SplitConfig struct {
	// Dataset is the name of the cleaned dataset to split
	Dataset string `json:"dataset"`

	// OutputDir receives X_train.csv, Y_train.csv, x_test.csv and y_test.csv
	OutputDir string `json:"outputDir"`

	// LimitRows keeps only the first N rows before shuffling (0 = no limit)
	LimitRows int `json:"limitRows,omitempty"`

	// TrainFraction is the share of rows sent to the train partition, in (0,1)
	TrainFraction float64 `json:"trainFraction"`

	// Seed drives the deterministic shuffle
	Seed uint64 `json:"seed"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
	File   string `json:"file,omitempty"`
}

// Execution status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// ExecutionResult represents the result of one cleaning pipeline run.
type ExecutionResult struct {
	// RunID correlates logs, results and manifests of one invocation
	RunID string `json:"runId"`

	// Dataset is the dataset name (artifact base name)
	Dataset string `json:"dataset"`

	// Pipeline is the composition that ran
	Pipeline Mode `json:"pipeline"`

	// Status is "success", "error" or "skipped"
	Status string `json:"status"`

	// StartedAt is when execution started
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when execution completed
	CompletedAt time.Time `json:"completedAt"`

	// RowsRead is the row count produced by the record source
	RowsRead int `json:"rowsRead"`

	// RowsWritten is the row count of the persisted artifact
	RowsWritten int `json:"rowsWritten"`

	// Columns is the output schema
	Columns []string `json:"columns,omitempty"`

	// ArtifactPath is the cleaned artifact location
	ArtifactPath string `json:"artifactPath"`

	// Stages holds per-stage row counts in execution order
	Stages []StageResult `json:"stages,omitempty"`

	// Error contains error details if execution failed
	Error *ExecutionError `json:"error,omitempty"`
}

// StageResult records what one stage did to the row count.
type StageResult struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	RowsIn   int           `json:"rowsIn"`
	RowsOut  int           `json:"rowsOut"`
	Duration time.Duration `json:"duration"`
}

// ExecutionError contains details about an execution failure.
type ExecutionError struct {
	// Code is the error code
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Stage is the stage where the error occurred
	Stage string `json:"stage,omitempty"`

	// Category is the error classification (io, schema, parse, config, unknown)
	Category string `json:"category,omitempty"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`
}
