package config

import (
	"fmt"
	"path/filepath"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Defaults applied to optional configuration fields.
const (
	DefaultCleanDir      = "data/clean"
	DefaultTrainFraction = 0.8
	DefaultSeed          = 2024
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// ConvertToRunConfig converts parsed configuration data to a RunConfig.
// The input data should have been validated against the schema before calling this function.
// Relative paths are resolved against baseDir when it is not empty.
//
// The configuration is expected to have this structure:
//
//	{
//	  "schemaVersion": "1.0.0",
//	  "name": "...",
//	  "mode": "preserve",
//	  "cleanDir": "data/clean",
//	  "datasets": [{"name": "train", "source": "...", "pipeline": "training"}],
//	  "split": {"dataset": "train", "outputDir": "..."},
//	  "logging": {"level": "info", "format": "json"}
//	}
func ConvertToRunConfig(data map[string]interface{}, baseDir string) (*trip.RunConfig, error) {
	if data == nil {
		return nil, errhandling.NewConfigError("configuration data is nil", nil)
	}

	cfg := &trip.RunConfig{
		WriteMode: trip.WritePreserve,
		CleanDir:  DefaultCleanDir,
		Logging: trip.LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}

	name, ok := data["name"].(string)
	if !ok || name == "" {
		return nil, errhandling.NewConfigError("missing required field 'name'", nil)
	}
	cfg.Name = name

	if mode, ok := data["mode"].(string); ok {
		writeMode, err := trip.ParseWriteMode(mode)
		if err != nil {
			return nil, errhandling.NewConfigError("invalid 'mode'", err)
		}
		cfg.WriteMode = writeMode
	}

	if cleanDir, ok := data["cleanDir"].(string); ok && cleanDir != "" {
		cfg.CleanDir = cleanDir
	}
	cfg.CleanDir = resolvePath(baseDir, cfg.CleanDir)

	datasetsData, ok := data["datasets"].([]interface{})
	if !ok || len(datasetsData) == 0 {
		return nil, errhandling.NewConfigError("missing or empty 'datasets' section", nil)
	}
	seen := make(map[string]bool, len(datasetsData))
	for i, raw := range datasetsData {
		datasetMap, isMap := raw.(map[string]interface{})
		if !isMap {
			return nil, errhandling.NewConfigError(fmt.Sprintf("invalid dataset at index %d", i), nil)
		}
		dataset, err := convertDataset(datasetMap, baseDir)
		if err != nil {
			return nil, errhandling.NewConfigError(fmt.Sprintf("invalid dataset at index %d", i), err)
		}
		if seen[dataset.Name] {
			return nil, errhandling.NewConfigError(fmt.Sprintf("duplicate dataset name %q", dataset.Name), nil)
		}
		seen[dataset.Name] = true
		cfg.Datasets = append(cfg.Datasets, dataset)
	}

	if splitData, ok := data["split"].(map[string]interface{}); ok {
		split, err := convertSplit(splitData, baseDir)
		if err != nil {
			return nil, errhandling.NewConfigError("invalid 'split' section", err)
		}
		dataset, found := cfg.Dataset(split.Dataset)
		if !found {
			return nil, errhandling.NewConfigError(fmt.Sprintf("split references unknown dataset %q", split.Dataset), nil)
		}
		if dataset.Pipeline != trip.ModeTraining {
			return nil, errhandling.NewConfigError(fmt.Sprintf("split dataset %q must use the training pipeline", split.Dataset), nil)
		}
		cfg.Split = split
	}

	if loggingData, ok := data["logging"].(map[string]interface{}); ok {
		if level, ok := loggingData["level"].(string); ok {
			cfg.Logging.Level = level
		}
		if format, ok := loggingData["format"].(string); ok {
			cfg.Logging.Format = format
		}
		if file, ok := loggingData["file"].(string); ok && file != "" {
			cfg.Logging.File = resolvePath(baseDir, file)
		}
	}

	return cfg, nil
}

// convertDataset converts a raw dataset map to a DatasetConfig.
func convertDataset(data map[string]interface{}, baseDir string) (trip.DatasetConfig, error) {
	var dataset trip.DatasetConfig

	name, ok := data["name"].(string)
	if !ok || name == "" {
		return dataset, fmt.Errorf("missing required field 'name'")
	}
	dataset.Name = name

	source, ok := data["source"].(string)
	if !ok || source == "" {
		return dataset, fmt.Errorf("missing required field 'source'")
	}
	dataset.Source = resolvePath(baseDir, source)

	pipeline, ok := data["pipeline"].(string)
	if !ok {
		return dataset, fmt.Errorf("missing required field 'pipeline'")
	}
	mode, err := trip.ParseMode(pipeline)
	if err != nil {
		return dataset, err
	}
	dataset.Pipeline = mode

	if conditions, ok := data["conditions"].([]interface{}); ok {
		for i, c := range conditions {
			expression, isString := c.(string)
			if !isString {
				return dataset, fmt.Errorf("invalid condition at index %d: expected string, got %T", i, c)
			}
			dataset.Conditions = append(dataset.Conditions, expression)
		}
	}
	if len(dataset.Conditions) > 0 && dataset.Pipeline != trip.ModeTraining {
		return dataset, fmt.Errorf("conditions are only supported by the %s pipeline", trip.ModeTraining)
	}

	return dataset, nil
}

// convertSplit converts a raw split map to a SplitConfig.
func convertSplit(data map[string]interface{}, baseDir string) (*trip.SplitConfig, error) {
	split := &trip.SplitConfig{
		TrainFraction: DefaultTrainFraction,
		Seed:          DefaultSeed,
	}

	dataset, ok := data["dataset"].(string)
	if !ok || dataset == "" {
		return nil, fmt.Errorf("missing required field 'dataset'")
	}
	split.Dataset = dataset

	outputDir, ok := data["outputDir"].(string)
	if !ok || outputDir == "" {
		return nil, fmt.Errorf("missing required field 'outputDir'")
	}
	split.OutputDir = resolvePath(baseDir, outputDir)

	if raw, present := data["limitRows"]; present {
		limit, ok := toInt(raw)
		if !ok || limit < 0 {
			return nil, fmt.Errorf("invalid 'limitRows': %v", raw)
		}
		split.LimitRows = limit
	}

	if raw, present := data["trainFraction"]; present {
		fraction, ok := toFloat(raw)
		if !ok || fraction <= 0 || fraction >= 1 {
			return nil, fmt.Errorf("invalid 'trainFraction': %v (expected a value between 0 and 1)", raw)
		}
		split.TrainFraction = fraction
	}

	if raw, present := data["seed"]; present {
		seed, ok := toInt(raw)
		if !ok || seed < 0 {
			return nil, fmt.Errorf("invalid 'seed': %v", raw)
		}
		split.Seed = uint64(seed)
	}

	return split, nil
}

// toInt accepts the integer shapes produced by encoding/json and yaml.v3.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func resolvePath(baseDir, path string) string {
	if baseDir == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
