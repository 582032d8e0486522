package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Load failures, distinguishable with errors.Is.
var (
	ErrParseFailed      = errors.New("configuration parse failed")
	ErrValidationFailed = errors.New("configuration validation failed")
)

// Load parses, validates and converts a run configuration file.
// The Result is returned even on failure so callers can print every error.
// Relative paths in the file are resolved against the file's directory.
func Load(path string) (*trip.RunConfig, *Result, error) {
	result := ParseConfig(path)
	if len(result.ParseErrors) > 0 {
		return nil, result, fmt.Errorf("%w: %s", ErrParseFailed, result.ParseErrors[0].Error())
	}
	if len(result.ValidationErrors) > 0 {
		return nil, result, fmt.Errorf("%w: %d error(s), first: %s",
			ErrValidationFailed, len(result.ValidationErrors), result.ValidationErrors[0].Error())
	}

	cfg, err := ConvertToRunConfig(result.Data, filepath.Dir(path))
	if err != nil {
		return nil, result, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return cfg, result, nil
}
