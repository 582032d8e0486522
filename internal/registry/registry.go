// Package registry provides module registries for input, filter, and output modules.
//
// # Overview
//
// Pipelines are described in configuration as ordered lists of stage type
// names. Instead of hard-coded switch statements, modules register their
// constructors by type string and the runtime resolves them here.
//
// # Adding a New Stage
//
// To add a new filter stage (e.g., a "passengerRange" stage):
//
//  1. Implement filter.Module (Name and Process over a dataframe)
//  2. Create a constructor matching FilterConstructor
//  3. Register the constructor in an init() function
//
// Example:
//
//	func init() {
//	    registry.RegisterFilter("passengerRange", func(cfg trip.StageConfig, index int) (filter.Module, error) {
//	        return NewPassengerRangeFromConfig(cfg.Config)
//	    })
//	}
//
// # Built-in Modules
//
// Built-in modules are registered automatically via init() in builtins.go.
// Inputs and outputs are keyed by file format ("csv", "parquet").
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/filter"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/input"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/output"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// InputConstructor creates a record source for path. mode decides which
// columns the source must provide.
type InputConstructor func(path string, mode trip.Mode) (input.Module, error)

// FilterConstructor creates a filter stage from configuration.
// The constructor receives the StageConfig and the stage's index in the pipeline.
// Returns an error if the configuration is invalid.
type FilterConstructor func(cfg trip.StageConfig, index int) (filter.Module, error)

// OutputConstructor creates a sink writing to path.
type OutputConstructor func(path string) (output.Module, error)

// inputRegistry holds registered input module constructors.
var (
	inputMu       sync.RWMutex
	inputRegistry = make(map[string]InputConstructor)
)

// filterRegistry holds registered filter module constructors.
var (
	filterMu       sync.RWMutex
	filterRegistry = make(map[string]FilterConstructor)
)

// outputRegistry holds registered output module constructors.
var (
	outputMu       sync.RWMutex
	outputRegistry = make(map[string]OutputConstructor)
)

// RegisterInput registers an input constructor by format.
// Calling RegisterInput with an already registered format will overwrite
// the previous constructor.
func RegisterInput(format string, constructor InputConstructor) {
	inputMu.Lock()
	defer inputMu.Unlock()
	inputRegistry[format] = constructor
}

// RegisterFilter registers a filter module constructor by type string.
// Calling RegisterFilter with an already registered type will overwrite
// the previous constructor.
//
// This function is safe for concurrent use and is typically called from
// init() functions.
func RegisterFilter(moduleType string, constructor FilterConstructor) {
	filterMu.Lock()
	defer filterMu.Unlock()
	filterRegistry[moduleType] = constructor
}

// RegisterOutput registers an output constructor by format.
func RegisterOutput(format string, constructor OutputConstructor) {
	outputMu.Lock()
	defer outputMu.Unlock()
	outputRegistry[format] = constructor
}

// GetInputConstructor returns the registered constructor for a format.
// Returns nil if no constructor is registered for the given format.
func GetInputConstructor(format string) InputConstructor {
	inputMu.RLock()
	defer inputMu.RUnlock()
	return inputRegistry[format]
}

// GetFilterConstructor returns the registered constructor for a filter module type.
// Returns nil if no constructor is registered for the given type.
func GetFilterConstructor(moduleType string) FilterConstructor {
	filterMu.RLock()
	defer filterMu.RUnlock()
	return filterRegistry[moduleType]
}

// GetOutputConstructor returns the registered constructor for a format.
func GetOutputConstructor(format string) OutputConstructor {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return outputRegistry[format]
}

// FormatOf derives the registry format key from a file extension.
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// InputFor resolves the record source for path by its extension.
func InputFor(path string, mode trip.Mode) (input.Module, error) {
	format := FormatOf(path)
	constructor := GetInputConstructor(format)
	if constructor == nil {
		return nil, errhandling.NewConfigError(
			fmt.Sprintf("no input registered for format %q (path %s)", format, path), nil)
	}
	return constructor(path, mode)
}

// OutputFor resolves the sink for path by its extension.
func OutputFor(path string) (output.Module, error) {
	format := FormatOf(path)
	constructor := GetOutputConstructor(format)
	if constructor == nil {
		return nil, errhandling.NewConfigError(
			fmt.Sprintf("no output registered for format %q (path %s)", format, path), nil)
	}
	return constructor(path)
}

// BuildFilters instantiates the configured stages in order.
// An unknown type or an invalid stage configuration is a config error.
func BuildFilters(configs []trip.StageConfig) ([]filter.Module, error) {
	modules := make([]filter.Module, 0, len(configs))
	for i, cfg := range configs {
		constructor := GetFilterConstructor(cfg.Type)
		if constructor == nil {
			return nil, errhandling.NewConfigError(
				fmt.Sprintf("unknown stage type %q at index %d", cfg.Type, i), nil)
		}
		module, err := constructor(cfg, i)
		if err != nil {
			return nil, errhandling.NewConfigError(
				fmt.Sprintf("invalid %s config at index %d", cfg.Type, i), err)
		}
		modules = append(modules, module)
	}
	return modules, nil
}

// ListInputTypes returns all registered input formats, sorted.
func ListInputTypes() []string {
	inputMu.RLock()
	defer inputMu.RUnlock()
	return sortedKeys(inputRegistry)
}

// ListFilterTypes returns all registered filter module type names, sorted.
// Useful for documentation and debugging.
func ListFilterTypes() []string {
	filterMu.RLock()
	defer filterMu.RUnlock()
	return sortedKeys(filterRegistry)
}

// ListOutputTypes returns all registered output formats, sorted.
func ListOutputTypes() []string {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return sortedKeys(outputRegistry)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearRegistries removes all registered constructors.
// This is intended for testing purposes only.
func ClearRegistries() {
	inputMu.Lock()
	inputRegistry = make(map[string]InputConstructor)
	inputMu.Unlock()

	filterMu.Lock()
	filterRegistry = make(map[string]FilterConstructor)
	filterMu.Unlock()

	outputMu.Lock()
	outputRegistry = make(map[string]OutputConstructor)
	outputMu.Unlock()
}
