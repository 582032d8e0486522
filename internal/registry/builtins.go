// Package registry provides module registries for the fare preparation runtime.
// This file registers all built-in modules during initialization.
package registry

import (
	"fmt"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/filter"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/input"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/output"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

func init() {
	RegisterBuiltins()
}

// RegisterBuiltins (re)registers every built-in module. Tests that clear
// the registries call it to restore the defaults.
func RegisterBuiltins() {
	registerBuiltinInputModules()
	registerBuiltinFilterModules()
	registerBuiltinOutputModules()
}

// registerBuiltinInputModules registers all built-in input formats.
func registerBuiltinInputModules() {
	// csv - raw trip files
	RegisterInput("csv", func(path string, mode trip.Mode) (input.Module, error) {
		return input.NewCSVSource(path, mode)
	})

	// parquet - cleaned artifacts; the schema is whatever the cleaner wrote
	RegisterInput("parquet", func(path string, _ trip.Mode) (input.Module, error) {
		return input.NewParquetSource(path)
	})
}

// registerBuiltinFilterModules registers all built-in filter module types.
func registerBuiltinFilterModules() {
	// boundingBox - keep rows whose pickup and dropoff fall inside the box
	RegisterFilter("boundingBox", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewBoundingBoxFromConfig(cfg.Config)
	})

	// dropNullCoordinates - drop rows with a missing coordinate
	RegisterFilter("dropNullCoordinates", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewDropNullCoordinatesFromConfig(cfg.Config)
	})

	// fareRange - keep rows with lower < fare <= upper
	RegisterFilter("fareRange", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewFareRangeFromConfig(cfg.Config)
	})

	// distance - add the great-circle trip distance in km
	RegisterFilter("distance", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewDistance(), nil
	})

	// positiveDistance - drop zero-length trips
	RegisterFilter("positiveDistance", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewPositiveDistance(), nil
	})

	// farePerDistance - add fare / distance
	RegisterFilter("farePerDistance", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewFarePerDistance(), nil
	})

	// farePerDistanceCeiling - drop rows priced above the ceiling per km
	RegisterFilter("farePerDistanceCeiling", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewFarePerDistanceCeilingFromConfig(cfg.Config)
	})

	// temporal - derive pickup time features
	RegisterFilter("temporal", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewTemporal(), nil
	})

	// project - keep the columns of a training or inference dataset
	RegisterFilter("project", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		return filter.NewProjectFromConfig(cfg.Config)
	})

	// condition - keep rows matching an expression
	RegisterFilter("condition", func(cfg trip.StageConfig, index int) (filter.Module, error) {
		condConfig := filter.ConditionConfig{}
		expr, ok := cfg.Config["expression"].(string)
		if !ok || expr == "" {
			return nil, fmt.Errorf("required field 'expression' is missing or empty in condition config at index %d", index)
		}
		condConfig.Expression = expr
		if onError, ok := cfg.Config["onError"].(string); ok {
			condConfig.OnError = onError
		}
		return filter.NewConditionFromConfig(condConfig)
	})
}

// registerBuiltinOutputModules registers all built-in output formats.
func registerBuiltinOutputModules() {
	RegisterOutput("parquet", func(path string) (output.Module, error) {
		return output.NewParquetOutput(path)
	})

	// csv outputs resolved through the registry always carry a header
	RegisterOutput("csv", func(path string) (output.Module, error) {
		return output.NewCSVOutput(path, true)
	})
}
