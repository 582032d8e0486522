// Package filter provides implementations for filter modules.
// Filter modules are pure table stages: row predicates, derived columns and
// projections. None of them modifies its input table.
package filter

import (
	"fmt"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
)

// Module represents a filter module that transforms a table.
type Module = frame.Stage

// Error handling modes for per-row failures.
const (
	OnErrorFail = "fail"
	OnErrorSkip = "skip"
	OnErrorLog  = "log"
)

// floatOption reads a numeric option. YAML decodes integers as int and JSON
// as float64, so both are accepted.
func floatOption(cfg map[string]interface{}, key string, def float64) (float64, error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("option %q must be a number, got %T", key, raw)
	}
}

// stringsOption reads a list of strings option.
func stringsOption(cfg map[string]interface{}, key string) ([]string, error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("option %q must be a list of strings", key)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("option %q must be a list of strings, got %T", key, raw)
	}
}
