package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

//go:embed schema/run-schema.json
var embeddedSchema []byte

const schemaURL = "https://github.com/orihuela-iom/fare-taxi-prediction/schemas/run/v1.0.0/run-schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

// GetEmbeddedSchema returns the embedded run schema.
func GetEmbeddedSchema() []byte {
	return embeddedSchema
}

// getCompiledSchema compiles the embedded schema once.
func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(embeddedSchema))
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, schemaInitErr = compiler.Compile(schemaURL)
		if schemaInitErr != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", schemaInitErr)
		}
	})
	return compiledSchema, schemaInitErr
}

// ValidateConfig validates parsed configuration data against the run schema.
// It returns nil when the data is valid.
func ValidateConfig(data map[string]interface{}) []ValidationError {
	if len(data) == 0 {
		return []ValidationError{{Path: "/", Type: "required", Message: "configuration is empty"}}
	}

	schema, err := getCompiledSchema()
	if err != nil {
		return []ValidationError{{Path: "/", Type: "schema", Message: fmt.Sprintf("failed to load schema: %v", err)}}
	}

	validationErr := schema.Validate(data)
	if validationErr == nil {
		return nil
	}
	detailed, ok := validationErr.(*jsonschema.ValidationError)
	if !ok {
		return []ValidationError{{Path: "/", Type: "validation", Message: validationErr.Error()}}
	}
	return convertValidationErrors(detailed)
}

// convertValidationErrors flattens the leaf causes of a validation error.
func convertValidationErrors(err *jsonschema.ValidationError) []ValidationError {
	if len(err.Causes) == 0 {
		return []ValidationError{{
			Path:    formatInstanceLocation(err.InstanceLocation),
			Type:    extractErrorType(err),
			Message: err.Error(),
		}}
	}
	var out []ValidationError
	for _, cause := range err.Causes {
		out = append(out, convertValidationErrors(cause)...)
	}
	return out
}

// formatInstanceLocation formats the instance location as a JSON pointer.
func formatInstanceLocation(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

// extractErrorType maps a validation error to its keyword family.
func extractErrorType(err *jsonschema.ValidationError) string {
	switch err.ErrorKind.(type) {
	case *kind.Required:
		return "required"
	case *kind.AdditionalProperties:
		return "additionalProperties"
	case *kind.Type:
		return "type"
	case *kind.Enum, *kind.Const:
		return "enum"
	case *kind.Pattern:
		return "pattern"
	case *kind.Minimum, *kind.Maximum, *kind.ExclusiveMinimum, *kind.ExclusiveMaximum:
		return "range"
	case *kind.MinItems, *kind.MaxItems, *kind.MinLength, *kind.MaxLength:
		return "length"
	default:
		return "validation"
	}
}
