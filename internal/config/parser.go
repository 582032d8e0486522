package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseConfig parses and validates a configuration file.
// The format is taken from the extension (.json, .yaml, .yml) and detected
// from content otherwise. Validation runs only when parsing succeeded.
func ParseConfig(path string) *Result {
	result := &Result{FilePath: path}

	content, err := os.ReadFile(path)
	if err != nil {
		result.ParseErrors = append(result.ParseErrors, ParseError{
			Path:    path,
			Message: fmt.Sprintf("failed to read file: %v", err),
			Type:    ErrorTypeIO,
		})
		return result
	}

	parsed := ParseConfigString(string(content), DetectFormat(path))
	parsed.FilePath = path
	for i := range parsed.ParseErrors {
		if parsed.ParseErrors[i].Path == "" {
			parsed.ParseErrors[i].Path = path
		}
	}
	return parsed
}

// ParseConfigString parses and validates configuration content.
// If format is empty, it is detected from content.
func ParseConfigString(content string, format string) *Result {
	result := &Result{Format: format}

	if format == "" {
		switch {
		case IsJSON(content):
			format = FormatJSON
		case IsYAML(content):
			format = FormatYAML
		default:
			result.ParseErrors = append(result.ParseErrors, ParseError{
				Message: "unable to detect configuration format: not valid JSON or YAML",
				Type:    ErrorTypeFormat,
			})
			return result
		}
		result.Format = format
	}

	data, parseErr := decode(content, format)
	if parseErr != nil {
		result.ParseErrors = append(result.ParseErrors, *parseErr)
		return result
	}
	result.Data = data

	result.ValidationErrors = ValidateConfig(data)
	return result
}

// DetectFormat detects the configuration format from file extension.
// Returns "json", "yaml", or empty string if format cannot be detected.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// IsJSON checks if the content appears to be JSON format.
func IsJSON(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}

// IsYAML checks if the content parses as a non-empty YAML document.
// JSON is also valid YAML, so this may return true for JSON content.
func IsYAML(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	var data interface{}
	err := yaml.Unmarshal([]byte(content), &data)
	return err == nil && data != nil
}

// decode unmarshals content into a configuration object.
func decode(content, format string) (map[string]interface{}, *ParseError) {
	if strings.TrimSpace(content) == "" {
		return nil, &ParseError{
			Message: fmt.Sprintf("empty content: expected %s object", strings.ToUpper(format)),
			Type:    ErrorTypeSyntax,
		}
	}

	var data interface{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal([]byte(content), &data); err != nil {
			return nil, jsonError(err, content)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(content), &data); err != nil {
			return nil, yamlError(err)
		}
	default:
		return nil, &ParseError{
			Message: fmt.Sprintf("unsupported format: %s", format),
			Type:    ErrorTypeFormat,
		}
	}

	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid configuration: expected an object, got %T", data),
			Type:    ErrorTypeFormat,
		}
	}
	return obj, nil
}

// jsonError extracts the location of a JSON syntax or type error.
func jsonError(err error, content string) *ParseError {
	parseErr := &ParseError{Message: err.Error(), Type: ErrorTypeSyntax}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, syntaxErr.Offset)
		parseErr.Message = fmt.Sprintf("JSON syntax error: %s", syntaxErr.Error())
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, typeErr.Offset)
	}
	return parseErr
}

// yamlError extracts the line of a YAML error.
// yaml.v3 messages look like "yaml: line 3: did not find expected key".
func yamlError(err error) *ParseError {
	parseErr := &ParseError{Message: err.Error(), Type: ErrorTypeSyntax}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		parseErr.Message = fmt.Sprintf("YAML type error: %s", strings.Join(typeErr.Errors, "; "))
	}

	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		parseErr.Line = line
	}
	return parseErr
}

// offsetToLineColumn converts a byte offset to line and column numbers (1-based).
func offsetToLineColumn(content string, offset int64) (line, column int) {
	line, column = 1, 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
