// Package errhandling provides the error taxonomy of the data preparation pipeline.
// Errors are classified into categories that decide whether a run aborts
// (io, schema, config) or degrades a single value (parse).
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryIO covers missing or unreadable inputs and unwritable outputs. Fatal.
	CategoryIO ErrorCategory = "io"

	// CategorySchema covers missing required columns or columns of the wrong type. Fatal.
	CategorySchema ErrorCategory = "schema"

	// CategoryParse covers a single unparseable value. Not fatal: the value becomes null.
	CategoryParse ErrorCategory = "parse"

	// CategoryConfig covers invalid run or stage configuration. Fatal.
	CategoryConfig ErrorCategory = "config"

	// CategoryUnknown represents unclassified errors (library errors propagated as-is).
	CategoryUnknown ErrorCategory = "unknown"
)

// Sentinels matched by errors.Is against any ClassifiedError of the same category.
var (
	ErrIO     = errors.New("io error")
	ErrSchema = errors.New("schema error")
	ErrParse  = errors.New("parse error")
	ErrConfig = errors.New("config error")
)

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Fatal indicates whether the error aborts the run.
	Fatal bool

	// Path is the file involved, if any.
	Path string

	// Column is the dataset column involved, if any.
	Column string

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("%s error (%s): %s", e.Category, e.Path, e.Message)
	case e.Column != "":
		return fmt.Sprintf("%s error (column %q): %s", e.Category, e.Column, e.Message)
	default:
		return fmt.Sprintf("%s error: %s", e.Category, e.Message)
	}
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the sentinel of this error's category.
func (e *ClassifiedError) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Category == CategoryIO
	case ErrSchema:
		return e.Category == CategorySchema
	case ErrParse:
		return e.Category == CategoryParse
	case ErrConfig:
		return e.Category == CategoryConfig
	}
	return false
}

// NewIOError creates a ClassifiedError for a file that cannot be read or written.
func NewIOError(path string, originalErr error) *ClassifiedError {
	msg := "i/o failure"
	if originalErr != nil {
		msg = originalErr.Error()
	}
	return &ClassifiedError{
		Category:    CategoryIO,
		Fatal:       true,
		Path:        path,
		Message:     msg,
		OriginalErr: originalErr,
	}
}

// NewSchemaError creates a ClassifiedError for a missing or mistyped column.
func NewSchemaError(column, message string) *ClassifiedError {
	return &ClassifiedError{
		Category: CategorySchema,
		Fatal:    true,
		Column:   column,
		Message:  message,
	}
}

// NewParseError creates a non-fatal ClassifiedError for one unparseable value.
func NewParseError(column, value string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryParse,
		Fatal:       false,
		Column:      column,
		Message:     fmt.Sprintf("cannot parse %q", value),
		OriginalErr: originalErr,
	}
}

// NewConfigError creates a ClassifiedError for invalid configuration.
func NewConfigError(message string, originalErr error) *ClassifiedError {
	if originalErr != nil {
		message = message + ": " + originalErr.Error()
	}
	return &ClassifiedError{
		Category:    CategoryConfig,
		Fatal:       true,
		Message:     message,
		OriginalErr: originalErr,
	}
}

// ClassifyError classifies any error into a ClassifiedError.
// Already classified errors are returned as-is; filesystem errors become io errors.
// Everything else is unknown and fatal: a batch run has no retry path.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{
			Category: CategoryUnknown,
			Message:  "nil error",
		}
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return &ClassifiedError{
			Category:    CategoryIO,
			Fatal:       true,
			Path:        pathErr.Path,
			Message:     pathErr.Err.Error(),
			OriginalErr: err,
		}
	}

	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return &ClassifiedError{
			Category:    CategoryIO,
			Fatal:       true,
			Message:     err.Error(),
			OriginalErr: err,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{
			Category:    CategoryUnknown,
			Fatal:       true,
			Message:     "run interrupted",
			OriginalErr: err,
		}
	}

	return &ClassifiedError{
		Category:    CategoryUnknown,
		Fatal:       true,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// IsFatal returns true if the error aborts the run. Only parse errors are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Fatal
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil or unclassified errors.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}

	return CategoryUnknown
}
