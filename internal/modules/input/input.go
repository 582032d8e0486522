// Package input provides implementations for input modules.
// Input modules turn an on-disk dataset into a lazily evaluated frame.
package input

import (
	"context"
	"errors"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
)

// ErrNoSource is returned when a module is created without a path.
var ErrNoSource = errors.New("input source path is required")

// Module represents an input module that reads a dataset.
type Module interface {
	// Scan checks that the source is readable and returns a lazy frame over it.
	// No rows are read until the frame is collected.
	Scan(ctx context.Context) (*frame.LazyFrame, error)

	// Path returns the source location, for logs and results.
	Path() string
}
