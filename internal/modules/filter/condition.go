// Package filter provides implementations for filter modules.
// Condition module keeps rows for which an expression evaluates to true.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
)

// ErrCodeEvaluationFailed is the code of a ConditionError.
const ErrCodeEvaluationFailed = "EVALUATION_FAILED"

// Common errors for condition module
var (
	// ErrEmptyExpression is returned when no expression is configured
	ErrEmptyExpression = errors.New("expression cannot be empty")
	// ErrInvalidExpression is returned when the expression syntax is invalid
	ErrInvalidExpression = errors.New("invalid expression syntax")
)

// ConditionConfig represents the configuration for a condition filter module.
type ConditionConfig struct {
	// Expression is a boolean expression over the row's columns (required),
	// e.g. "passenger_count >= 1 && passenger_count <= 6"
	Expression string `json:"expression"`
	// OnError specifies what happens when a row cannot be evaluated:
	// "fail" (default), "skip" (drop the row with a warning), "log" (drop the row with an error log)
	OnError string `json:"onError,omitempty"`
}

// ConditionModule keeps the rows for which its expression is true.
// Null cells are visible to the expression as nil.
type ConditionModule struct {
	expression string
	onError    string
	program    *vm.Program
}

// ConditionError carries structured context for condition evaluation failures.
type ConditionError struct {
	Code       string
	Message    string
	Expression string
	RowIndex   int
}

func (e *ConditionError) Error() string {
	return e.Message
}

// NewConditionFromConfig creates a new condition filter module from configuration.
func NewConditionFromConfig(config ConditionConfig) (*ConditionModule, error) {
	expression := strings.TrimSpace(config.Expression)
	if expression == "" {
		return nil, errhandling.NewConfigError("condition filter", ErrEmptyExpression)
	}

	onError := config.OnError
	if onError == "" {
		onError = OnErrorFail
	}
	if onError != OnErrorFail && onError != OnErrorSkip && onError != OnErrorLog {
		logger.Warn("invalid onError value for condition module; defaulting to fail",
			slog.String("on_error", onError),
		)
		onError = OnErrorFail
	}

	// Missing columns resolve to nil instead of failing compilation.
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, errhandling.NewConfigError(
			fmt.Sprintf("condition %q", expression),
			fmt.Errorf("%w: %v", ErrInvalidExpression, err),
		)
	}

	logger.Debug("condition module initialized",
		slog.String("expression", expression),
		slog.String("on_error", onError),
	)

	return &ConditionModule{
		expression: expression,
		onError:    onError,
		program:    program,
	}, nil
}

// Name implements Module.
func (c *ConditionModule) Name() string { return "condition" }

// Expression returns the compiled expression source.
func (c *ConditionModule) Expression() string { return c.expression }

// Process implements Module.
func (c *ConditionModule) Process(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	names := df.Names()
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = df.Col(name)
	}

	keep := make([]bool, df.Nrow())
	env := make(map[string]interface{}, len(names))

	failures := 0
	var firstErr *ConditionError
	for row := range keep {
		if row%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return df, err
			}
		}

		for i, name := range names {
			env[name] = cellValue(cols[i].Elem(row))
		}

		output, err := expr.Run(c.program, env)
		if err != nil {
			condErr := &ConditionError{
				Code:       ErrCodeEvaluationFailed,
				Message:    fmt.Sprintf("condition evaluation failed at row %d: %v", row, err),
				Expression: c.expression,
				RowIndex:   row,
			}
			if c.onError == OnErrorFail {
				return df, condErr
			}
			failures++
			if firstErr == nil {
				firstErr = condErr
			}
			continue
		}

		keep[row] = toBool(output)
	}

	if failures > 0 {
		attrs := []any{
			slog.Int("count", failures),
			slog.String("expression", c.expression),
			slog.Int("first_row_index", firstErr.RowIndex),
			slog.String("first_error", firstErr.Message),
		}
		if c.onError == OnErrorLog {
			logger.Error("condition evaluation errors (rows dropped)", attrs...)
		} else {
			logger.Warn("rows dropped due to condition evaluation errors", attrs...)
		}
	}

	return frame.KeepRows(df, keep), nil
}

// cellValue converts a gota element into the value seen by expressions.
func cellValue(el series.Element) interface{} {
	if el.IsNA() {
		return nil
	}
	switch el.Type() {
	case series.Float:
		return el.Float()
	case series.Int:
		v, err := el.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Bool:
		v, err := el.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return el.String()
	}
}

// toBool converts an expression result to boolean.
func toBool(value interface{}) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

var _ Module = (*ConditionModule)(nil)
