package errhandling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorCategory tests error category constants and their string values.
func TestErrorCategory(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{CategoryIO, "io"},
		{CategorySchema, "schema"},
		{CategoryParse, "parse"},
		{CategoryConfig, "config"},
		{CategoryUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.category))
		})
	}
}

func TestClassifiedError(t *testing.T) {
	t.Run("message includes path", func(t *testing.T) {
		err := NewIOError("data/raw/train.csv", os.ErrNotExist)
		assert.Contains(t, err.Error(), "data/raw/train.csv")
		assert.Contains(t, err.Error(), "io error")
	})

	t.Run("message includes column", func(t *testing.T) {
		err := NewSchemaError("fare_amount", "required column is missing")
		assert.Contains(t, err.Error(), `column "fare_amount"`)
	})

	t.Run("unwrap reaches original error", func(t *testing.T) {
		err := fmt.Errorf("scanning source: %w", NewIOError("x.csv", os.ErrNotExist))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("sentinels match by category", func(t *testing.T) {
		err := fmt.Errorf("stage 3: %w", NewSchemaError("distance", "not derived"))
		assert.ErrorIs(t, err, ErrSchema)
		assert.NotErrorIs(t, err, ErrIO)
	})
}

func TestClassifyError(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here.csv")

	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		wantFatal bool
	}{
		{"already classified", NewParseError("pickup_datetime", "bad", nil), CategoryParse, false},
		{"path error", statErr, CategoryIO, true},
		{"wrapped not exist", fmt.Errorf("open: %w", os.ErrNotExist), CategoryIO, true},
		{"canceled", context.Canceled, CategoryUnknown, true},
		{"plain", errors.New("boom"), CategoryUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.wantFatal, got.Fatal)
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil), "nil error should not be fatal")
	assert.False(t, IsFatal(NewParseError("pickup_datetime", "2015-13-40", nil)), "parse errors should not be fatal")
	assert.True(t, IsFatal(NewConfigError("bad seed", nil)), "config errors should be fatal")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, CategoryUnknown, GetErrorCategory(nil))
	wrapped := fmt.Errorf("write: %w", NewIOError("out.parquet", errors.New("disk full")))
	assert.Equal(t, CategoryIO, GetErrorCategory(wrapped))
}
