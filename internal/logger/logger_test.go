package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
)

// captureJSON swaps the package logger for one writing JSON to a buffer.
func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := logger.Logger
	t.Cleanup(func() { logger.Logger = original })
	logger.Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "parsing JSON log output %q", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerInitialization(t *testing.T) {
	require.NotNil(t, logger.Logger, "Logger should be initialized on package load")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logger.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := logger.ParseFormat("human")
	require.NoError(t, err)
	assert.Equal(t, logger.FormatHuman, f)

	f, err = logger.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, logger.FormatJSON, f)

	_, err = logger.ParseFormat("xml")
	assert.Error(t, err)
}

func TestLogExecutionStartAndEnd(t *testing.T) {
	buf := captureJSON(t)

	ctx := logger.ExecutionContext{RunID: "run-1", Dataset: "train", Pipeline: "training", StageIndex: -1}
	logger.LogExecutionStart(ctx)
	logger.LogExecutionEnd(ctx, "success", 42, 1500*time.Millisecond)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "execution started", entries[0]["msg"])
	assert.Equal(t, "run-1", entries[0]["run_id"])
	assert.NotContains(t, entries[0], "stage_index", "negative stage index should be omitted")
	assert.Equal(t, "success", entries[1]["status"])
	assert.Equal(t, float64(42), entries[1]["rows_written"])
	assert.Equal(t, "train", entries[1]["dataset"])
	assert.Equal(t, "training", entries[1]["pipeline"])
}

func TestWithRun(t *testing.T) {
	buf := captureJSON(t)

	logger.WithRun("run-9").Info("dataset partitioned", "train_rows", 8)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-9", entries[0]["run_id"])
	assert.Equal(t, float64(8), entries[0]["train_rows"])
}

func TestLogStageEnd(t *testing.T) {
	buf := captureJSON(t)

	ctx := logger.ExecutionContext{RunID: "run-1", Stage: "boundingBox", StageIndex: 0}
	logger.LogStageEnd(ctx, 10, 7, time.Millisecond, nil)
	logger.LogStageEnd(ctx, 10, 0, time.Millisecond, errors.New("column missing"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, float64(10), entries[0]["rows_in"])
	assert.Equal(t, float64(7), entries[0]["rows_out"])
	assert.Equal(t, float64(0), entries[0]["stage_index"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "stage failed", entries[1]["msg"])
	assert.Equal(t, "column missing", entries[1]["error"])
}

func TestLogMetrics(t *testing.T) {
	buf := captureJSON(t)

	logger.LogMetrics(logger.ExecutionContext{RunID: "run-2", StageIndex: -1}, logger.ExecutionMetrics{
		TotalDuration: time.Second,
		RowsRead:      100,
		RowsWritten:   80,
		RowsDropped:   20,
		RowsPerSecond: 100,
	})

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	for _, key := range []string{"rows_read", "rows_written", "rows_dropped", "rows_per_second", "total_duration"} {
		assert.Contains(t, entries[0], key)
	}
}

func TestLogError(t *testing.T) {
	buf := captureJSON(t)

	inner := errors.New("no such file")
	logger.LogError("clean failed", logger.ErrorContext{
		ExecutionContext: logger.ExecutionContext{RunID: "run-3", Dataset: "test", StageIndex: -1},
		Category:         "io",
		Path:             "data/raw/test.csv",
		Err:              fmt.Errorf("scanning: %w", inner),
	})

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "io", e["category"])
	assert.Equal(t, "data/raw/test.csv", e["path"])
	assert.Equal(t, "scanning: no such file -> no such file", e["error_chain"])
}

func TestHumanHandler(t *testing.T) {
	var buf bytes.Buffer
	h := logger.NewHumanHandler(&buf, &logger.HumanHandlerOptions{Level: slog.LevelInfo})
	l := slog.New(h).With("run_id", "r")

	l.Info("stage completed", "rows_out", 5, "duration", 2*time.Millisecond)
	l.Warn("unparseable timestamp")
	l.Error("stage failed")
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "✓ stage completed run_id=r rows_out=5 duration=2ms")
	assert.Contains(t, out, "⚠ unparseable timestamp")
	assert.Contains(t, out, "✗ stage failed")
	assert.NotContains(t, out, "hidden", "debug line should be filtered")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.50s"},
		{90 * time.Second, "1.5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logger.FormatDuration(tt.d), "FormatDuration(%v)", tt.d)
	}
}

func TestSetOutput(t *testing.T) {
	original := logger.Logger
	defer func() {
		logger.SetOutput(os.Stderr, slog.LevelInfo, logger.FormatJSON)
		logger.Logger = original
	}()

	var buf bytes.Buffer
	logger.SetOutput(&buf, slog.LevelWarn, logger.FormatHuman)
	logger.Info("quiet")
	logger.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestSetLogFile(t *testing.T) {
	original := logger.Logger
	defer func() {
		logger.CloseLogFile()
		logger.SetOutput(os.Stderr, slog.LevelInfo, logger.FormatJSON)
		logger.Logger = original
	}()

	var console bytes.Buffer
	logger.SetOutput(&console, slog.LevelInfo, logger.FormatHuman)

	path := filepath.Join(t.TempDir(), "fareprep.log")
	require.NoError(t, logger.SetLogFile(path, slog.LevelInfo, logger.FormatHuman))
	logger.Info("written twice", "dataset", "train")
	logger.CloseLogFile()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry), "log file should hold JSON, got %q", data)
	assert.Equal(t, "written twice", entry["msg"])
	assert.Contains(t, console.String(), "written twice dataset=train")
}
