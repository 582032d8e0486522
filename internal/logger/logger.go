// Package logger provides structured logging for the data preparation pipeline.
// It wraps the standard log/slog package so every command logs through one place.
//
// Two console formats are supported:
//   - JSON (default): machine-readable structured logging
//   - Human: short console lines with level prefixes
//
// All helpers use snake_case field names (run_id, dataset, stage, rows_in, rows_out).
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the default logger instance.
var Logger *slog.Logger

// console is where console logs are written. Logs go to stderr so that
// command results printed on stdout stay parseable.
var console io.Writer = os.Stderr

func init() {
	Logger = slog.New(slog.NewJSONHandler(console, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetOutput redirects console logs to w with the given level and format.
func SetOutput(w io.Writer, level slog.Level, format OutputFormat) {
	console = w
	SetLevelAndFormat(level, format)
}

// ParseLevel converts a configuration string into a slog level.
// Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithRun returns a logger carrying the run identifier.
func WithRun(runID string) *slog.Logger {
	return Logger.With("run_id", runID)
}

// =============================================================================
// Execution Context
// =============================================================================

// ExecutionContext identifies where in a run a log line was produced.
type ExecutionContext struct {
	// RunID correlates all lines of one invocation (required)
	RunID string
	// Dataset is the dataset being cleaned or split
	Dataset string
	// Pipeline is the composition (training, inference, split)
	Pipeline string
	// Stage is the stage name (scan, boundingBox, distance, ...)
	Stage string
	// StageIndex is the position of the stage; negative means not applicable
	StageIndex int
}

// ErrorContext contains structured context for error logging.
type ErrorContext struct {
	ExecutionContext

	// Category is the error classification (io, schema, parse, config, unknown)
	Category string
	// Path is the file involved, if any
	Path string
	// Err is the underlying error
	Err error
	// Duration is how long the failing step ran
	Duration time.Duration
}

// ExecutionMetrics contains row and timing totals of one pipeline run.
type ExecutionMetrics struct {
	TotalDuration time.Duration
	ScanDuration  time.Duration
	WriteDuration time.Duration
	RowsRead      int
	RowsWritten   int
	RowsDropped   int
	RowsPerSecond float64
}

// LogExecutionStart logs the start of a pipeline execution.
func LogExecutionStart(ctx ExecutionContext) {
	Logger.Info("execution started", buildContextAttrs(ctx)...)
}

// LogExecutionEnd logs the completion of a pipeline execution.
func LogExecutionEnd(ctx ExecutionContext, status string, rowsWritten int, duration time.Duration) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.String("status", status),
		slog.Int("rows_written", rowsWritten),
		slog.Duration("duration", duration),
	)
	Logger.Info("execution completed", attrs...)
}

// LogStageEnd logs the row counts of a finished stage, or its failure.
func LogStageEnd(ctx ExecutionContext, rowsIn, rowsOut int, duration time.Duration, err error) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", rowsOut),
		slog.Duration("duration", duration),
	)

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		Logger.Error("stage failed", attrs...)
		return
	}
	Logger.Info("stage completed", attrs...)
}

// LogMetrics logs execution totals.
func LogMetrics(ctx ExecutionContext, metrics ExecutionMetrics) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.Duration("total_duration", metrics.TotalDuration),
		slog.Duration("scan_duration", metrics.ScanDuration),
		slog.Duration("write_duration", metrics.WriteDuration),
		slog.Int("rows_read", metrics.RowsRead),
		slog.Int("rows_written", metrics.RowsWritten),
		slog.Int("rows_dropped", metrics.RowsDropped),
		slog.Float64("rows_per_second", metrics.RowsPerSecond),
	)
	Logger.Info("execution metrics", attrs...)
}

// LogError logs an error with full execution context, including the unwrap chain.
func LogError(message string, errCtx ErrorContext) {
	attrs := buildContextAttrs(errCtx.ExecutionContext)

	if errCtx.Category != "" {
		attrs = append(attrs, slog.String("category", errCtx.Category))
	}
	if errCtx.Path != "" {
		attrs = append(attrs, slog.String("path", errCtx.Path))
	}
	if errCtx.Err != nil {
		attrs = append(attrs,
			slog.String("error", errCtx.Err.Error()),
			slog.String("error_type", fmt.Sprintf("%T", errCtx.Err)),
		)

		chain := []string{errCtx.Err.Error()}
		for cur := errors.Unwrap(errCtx.Err); cur != nil; cur = errors.Unwrap(cur) {
			chain = append(chain, cur.Error())
		}
		if len(chain) > 1 {
			attrs = append(attrs, slog.String("error_chain", strings.Join(chain, " -> ")))
		}
	}
	if errCtx.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", errCtx.Duration))
	}

	Logger.Error(message, attrs...)
}

// buildContextAttrs builds slog attributes from an ExecutionContext.
// Only non-empty fields are included.
func buildContextAttrs(ctx ExecutionContext) []any {
	attrs := make([]any, 0, 8)
	attrs = append(attrs, slog.String("run_id", ctx.RunID))

	if ctx.Dataset != "" {
		attrs = append(attrs, slog.String("dataset", ctx.Dataset))
	}
	if ctx.Pipeline != "" {
		attrs = append(attrs, slog.String("pipeline", ctx.Pipeline))
	}
	if ctx.Stage != "" {
		attrs = append(attrs, slog.String("stage", ctx.Stage))
	}
	if ctx.StageIndex >= 0 {
		attrs = append(attrs, slog.Int("stage_index", ctx.StageIndex))
	}
	return attrs
}

// =============================================================================
// Human-Readable Format
// =============================================================================

// OutputFormat represents the log output format.
type OutputFormat int

const (
	// FormatJSON is the default machine-readable JSON format
	FormatJSON OutputFormat = iota
	// FormatHuman is a console format with prefixes
	FormatHuman
)

// ParseFormat converts a configuration string into an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "human", "text":
		return FormatHuman, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (expected \"json\" or \"human\")", s)
	}
}

// SetLevelAndFormat sets both the log level and console format.
func SetLevelAndFormat(level slog.Level, format OutputFormat) {
	Logger = slog.New(newConsoleHandler(level, format))
}

func newConsoleHandler(level slog.Level, format OutputFormat) slog.Handler {
	if format == FormatHuman {
		return NewHumanHandler(console, &HumanHandlerOptions{
			Level:     level,
			UseColors: isTerminal(console),
		})
	}
	return slog.NewJSONHandler(console, &slog.HandlerOptions{Level: level})
}

// isTerminal returns true if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fi, err := f.Stat()
		if err != nil {
			return false
		}
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// HumanHandlerOptions configures the human-readable log handler.
type HumanHandlerOptions struct {
	// Level is the minimum log level to output
	Level slog.Level
	// UseColors enables ANSI color codes
	UseColors bool
}

// HumanHandler is a slog handler that writes one short line per record.
type HumanHandler struct {
	opts   HumanHandlerOptions
	writer io.Writer
	attrs  []slog.Attr
}

// NewHumanHandler creates a new human-readable log handler.
func NewHumanHandler(w io.Writer, opts *HumanHandlerOptions) *HumanHandler {
	if opts == nil {
		opts = &HumanHandlerOptions{Level: slog.LevelInfo}
	}
	return &HumanHandler{opts: *opts, writer: w}
}

// Enabled returns true if the handler is enabled for the given level.
func (h *HumanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle outputs a log record as "15:04:05 <prefix> message key=value ...".
func (h *HumanHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(h.prefix(r.Level, r.Message))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		sb.WriteString(" ")
		sb.WriteString(formatAttr(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		sb.WriteString(" ")
		sb.WriteString(formatAttr(a))
		return true
	})

	sb.WriteString("\n")
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &HumanHandler{opts: h.opts, writer: h.writer, attrs: merged}
}

// WithGroup is a no-op: human lines are flat.
func (h *HumanHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *HumanHandler) prefix(level slog.Level, message string) string {
	const (
		colorReset  = "\033[0m"
		colorRed    = "\033[31m"
		colorYellow = "\033[33m"
		colorGreen  = "\033[32m"
		colorCyan   = "\033[36m"
	)

	var prefix, color string
	switch {
	case level >= slog.LevelError:
		prefix, color = "✗", colorRed
	case level >= slog.LevelWarn:
		prefix, color = "⚠", colorYellow
	case level >= slog.LevelInfo:
		if strings.Contains(strings.ToLower(message), "completed") {
			prefix, color = "✓", colorGreen
		} else {
			prefix, color = "ℹ", colorCyan
		}
	default:
		prefix, color = "·", colorReset
	}

	if h.opts.UseColors {
		return color + prefix + colorReset
	}
	return prefix
}

func formatAttr(a slog.Attr) string {
	switch v := a.Value.Any().(type) {
	case time.Duration:
		return fmt.Sprintf("%s=%s", a.Key, FormatDuration(v))
	case float64:
		return fmt.Sprintf("%s=%.2f", a.Key, v)
	default:
		return fmt.Sprintf("%s=%v", a.Key, v)
	}
}

// FormatDuration formats a duration for console output.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// =============================================================================
// Log File Output
// =============================================================================

var logFile *os.File

// maxLogFileSize is the size at which an existing log file is rotated (10MB).
const maxLogFileSize = 10 * 1024 * 1024

// rotateLogFile renames the file with a timestamp suffix once it exceeds maxLogFileSize.
func rotateLogFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking log file size: %w", err)
	}

	if info.Size() >= maxLogFileSize {
		rotated := fmt.Sprintf("%s.%s", path, time.Now().Format("20060102-150405"))
		if err := os.Rename(path, rotated); err != nil {
			return fmt.Errorf("rotating log file: %w", err)
		}
	}
	return nil
}

// SetLogFile configures logging to write to both the console and the given file.
// File logs are always JSON.
func SetLogFile(path string, level slog.Level, consoleFormat OutputFormat) error {
	CloseLogFile()

	if err := rotateLogFile(path); err != nil {
		Warn("log rotation failed", slog.String("error", err.Error()))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f

	Logger = slog.New(&dualHandler{
		console: newConsoleHandler(level, consoleFormat),
		file:    slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}),
	})

	Debug("log file opened", slog.String("path", path))
	return nil
}

// CloseLogFile closes the current log file if one is open.
func CloseLogFile() {
	if logFile == nil {
		return
	}
	if err := logFile.Sync(); err != nil {
		Warn("failed to sync log file", slog.String("error", err.Error()))
	}
	if err := logFile.Close(); err != nil {
		Warn("failed to close log file", slog.String("error", err.Error()))
	}
	logFile = nil
}

// dualHandler writes every record to both a console and a file handler.
type dualHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (d *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.console.Enabled(ctx, level) || d.file.Enabled(ctx, level)
}

func (d *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	if d.console.Enabled(ctx, r.Level) {
		if err := d.console.Handle(ctx, r); err != nil {
			return err
		}
	}
	if d.file.Enabled(ctx, r.Level) {
		if err := d.file.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (d *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{console: d.console.WithAttrs(attrs), file: d.file.WithAttrs(attrs)}
}

func (d *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{console: d.console.WithGroup(name), file: d.file.WithGroup(name)}
}
