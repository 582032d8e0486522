// Package output provides implementations for output modules.
// Output modules persist a materialized table. Every write is atomic:
// the destination holds either the previous content or the complete new file.
package output

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/columnar"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/persistence"
)

// ErrNoDestination is returned when a module is created without a path.
var ErrNoDestination = errors.New("output path is required")

// Module represents an output module that persists a table.
type Module interface {
	// Write persists df and returns the number of rows written.
	Write(ctx context.Context, df dataframe.DataFrame) (int, error)

	// Path returns the destination location.
	Path() string
}

// ParquetOutput writes a table as a single parquet file.
type ParquetOutput struct {
	path string
}

// NewParquetOutput creates a parquet output.
func NewParquetOutput(path string) (*ParquetOutput, error) {
	if path == "" {
		return nil, ErrNoDestination
	}
	return &ParquetOutput{path: path}, nil
}

// Path returns the destination.
func (o *ParquetOutput) Path() string { return o.path }

// Write implements Module.
func (o *ParquetOutput) Write(ctx context.Context, df dataframe.DataFrame) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if df.Err != nil {
		return 0, fmt.Errorf("refusing to write invalid table: %w", df.Err)
	}
	if err := columnar.WriteParquetFile(o.path, df); err != nil {
		return 0, err
	}

	logger.Debug("parquet output written",
		slog.String("path", o.path),
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()),
	)
	return df.Nrow(), nil
}

// CSVOutput writes a table as comma-separated text.
type CSVOutput struct {
	path   string
	header bool
}

// NewCSVOutput creates a CSV output. header controls whether the column
// names are written as the first line.
func NewCSVOutput(path string, header bool) (*CSVOutput, error) {
	if path == "" {
		return nil, ErrNoDestination
	}
	return &CSVOutput{path: path, header: header}, nil
}

// Path returns the destination.
func (o *CSVOutput) Path() string { return o.path }

// Write implements Module.
func (o *CSVOutput) Write(ctx context.Context, df dataframe.DataFrame) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if df.Err != nil {
		return 0, fmt.Errorf("refusing to write invalid table: %w", df.Err)
	}

	err := persistence.WriteFileAtomic(o.path, func(w io.Writer) error {
		return writeCSV(w, df, o.header)
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("csv output written",
		slog.String("path", o.path),
		slog.Int("rows", df.Nrow()),
		slog.Bool("header", o.header),
	)
	return df.Nrow(), nil
}

// writeCSV writes df with floats in their shortest round-trip form.
// Null cells are written as empty fields.
func writeCSV(w io.Writer, df dataframe.DataFrame, header bool) error {
	cw := csv.NewWriter(w)
	names := df.Names()
	if header {
		if err := cw.Write(names); err != nil {
			return err
		}
	}

	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = df.Col(name)
	}
	record := make([]string, len(names))
	for row := 0; row < df.Nrow(); row++ {
		for i, col := range cols {
			record[i] = formatCell(col.Elem(row))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(el series.Element) string {
	if el.IsNA() {
		return ""
	}
	switch el.Type() {
	case series.Float:
		f := el.Float()
		if math.IsNaN(f) {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case series.Int:
		v, err := el.Int()
		if err != nil {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return el.String()
	}
}

var (
	_ Module = (*ParquetOutput)(nil)
	_ Module = (*CSVOutput)(nil)
)
