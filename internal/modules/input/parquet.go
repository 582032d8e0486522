package input

import (
	"context"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/columnar"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
)

// ParquetSource reads a cleaned artifact written by the cleaning pipelines.
type ParquetSource struct {
	path     string
	required []string
}

// NewParquetSource creates a parquet input. Loading fails with a schema
// error when any of the required columns is absent.
func NewParquetSource(path string, required ...string) (*ParquetSource, error) {
	if path == "" {
		return nil, ErrNoSource
	}
	return &ParquetSource{path: path, required: required}, nil
}

// Path returns the file path.
func (s *ParquetSource) Path() string { return s.path }

// Scan fails with an io error when the file is missing.
func (s *ParquetSource) Scan(_ context.Context) (*frame.LazyFrame, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, errhandling.NewIOError(s.path, err)
	}
	if info.IsDir() {
		return nil, errhandling.NewIOError(s.path, fmt.Errorf("is a directory"))
	}
	return frame.Scan(s.load), nil
}

func (s *ParquetSource) load(ctx context.Context) (dataframe.DataFrame, error) {
	df, err := columnar.ReadParquetFile(ctx, s.path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := frame.RequireColumns(df, s.required...); err != nil {
		return dataframe.DataFrame{}, err
	}
	return df, nil
}

var _ Module = (*ParquetSource)(nil)
