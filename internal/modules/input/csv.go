package input

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// nullTokens are read as missing values in every column.
var nullTokens = []string{"", "NA", "NaN", "<nil>"}

// stringColumns are never type-inferred.
var stringColumns = map[string]series.Type{
	trip.ColKey:            series.String,
	trip.ColPickupDatetime: series.String,
}

// CSVSource reads a raw comma-separated trip file with a header row.
type CSVSource struct {
	path string
	mode trip.Mode
}

// NewCSVSource creates a CSV input for the given pipeline mode.
// The mode decides which columns are required.
func NewCSVSource(path string, mode trip.Mode) (*CSVSource, error) {
	if path == "" {
		return nil, ErrNoSource
	}
	return &CSVSource{path: path, mode: mode}, nil
}

// Path returns the file path.
func (s *CSVSource) Path() string { return s.path }

// Scan fails with an io error when the file is missing or is a directory.
func (s *CSVSource) Scan(_ context.Context) (*frame.LazyFrame, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, errhandling.NewIOError(s.path, err)
	}
	if info.IsDir() {
		return nil, errhandling.NewIOError(s.path, fmt.Errorf("is a directory"))
	}
	return frame.Scan(s.load), nil
}

func (s *CSVSource) load(ctx context.Context) (dataframe.DataFrame, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return dataframe.DataFrame{}, errhandling.NewIOError(s.path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithTypes(stringColumns),
		dataframe.NaNValues(nullTokens),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, errhandling.NewSchemaError("", fmt.Sprintf("reading %s: %v", s.path, df.Err))
	}
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}

	if err := frame.RequireColumns(df, s.mode.RequiredColumns()...); err != nil {
		return dataframe.DataFrame{}, err
	}

	df, err = normalizeNumeric(df)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	logger.Debug("csv source loaded",
		slog.String("path", s.path),
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()),
	)
	return df, nil
}

// numericColumns maps each numeric input column to the type it is stored as.
var numericColumns = map[string]series.Type{
	trip.ColPickupLongitude:  series.Float,
	trip.ColPickupLatitude:   series.Float,
	trip.ColDropoffLongitude: series.Float,
	trip.ColDropoffLatitude:  series.Float,
	trip.ColFareAmount:       series.Float,
	trip.ColPassengerCount:   series.Int,
}

// normalizeNumeric widens inferred integer coordinates and fares to float and
// rejects numeric columns that hold text. A column with no values at all is
// inferred as string and becomes an all-null column of the expected type.
func normalizeNumeric(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	for _, name := range df.Names() {
		want, ok := numericColumns[name]
		if !ok {
			continue
		}
		col := df.Col(name)
		switch col.Type() {
		case want:
			continue
		case series.Int, series.Float:
			if want == series.Float {
				df = df.Mutate(frame.FloatSeries(name, col.Float()))
			}
		default:
			if !allNull(col) {
				return dataframe.DataFrame{}, errhandling.NewSchemaError(name,
					fmt.Sprintf("expected a numeric column, got %s", col.Type()))
			}
			df = df.Mutate(series.New(make([]interface{}, col.Len()), want, name))
		}
		if df.Err != nil {
			return dataframe.DataFrame{}, df.Err
		}
	}
	return df, nil
}

func allNull(col series.Series) bool {
	for i := 0; i < col.Len(); i++ {
		if !col.Elem(i).IsNA() {
			return false
		}
	}
	return true
}

var _ Module = (*CSVSource)(nil)
