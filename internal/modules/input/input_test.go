package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/columnar"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

const trainCSV = `key,fare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count
2009-06-15 17:26:21.0000001,4.5,2009-06-15 17:26:21 UTC,-73.844311,40.721319,-73.84161,40.712278,1
2010-01-05 16:52:16.0000002,16.9,2010-01-05 16:52:16 UTC,-74.016048,40.711303,-73.979268,40.782004,1
2011-08-18 00:35:00.00000049,5.7,2011-08-18 00:35:00 UTC,-73.982738,40.76127,,,2
`

const testCSV = `key,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count
2015-01-27 13:08:24.0000002,2015-01-27 13:08:24 UTC,-73,40,-73,40,1
2015-01-27 13:08:24.0000003,2015-01-27 13:08:24 UTC,-74,41,-74,41,1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collect(t *testing.T, m Module) (dataframe.DataFrame, error) {
	t.Helper()
	lf, err := m.Scan(context.Background())
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return lf.Collect(context.Background())
}

func TestCSVSourceTraining(t *testing.T) {
	src, err := NewCSVSource(writeFile(t, "train.csv", trainCSV), trip.ModeTraining)
	require.NoError(t, err)

	df, err := collect(t, src)
	require.NoError(t, err)
	require.Equal(t, 3, df.Nrow())

	assert.Equal(t, series.String, df.Col(trip.ColKey).Type())
	assert.Equal(t, series.String, df.Col(trip.ColPickupDatetime).Type())
	assert.Equal(t, series.Float, df.Col(trip.ColFareAmount).Type())
	assert.Equal(t, series.Int, df.Col(trip.ColPassengerCount).Type())
	assert.Equal(t, "2011-08-18 00:35:00.00000049", df.Col(trip.ColKey).Elem(2).String())

	assert.True(t, df.Col(trip.ColDropoffLongitude).Elem(2).IsNA())
	assert.False(t, df.Col(trip.ColPickupLongitude).Elem(2).IsNA())
}

func TestCSVSourceWidensIntegerCoordinates(t *testing.T) {
	src, err := NewCSVSource(writeFile(t, "test.csv", testCSV), trip.ModeInference)
	require.NoError(t, err)

	df, err := collect(t, src)
	require.NoError(t, err)
	for _, col := range trip.CoordinateColumns {
		assert.Equal(t, series.Float, df.Col(col).Type(), col)
	}
	assert.Equal(t, -73.0, df.Col(trip.ColPickupLongitude).Float()[0])
}

func TestCSVSourceAllNullColumn(t *testing.T) {
	csv := "pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count,fare_amount\n" +
		"2015-01-27 13:08:24 UTC,-73.9,40.7,,,1,5.0\n"
	src, err := NewCSVSource(writeFile(t, "train.csv", csv), trip.ModeTraining)
	require.NoError(t, err)

	df, err := collect(t, src)
	require.NoError(t, err)
	assert.Equal(t, series.Float, df.Col(trip.ColDropoffLatitude).Type())
	assert.True(t, df.Col(trip.ColDropoffLatitude).Elem(0).IsNA())
}

func TestCSVSourceErrors(t *testing.T) {
	t.Run("missing file is an io error at scan", func(t *testing.T) {
		src, err := NewCSVSource(filepath.Join(t.TempDir(), "absent.csv"), trip.ModeTraining)
		require.NoError(t, err)
		_, err = src.Scan(context.Background())
		assert.ErrorIs(t, err, errhandling.ErrIO)
		assert.True(t, errhandling.IsFatal(err))
	})

	t.Run("directory is an io error", func(t *testing.T) {
		src, err := NewCSVSource(t.TempDir(), trip.ModeTraining)
		require.NoError(t, err)
		_, err = src.Scan(context.Background())
		assert.ErrorIs(t, err, errhandling.ErrIO)
	})

	t.Run("training input without fare", func(t *testing.T) {
		src, err := NewCSVSource(writeFile(t, "test.csv", testCSV), trip.ModeTraining)
		require.NoError(t, err)
		_, err = collect(t, src)
		assert.ErrorIs(t, err, errhandling.ErrSchema)
		assert.Contains(t, err.Error(), trip.ColFareAmount)
	})

	t.Run("inference input without key", func(t *testing.T) {
		csv := "pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count\n" +
			"2015-01-27 13:08:24 UTC,-73.9,40.7,-73.9,40.7,1\n"
		src, err := NewCSVSource(writeFile(t, "test.csv", csv), trip.ModeInference)
		require.NoError(t, err)
		_, err = collect(t, src)
		assert.ErrorIs(t, err, errhandling.ErrSchema)
	})

	t.Run("text in a numeric column", func(t *testing.T) {
		csv := "pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count,fare_amount\n" +
			"2015-01-27 13:08:24 UTC,west,40.7,-73.9,40.7,1,5.0\n"
		src, err := NewCSVSource(writeFile(t, "train.csv", csv), trip.ModeTraining)
		require.NoError(t, err)
		_, err = collect(t, src)
		assert.ErrorIs(t, err, errhandling.ErrSchema)
		assert.Contains(t, err.Error(), trip.ColPickupLongitude)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewCSVSource("", trip.ModeTraining)
		assert.ErrorIs(t, err, ErrNoSource)
	})
}

func TestParquetSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.parquet")
	df := dataframe.New(
		series.New([]float64{4.5, 16.9}, series.Float, trip.ColFareAmount),
		series.New([]float64{1.03, 8.45}, series.Float, trip.ColDistance),
	)
	require.NoError(t, columnar.WriteParquetFile(path, df))

	src, err := NewParquetSource(path, trip.ColFareAmount)
	require.NoError(t, err)
	got, err := collect(t, src)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Nrow())
	assert.Equal(t, path, src.Path())

	src, err = NewParquetSource(path, trip.ColFarePerDistance)
	require.NoError(t, err)
	_, err = collect(t, src)
	assert.ErrorIs(t, err, errhandling.ErrSchema)

	src, err = NewParquetSource(filepath.Join(t.TempDir(), "missing.parquet"))
	require.NoError(t, err)
	_, err = src.Scan(context.Background())
	assert.ErrorIs(t, err, errhandling.ErrIO)
}
