package output

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/columnar"
)

func fares() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{1, 2, 3}, series.Int, "passenger_count"),
		series.New([]float64{4.5, 16.9, 5.7}, series.Float, "fare_amount"),
	)
}

func TestCSVOutputHeader(t *testing.T) {
	dir := t.TempDir()

	withHeader, err := NewCSVOutput(filepath.Join(dir, "X_train.csv"), true)
	require.NoError(t, err)
	n, err := withHeader.Write(context.Background(), fares())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(withHeader.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "passenger_count,fare_amount", lines[0])

	noHeader, err := NewCSVOutput(filepath.Join(dir, "Y_train.csv"), false)
	require.NoError(t, err)
	_, err = noHeader.Write(context.Background(), fares().Select([]string{"fare_amount"}))
	require.NoError(t, err)

	data, err = os.ReadFile(noHeader.Path())
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "4.5"), "first line is data: %q", lines[0])
}

func TestCSVOutputFloatPrecisionAndNulls(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{-73.98765432109, math.NaN(), 40.5}, series.Float, "pickup_longitude"),
		series.New([]interface{}{1, nil, 3}, series.Int, "passenger_count"),
		series.New([]string{"a", "NaN", "c"}, series.String, "key"),
	)
	out, err := NewCSVOutput(filepath.Join(t.TempDir(), "x_test.csv"), true)
	require.NoError(t, err)
	_, err = out.Write(context.Background(), df)
	require.NoError(t, err)

	data, err := os.ReadFile(out.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"pickup_longitude,passenger_count,key\n"+
			"-73.98765432109,1,a\n"+
			",,\n"+
			"40.5,3,c\n",
		string(data))
}

func TestParquetOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean", "train.parquet")
	out, err := NewParquetOutput(path)
	require.NoError(t, err)

	n, err := out.Write(context.Background(), fares())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := columnar.ReadParquetFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, fares().Records(), got.Records())
}

func TestOutputRefusesInvalidTable(t *testing.T) {
	out, err := NewParquetOutput(filepath.Join(t.TempDir(), "x.parquet"))
	require.NoError(t, err)
	_, err = out.Write(context.Background(), dataframe.DataFrame{Err: errors.New("broken")})
	require.Error(t, err)

	_, statErr := os.Stat(out.Path())
	assert.True(t, os.IsNotExist(statErr), "nothing may be written")
}

func TestOutputCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := NewCSVOutput(filepath.Join(t.TempDir(), "x.csv"), true)
	require.NoError(t, err)
	_, err = out.Write(ctx, fares())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewOutputRequiresPath(t *testing.T) {
	_, err := NewCSVOutput("", true)
	assert.ErrorIs(t, err, ErrNoDestination)
	_, err = NewParquetOutput("")
	assert.ErrorIs(t, err, ErrNoDestination)
}
