package frame

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
)

// HasColumn reports whether df has a column with the given name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// RequireColumns returns a schema error naming the first missing column.
func RequireColumns(df dataframe.DataFrame, names ...string) error {
	for _, name := range names {
		if !HasColumn(df, name) {
			return errhandling.NewSchemaError(name, "required column is missing")
		}
	}
	return nil
}

// Floats returns the values of a numeric column, with NaN for nulls.
func Floats(df dataframe.DataFrame, name string) ([]float64, error) {
	if err := RequireColumns(df, name); err != nil {
		return nil, err
	}
	col := df.Col(name)
	switch col.Type() {
	case series.Float, series.Int:
		return col.Float(), nil
	default:
		return nil, errhandling.NewSchemaError(name, fmt.Sprintf("expected a numeric column, got %s", col.Type()))
	}
}

// Strings returns the values of a column as strings and a validity mask.
func Strings(df dataframe.DataFrame, name string) ([]string, []bool, error) {
	if err := RequireColumns(df, name); err != nil {
		return nil, nil, err
	}
	col := df.Col(name)
	values := make([]string, col.Len())
	valid := make([]bool, col.Len())
	for i := 0; i < col.Len(); i++ {
		el := col.Elem(i)
		if el.IsNA() {
			continue
		}
		values[i] = el.String()
		valid[i] = true
	}
	return values, valid, nil
}

// KeepRows returns the rows of df whose mask entry is true.
func KeepRows(df dataframe.DataFrame, keep []bool) dataframe.DataFrame {
	all := true
	for _, k := range keep {
		if !k {
			all = false
			break
		}
	}
	if all {
		return df
	}
	return df.Subset(keep)
}

// DropColumns removes the named columns that exist in df. Absent names are ignored.
func DropColumns(df dataframe.DataFrame, names ...string) dataframe.DataFrame {
	present := make([]string, 0, len(names))
	for _, n := range names {
		if HasColumn(df, n) {
			present = append(present, n)
		}
	}
	if len(present) == 0 {
		return df
	}
	return df.Drop(present)
}

// FloatSeries builds a float column where NaN values are stored as nulls.
func FloatSeries(name string, values []float64) series.Series {
	elems := make([]interface{}, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		elems[i] = v
	}
	return series.New(elems, series.Float, name)
}

// IntSeries builds an integer column where entries with valid[i] false are nulls.
func IntSeries(name string, values []int, valid []bool) series.Series {
	elems := make([]interface{}, len(values))
	for i, v := range values {
		if valid != nil && !valid[i] {
			continue
		}
		elems[i] = v
	}
	return series.New(elems, series.Int, name)
}
