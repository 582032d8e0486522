// Package columnar converts gota tables to and from Arrow and persists them as parquet.
package columnar

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/persistence"
)

// Pool is the allocator used for every Arrow buffer in this package.
var Pool = memory.NewGoAllocator()

// rowGroupSize bounds the rows per parquet row group.
const rowGroupSize = 1 << 20

// Schema maps a table's column types to a nullable Arrow schema.
func Schema(df dataframe.DataFrame) (*arrow.Schema, error) {
	names := df.Names()
	types := df.Types()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		var dt arrow.DataType
		switch types[i] {
		case series.Float:
			dt = arrow.PrimitiveTypes.Float64
		case series.Int:
			dt = arrow.PrimitiveTypes.Int64
		case series.Bool:
			dt = arrow.FixedWidthTypes.Boolean
		case series.String:
			dt = arrow.BinaryTypes.String
		default:
			return nil, errhandling.NewSchemaError(name, fmt.Sprintf("unsupported column type %s", types[i]))
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// ToRecord copies a table into a single Arrow record. Null cells stay null.
// The caller must Release the record.
func ToRecord(df dataframe.DataFrame) (arrow.Record, error) {
	schema, err := Schema(df)
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(Pool, schema)
	defer b.Release()

	for i, name := range df.Names() {
		col := df.Col(name)
		n := col.Len()
		switch fb := b.Field(i).(type) {
		case *array.Float64Builder:
			fb.Reserve(n)
			for j := 0; j < n; j++ {
				if el := col.Elem(j); el.IsNA() {
					fb.AppendNull()
				} else {
					fb.Append(el.Float())
				}
			}
		case *array.Int64Builder:
			fb.Reserve(n)
			for j := 0; j < n; j++ {
				el := col.Elem(j)
				v, err := el.Int()
				if el.IsNA() || err != nil {
					fb.AppendNull()
					continue
				}
				fb.Append(int64(v))
			}
		case *array.BooleanBuilder:
			fb.Reserve(n)
			for j := 0; j < n; j++ {
				el := col.Elem(j)
				v, err := el.Bool()
				if el.IsNA() || err != nil {
					fb.AppendNull()
					continue
				}
				fb.Append(v)
			}
		case *array.StringBuilder:
			fb.Reserve(n)
			for j := 0; j < n; j++ {
				if el := col.Elem(j); el.IsNA() {
					fb.AppendNull()
				} else {
					fb.Append(el.String())
				}
			}
		}
	}

	return b.NewRecord(), nil
}

// FromTable copies an Arrow table into a gota table.
func FromTable(tbl arrow.Table) (dataframe.DataFrame, error) {
	schema := tbl.Schema()
	cols := make([]series.Series, 0, tbl.NumCols())

	for i := 0; i < int(tbl.NumCols()); i++ {
		field := schema.Field(i)
		values := make([]interface{}, 0, tbl.NumRows())

		var t series.Type
		for _, chunk := range tbl.Column(i).Data().Chunks() {
			switch a := chunk.(type) {
			case *array.Float64:
				t = series.Float
				for j := 0; j < a.Len(); j++ {
					values = append(values, nullOr(a.IsNull(j), a.Value(j)))
				}
			case *array.Int64:
				t = series.Int
				for j := 0; j < a.Len(); j++ {
					values = append(values, nullOr(a.IsNull(j), int(a.Value(j))))
				}
			case *array.Int32:
				t = series.Int
				for j := 0; j < a.Len(); j++ {
					values = append(values, nullOr(a.IsNull(j), int(a.Value(j))))
				}
			case *array.Boolean:
				t = series.Bool
				for j := 0; j < a.Len(); j++ {
					values = append(values, nullOr(a.IsNull(j), a.Value(j)))
				}
			case *array.String:
				t = series.String
				for j := 0; j < a.Len(); j++ {
					values = append(values, nullOr(a.IsNull(j), a.Value(j)))
				}
			default:
				return dataframe.DataFrame{}, errhandling.NewSchemaError(field.Name,
					fmt.Sprintf("unsupported parquet column type %s", field.Type))
			}
		}
		if t == "" {
			t = typeOf(field.Type)
		}
		cols = append(cols, series.New(values, t, field.Name))
	}

	df := dataframe.New(cols...)
	return df, df.Err
}

func nullOr(isNull bool, v interface{}) interface{} {
	if isNull {
		return nil
	}
	return v
}

// typeOf picks the gota type of a column that has no chunks.
func typeOf(dt arrow.DataType) series.Type {
	switch dt.ID() {
	case arrow.FLOAT64, arrow.FLOAT32:
		return series.Float
	case arrow.INT64, arrow.INT32:
		return series.Int
	case arrow.BOOL:
		return series.Bool
	default:
		return series.String
	}
}

// WriteParquet encodes df as zstd-compressed parquet.
func WriteParquet(w io.Writer, df dataframe.DataFrame) error {
	rec, err := ToRecord(df)
	if err != nil {
		return err
	}
	defer rec.Release()

	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithAllocator(Pool),
	)
	if err := pqarrow.WriteTable(tbl, w, rowGroupSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("writing parquet: %w", err)
	}
	return nil
}

// WriteParquetFile writes df to path atomically: either the complete file
// replaces path or path is left untouched.
func WriteParquetFile(path string, df dataframe.DataFrame) error {
	return persistence.WriteFileAtomic(path, func(w io.Writer) error {
		return WriteParquet(w, df)
	})
}

// ReadParquetFile loads a parquet file into a gota table.
func ReadParquetFile(ctx context.Context, path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errhandling.NewIOError(path, err)
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(Pool), pqarrow.ArrowReadProperties{}, Pool)
	if err != nil {
		return dataframe.DataFrame{}, errhandling.NewIOError(path, fmt.Errorf("reading parquet: %w", err))
	}
	defer tbl.Release()

	return FromTable(tbl)
}
