package filter

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/paulmach/orb"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/geo"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// BoundingBoxModule keeps rows whose pickup and dropoff points both lie in a bound.
// Edges are inside; rows with a missing coordinate are outside.
type BoundingBoxModule struct {
	bound orb.Bound
}

// NewBoundingBox creates a bounding box filter. A zero bound means geo.NYCBound.
func NewBoundingBox(bound orb.Bound) *BoundingBoxModule {
	if bound == (orb.Bound{}) {
		bound = geo.NYCBound
	}
	return &BoundingBoxModule{bound: bound}
}

// NewBoundingBoxFromConfig reads optional minLon, minLat, maxLon and maxLat.
func NewBoundingBoxFromConfig(cfg map[string]interface{}) (*BoundingBoxModule, error) {
	b := geo.NYCBound
	var err error
	if b.Min[0], err = floatOption(cfg, "minLon", b.Min[0]); err != nil {
		return nil, err
	}
	if b.Min[1], err = floatOption(cfg, "minLat", b.Min[1]); err != nil {
		return nil, err
	}
	if b.Max[0], err = floatOption(cfg, "maxLon", b.Max[0]); err != nil {
		return nil, err
	}
	if b.Max[1], err = floatOption(cfg, "maxLat", b.Max[1]); err != nil {
		return nil, err
	}
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return nil, fmt.Errorf("bounding box min (%v) exceeds max (%v)", b.Min, b.Max)
	}

	logger.Debug("bounding box filter initialized",
		slog.Any("min", b.Min),
		slog.Any("max", b.Max),
	)
	return &BoundingBoxModule{bound: b}, nil
}

// Name implements Module.
func (m *BoundingBoxModule) Name() string { return "boundingBox" }

// Bound returns the configured bound.
func (m *BoundingBoxModule) Bound() orb.Bound { return m.bound }

// Process implements Module.
func (m *BoundingBoxModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	coords, err := coordinates(df)
	if err != nil {
		return df, err
	}

	keep := make([]bool, df.Nrow())
	for i := range keep {
		pickup := orb.Point{coords[0][i], coords[1][i]}
		dropoff := orb.Point{coords[2][i], coords[3][i]}
		keep[i] = geo.Contains(m.bound, pickup) && geo.Contains(m.bound, dropoff)
	}
	return frame.KeepRows(df, keep), nil
}

// DropNullCoordinatesModule removes rows where any of the checked columns is null.
type DropNullCoordinatesModule struct {
	columns []string
}

// NewDropNullCoordinates checks the given columns, by default the dropoff pair.
func NewDropNullCoordinates(columns ...string) *DropNullCoordinatesModule {
	if len(columns) == 0 {
		columns = []string{trip.ColDropoffLongitude, trip.ColDropoffLatitude}
	}
	return &DropNullCoordinatesModule{columns: columns}
}

// NewDropNullCoordinatesFromConfig reads an optional "columns" list.
func NewDropNullCoordinatesFromConfig(cfg map[string]interface{}) (*DropNullCoordinatesModule, error) {
	cols, err := stringsOption(cfg, "columns")
	if err != nil {
		return nil, err
	}
	return NewDropNullCoordinates(cols...), nil
}

// Name implements Module.
func (m *DropNullCoordinatesModule) Name() string { return "dropNullCoordinates" }

// Process implements Module.
func (m *DropNullCoordinatesModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	keep := make([]bool, df.Nrow())
	for i := range keep {
		keep[i] = true
	}
	for _, name := range m.columns {
		values, err := frame.Floats(df, name)
		if err != nil {
			return df, err
		}
		for i, v := range values {
			if math.IsNaN(v) {
				keep[i] = false
			}
		}
	}
	return frame.KeepRows(df, keep), nil
}

// coordinates returns pickup lon, pickup lat, dropoff lon, dropoff lat.
func coordinates(df dataframe.DataFrame) ([4][]float64, error) {
	var out [4][]float64
	for i, name := range trip.CoordinateColumns {
		values, err := frame.Floats(df, name)
		if err != nil {
			return out, err
		}
		out[i] = values
	}
	return out, nil
}

var (
	_ Module = (*BoundingBoxModule)(nil)
	_ Module = (*DropNullCoordinatesModule)(nil)
)
