package filter

import (
	"context"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/paulmach/orb"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/geo"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// DistanceModule derives the great-circle distance in km between pickup and
// dropoff. Only the distance column is added; a missing coordinate gives null.
type DistanceModule struct{}

// NewDistance creates the distance deriver.
func NewDistance() *DistanceModule { return &DistanceModule{} }

// Name implements Module.
func (m *DistanceModule) Name() string { return "distance" }

// Process implements Module.
func (m *DistanceModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	coords, err := coordinates(df)
	if err != nil {
		return df, err
	}

	dist := make([]float64, df.Nrow())
	for i := range dist {
		dist[i] = geo.Haversine(
			orb.Point{coords[0][i], coords[1][i]},
			orb.Point{coords[2][i], coords[3][i]},
		)
	}
	return df.Mutate(frame.FloatSeries(trip.ColDistance, dist)), nil
}

// PositiveDistanceModule keeps rows with distance > 0. Null distances are dropped.
type PositiveDistanceModule struct{}

// NewPositiveDistance creates the positive distance filter.
func NewPositiveDistance() *PositiveDistanceModule { return &PositiveDistanceModule{} }

// Name implements Module.
func (m *PositiveDistanceModule) Name() string { return "positiveDistance" }

// Process implements Module.
func (m *PositiveDistanceModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !frame.HasColumn(df, trip.ColDistance) {
		return df, errhandling.NewSchemaError(trip.ColDistance, "distance must be derived before filtering on it")
	}
	return df.Filter(dataframe.F{Colname: trip.ColDistance, Comparator: series.Greater, Comparando: 0.0}), nil
}

var (
	_ Module = (*DistanceModule)(nil)
	_ Module = (*PositiveDistanceModule)(nil)
)
