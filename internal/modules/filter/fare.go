package filter

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Default fare limits.
const (
	DefaultMinFare            = 0.0
	DefaultMaxFare            = 100.0
	DefaultMaxFarePerDistance = 50.0
)

// FareRangeModule keeps rows with min < fare_amount <= max. Null fares are dropped.
type FareRangeModule struct {
	lower, upper float64
}

// NewFareRange creates a fare range filter with an exclusive lower and inclusive upper limit.
func NewFareRange(lower, upper float64) *FareRangeModule {
	return &FareRangeModule{lower: lower, upper: upper}
}

// NewFareRangeFromConfig reads optional "min" (exclusive) and "max" (inclusive).
func NewFareRangeFromConfig(cfg map[string]interface{}) (*FareRangeModule, error) {
	lower, err := floatOption(cfg, "min", DefaultMinFare)
	if err != nil {
		return nil, err
	}
	upper, err := floatOption(cfg, "max", DefaultMaxFare)
	if err != nil {
		return nil, err
	}
	if lower >= upper {
		return nil, fmt.Errorf("fare range is empty: min %v >= max %v", lower, upper)
	}
	return NewFareRange(lower, upper), nil
}

// Name implements Module.
func (m *FareRangeModule) Name() string { return "fareRange" }

// Process implements Module.
func (m *FareRangeModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if _, err := frame.Floats(df, trip.ColFareAmount); err != nil {
		return df, err
	}
	return df.FilterAggregation(dataframe.And,
		dataframe.F{Colname: trip.ColFareAmount, Comparator: series.Greater, Comparando: m.lower},
		dataframe.F{Colname: trip.ColFareAmount, Comparator: series.LessEq, Comparando: m.upper},
	), nil
}

// FarePerDistanceModule derives fare_per_distance = fare_amount / distance.
// A zero distance gives a non-finite ratio, which is stored as null.
type FarePerDistanceModule struct{}

// NewFarePerDistance creates the fare-per-distance deriver.
func NewFarePerDistance() *FarePerDistanceModule { return &FarePerDistanceModule{} }

// Name implements Module.
func (m *FarePerDistanceModule) Name() string { return "farePerDistance" }

// Process implements Module.
func (m *FarePerDistanceModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !frame.HasColumn(df, trip.ColDistance) {
		return df, errhandling.NewSchemaError(trip.ColDistance, "distance must be derived before fare_per_distance")
	}
	fares, err := frame.Floats(df, trip.ColFareAmount)
	if err != nil {
		return df, err
	}
	dists, err := frame.Floats(df, trip.ColDistance)
	if err != nil {
		return df, err
	}

	ratio := make([]float64, len(fares))
	for i := range fares {
		r := fares[i] / dists[i]
		if math.IsInf(r, 0) {
			r = math.NaN()
		}
		ratio[i] = r
	}
	return df.Mutate(frame.FloatSeries(trip.ColFarePerDistance, ratio)), nil
}

// FarePerDistanceCeilingModule keeps rows with fare_per_distance < max.
type FarePerDistanceCeilingModule struct {
	ceiling float64
}

// NewFarePerDistanceCeiling creates the ceiling filter.
func NewFarePerDistanceCeiling(ceiling float64) *FarePerDistanceCeilingModule {
	return &FarePerDistanceCeilingModule{ceiling: ceiling}
}

// NewFarePerDistanceCeilingFromConfig reads an optional "max" (exclusive).
func NewFarePerDistanceCeilingFromConfig(cfg map[string]interface{}) (*FarePerDistanceCeilingModule, error) {
	ceiling, err := floatOption(cfg, "max", DefaultMaxFarePerDistance)
	if err != nil {
		return nil, err
	}
	if ceiling <= 0 {
		return nil, fmt.Errorf("fare per distance ceiling must be positive, got %v", ceiling)
	}
	return NewFarePerDistanceCeiling(ceiling), nil
}

// Name implements Module.
func (m *FarePerDistanceCeilingModule) Name() string { return "farePerDistanceCeiling" }

// Process implements Module.
func (m *FarePerDistanceCeilingModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !frame.HasColumn(df, trip.ColFarePerDistance) {
		return df, errhandling.NewSchemaError(trip.ColFarePerDistance, "fare_per_distance must be derived before filtering on it")
	}
	return df.Filter(dataframe.F{Colname: trip.ColFarePerDistance, Comparator: series.Less, Comparando: m.ceiling}), nil
}

var (
	_ Module = (*FareRangeModule)(nil)
	_ Module = (*FarePerDistanceModule)(nil)
	_ Module = (*FarePerDistanceCeilingModule)(nil)
)
