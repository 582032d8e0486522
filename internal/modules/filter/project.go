package filter

import (
	"context"

	"github.com/go-gota/gota/dataframe"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// ProjectModule shapes the output schema of a pipeline mode.
// Training drops pickup_datetime and key. Inference drops pickup_datetime and
// requires key. Every other column passes through in order.
type ProjectModule struct {
	mode trip.Mode
}

// NewProject creates a projector for mode.
func NewProject(mode trip.Mode) *ProjectModule {
	return &ProjectModule{mode: mode}
}

// NewProjectFromConfig reads the required "mode".
func NewProjectFromConfig(cfg map[string]interface{}) (*ProjectModule, error) {
	raw, _ := cfg["mode"].(string)
	mode, err := trip.ParseMode(raw)
	if err != nil {
		return nil, err
	}
	return NewProject(mode), nil
}

// Name implements Module.
func (m *ProjectModule) Name() string { return "project" }

// Process implements Module.
func (m *ProjectModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	switch m.mode {
	case trip.ModeInference:
		if err := frame.RequireColumns(df, trip.ColKey); err != nil {
			return df, err
		}
		return frame.DropColumns(df, trip.ColPickupDatetime), nil
	default:
		return frame.DropColumns(df, trip.ColPickupDatetime, trip.ColKey), nil
	}
}

var _ Module = (*ProjectModule)(nil)
