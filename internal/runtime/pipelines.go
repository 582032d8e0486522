package runtime

import (
	"fmt"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/modules/filter"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// TrainingStages returns the training composition. conditions are inserted
// after the temporal features so expressions can refer to every derived column.
func TrainingStages(conditions ...string) []trip.StageConfig {
	stages := []trip.StageConfig{
		{Type: "boundingBox"},
		{Type: "dropNullCoordinates"},
		{Type: "fareRange"},
		{Type: "distance"},
		{Type: "positiveDistance"},
		{Type: "farePerDistance"},
		{Type: "farePerDistanceCeiling"},
		{Type: "temporal"},
	}
	for _, c := range conditions {
		stages = append(stages, trip.StageConfig{
			Type:   "condition",
			Config: map[string]interface{}{"expression": c, "onError": filter.OnErrorSkip},
		})
	}
	return append(stages, trip.StageConfig{
		Type:   "project",
		Config: map[string]interface{}{"mode": string(trip.ModeTraining)},
	})
}

// InferenceStages returns the inference composition. Rows are never dropped
// for fare or range reasons: every key must get a prediction.
func InferenceStages() []trip.StageConfig {
	return []trip.StageConfig{
		{Type: "dropNullCoordinates"},
		{Type: "distance"},
		{Type: "temporal"},
		{Type: "project", Config: map[string]interface{}{"mode": string(trip.ModeInference)}},
	}
}

// StagesFor returns the composition for a pipeline mode.
func StagesFor(mode trip.Mode, conditions []string) ([]trip.StageConfig, error) {
	switch mode {
	case trip.ModeTraining:
		return TrainingStages(conditions...), nil
	case trip.ModeInference:
		if len(conditions) > 0 {
			return nil, errhandling.NewConfigError("conditions are only supported by the training pipeline", nil)
		}
		return InferenceStages(), nil
	default:
		return nil, errhandling.NewConfigError(fmt.Sprintf("unknown pipeline mode %q", mode), nil)
	}
}
