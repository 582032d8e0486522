package trip

import "context"

// Downloader fetches and unpacks the raw archive into rawDir before cleaning runs.
type Downloader interface {
	Download(ctx context.Context, rawDir string) error
}

// Trainer consumes the four partition files in trainingDir and returns the
// path of the serialized model it produced.
type Trainer interface {
	Train(ctx context.Context, trainingDir string) (modelPath string, err error)
}

// Predictor loads a serialized model and the cleaned inference artifact and
// writes a submission file with the columns key and fare_amount.
type Predictor interface {
	Predict(ctx context.Context, modelPath, inferenceArtifact, submissionPath string) error
}
