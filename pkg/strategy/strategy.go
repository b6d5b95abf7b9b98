// Package strategy holds the types shared by the model family packages
// underneath it.
package strategy

import "errors"

// ErrNotTrained is returned by Predict before the first successful Train or
// Load of a family.
var ErrNotTrained = errors.New("model not trained")

// Training contract shared by all families. The split seed is part of the
// reproducibility guarantee of the metrics.
const (
	TestFraction = 0.2
	SplitSeed    = 42
	MinTrainRows = 10
)

// TrainResult is the outcome of one family training run.
type TrainResult struct {
	Metrics     map[string]float64 `json:"metrics"`
	SamplesUsed int                `json:"samples_used"`
}
