// Package ml wraps the estimator toolkit shared by the model families:
// feature scaling, seeded splitting, evaluation metrics and thin goml
// wrappers with file persistence.
package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean, unit variance. Exported fields
// round-trip through the model bundle sidecar.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-column moments. Zero-variance columns get Std 1 so
// constant features pass through unchanged.
func (s *Scaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("scaler: empty feature matrix")
	}
	cols := len(x[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		s.Std[j] = stat.StdDev(col, nil)
		if s.Std[j] == 0 || len(x) < 2 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform scales a single row.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll scales a full matrix.
func (s *Scaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.Transform(row)
	}
	return out
}

// Fitted reports whether Fit ran.
func (s *Scaler) Fitted() bool {
	return len(s.Mean) > 0
}
