package ml

import (
	"fmt"

	"github.com/cdipaolo/goml/base"
	"github.com/cdipaolo/goml/linear"
)

// Shared gradient ascent hyperparameters. Features are standardized before
// fitting, so one setting serves all families.
const (
	learnRate      = 1e-4
	regularization = 0.0
	maxIterations  = 1000
)

// Regressor is a least-squares model over scaled features.
type Regressor struct {
	m *linear.LeastSquares
}

// TrainRegressor fits a regressor on the given matrix and target.
func TrainRegressor(x [][]float64, y []float64) (*Regressor, error) {
	m := linear.NewLeastSquares(base.BatchGA, learnRate, regularization, maxIterations, x, y)
	if err := m.Learn(); err != nil {
		return nil, fmt.Errorf("least squares fit: %w", err)
	}
	return &Regressor{m: m}, nil
}

func (r *Regressor) Predict(row []float64) (float64, error) {
	out, err := r.m.Predict(row)
	if err != nil {
		return 0, fmt.Errorf("regressor predict: %w", err)
	}
	return out[0], nil
}

// PredictAll evaluates the regressor over a matrix.
func (r *Regressor) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := r.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Regressor) Save(path string) error {
	return r.m.PersistToFile(path)
}

func RestoreRegressor(path string) (*Regressor, error) {
	m := linear.NewLeastSquares(base.BatchGA, learnRate, regularization, maxIterations, nil, nil)
	if err := m.RestoreFromFile(path); err != nil {
		return nil, fmt.Errorf("restore regressor %s: %w", path, err)
	}
	return &Regressor{m: m}, nil
}

// BinaryClassifier is a logistic model; Prob returns P(class == 1).
type BinaryClassifier struct {
	m *linear.Logistic
}

func TrainBinaryClassifier(x [][]float64, y []float64) (*BinaryClassifier, error) {
	m := linear.NewLogistic(base.BatchGA, learnRate, regularization, maxIterations, x, y)
	if err := m.Learn(); err != nil {
		return nil, fmt.Errorf("logistic fit: %w", err)
	}
	return &BinaryClassifier{m: m}, nil
}

func (c *BinaryClassifier) Prob(row []float64) (float64, error) {
	out, err := c.m.Predict(row)
	if err != nil {
		return 0, fmt.Errorf("classifier predict: %w", err)
	}
	return out[0], nil
}

// Class applies the 0.5 decision threshold.
func (c *BinaryClassifier) Class(row []float64) (float64, error) {
	p, err := c.Prob(row)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

// ClassAll evaluates the decision over a matrix.
func (c *BinaryClassifier) ClassAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := c.Class(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *BinaryClassifier) Save(path string) error {
	return c.m.PersistToFile(path)
}

func RestoreBinaryClassifier(path string) (*BinaryClassifier, error) {
	m := linear.NewLogistic(base.BatchGA, learnRate, regularization, maxIterations, nil, nil)
	if err := m.RestoreFromFile(path); err != nil {
		return nil, fmt.Errorf("restore classifier %s: %w", path, err)
	}
	return &BinaryClassifier{m: m}, nil
}

// MultiClassifier is a k-way softmax model. Class labels are indices
// 0..k-1; y carries them as float64.
type MultiClassifier struct {
	m *linear.Softmax
	k int
}

func TrainMultiClassifier(x [][]float64, y []float64, k int) (*MultiClassifier, error) {
	m := linear.NewSoftmax(base.BatchGA, learnRate, regularization, k, maxIterations, x, y)
	if err := m.Learn(); err != nil {
		return nil, fmt.Errorf("softmax fit: %w", err)
	}
	return &MultiClassifier{m: m, k: k}, nil
}

// Probs returns the class probability vector of length k.
func (c *MultiClassifier) Probs(row []float64) ([]float64, error) {
	out, err := c.m.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("softmax predict: %w", err)
	}
	return out, nil
}

// Class returns the argmax class index.
func (c *MultiClassifier) Class(row []float64) (float64, error) {
	probs, err := c.Probs(row)
	if err != nil {
		return 0, err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return float64(best), nil
}

// ClassAll evaluates argmax classification over a matrix.
func (c *MultiClassifier) ClassAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := c.Class(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *MultiClassifier) Save(path string) error {
	return c.m.PersistToFile(path)
}

func RestoreMultiClassifier(path string, k int) (*MultiClassifier, error) {
	m := linear.NewSoftmax(base.BatchGA, learnRate, regularization, k, maxIterations, nil, nil)
	if err := m.RestoreFromFile(path); err != nil {
		return nil, fmt.Errorf("restore softmax %s: %w", path, err)
	}
	return &MultiClassifier{m: m, k: k}, nil
}
