package ml

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureSet(t *testing.T) {
	fs := FeatureSet{
		{Name: "tire_age", Default: 0},
		{Name: "fuel_load", Default: 100},
		{Name: "drs_available", Default: 1},
	}

	assert.Equal(t, []string{"tire_age", "fuel_load", "drs_available"}, fs.Names())

	// missing keys fall back to defaults, explicit zeros do not
	row := fs.Vector(map[string]float64{"tire_age": 12, "drs_available": 0})
	assert.Equal(t, []float64{12, 100, 0}, row)

	matrix := fs.Matrix([]map[string]float64{
		{"tire_age": 12},
		{"fuel_load": 40},
	})
	require.Len(t, matrix, 2)
	assert.Equal(t, []float64{12, 100, 1}, matrix[0])
	assert.Equal(t, []float64{0, 40, 1}, matrix[1])
}

func TestScaler(t *testing.T) {
	s := &Scaler{}
	err := s.Fit([][]float64{
		{1, 10, 5},
		{3, 20, 5},
		{5, 30, 5},
	})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, s.Mean[0], 1e-9)
	assert.InDelta(t, 20.0, s.Mean[1], 1e-9)
	// constant column keeps Std 1 so it passes through centered only
	assert.Equal(t, 1.0, s.Std[2])

	scaled := s.Transform([]float64{3, 20, 5})
	assert.InDelta(t, 0, scaled[0], 1e-9)
	assert.InDelta(t, 0, scaled[1], 1e-9)
	assert.InDelta(t, 0, scaled[2], 1e-9)
}

func TestScalerEmpty(t *testing.T) {
	s := &Scaler{}
	assert.Error(t, s.Fit(nil))
	assert.False(t, s.Fitted())
}

func TestSplit(t *testing.T) {
	x := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range x {
		x[i] = []float64{float64(i)}
		y[i] = float64(i)
	}
	trainX, trainY, testX, testY := Split(x, y, 0.2, 42)
	assert.Len(t, trainX, 8)
	assert.Len(t, trainY, 8)
	assert.Len(t, testX, 2)
	assert.Len(t, testY, 2)

	// rows stay paired
	for i := range trainX {
		assert.Equal(t, trainX[i][0], trainY[i])
	}

	// same seed, same split
	trainX2, _, _, _ := Split(x, y, 0.2, 42)
	assert.Equal(t, trainX, trainX2)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 1.0, Accuracy([]float64{1, 0, 1}, []float64{1, 0, 1}))
	assert.Equal(t, 0.5, Accuracy([]float64{1, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestRSquaredPerfectFit(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, RSquared(actual, actual), 1e-9)
	assert.Equal(t, 0.0, RSquared([]float64{1}, []float64{1}))
}

func TestRegressorLearnsLinearTarget(t *testing.T) {
	// y = 2*x0 + 1 on standardized input is well within reach of the fitter
	x := make([][]float64, 200)
	y := make([]float64, 200)
	for i := range x {
		v := float64(i%20)/10.0 - 1.0
		x[i] = []float64{v}
		y[i] = 2*v + 1
	}
	reg, err := TrainRegressor(x, y)
	require.NoError(t, err)

	got, err := reg.Predict([]float64{0.5})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 0.5)
}

func TestBinaryClassifierSeparable(t *testing.T) {
	x := make([][]float64, 200)
	y := make([]float64, 200)
	for i := range x {
		v := float64(i%20)/10.0 - 1.0
		x[i] = []float64{v}
		if v > 0 {
			y[i] = 1
		}
	}
	clf, err := TrainBinaryClassifier(x, y)
	require.NoError(t, err)

	hi, err := clf.Prob([]float64{0.9})
	require.NoError(t, err)
	lo, err := clf.Prob([]float64{-0.9})
	require.NoError(t, err)
	assert.Greater(t, hi, lo)
}

func TestRegressorRoundTrip(t *testing.T) {
	x := [][]float64{{0}, {0.2}, {0.4}, {0.6}, {0.8}, {1}}
	y := []float64{0, 0.2, 0.4, 0.6, 0.8, 1}
	reg, err := TrainRegressor(x, y)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reg.json")
	require.NoError(t, reg.Save(path))

	restored, err := RestoreRegressor(path)
	require.NoError(t, err)

	for _, probe := range [][]float64{{0.1}, {0.5}, {0.9}} {
		want, err := reg.Predict(probe)
		require.NoError(t, err)
		got, err := restored.Predict(probe)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMultiClassifierRoundTrip(t *testing.T) {
	// three linearly separable clusters on one axis
	x := make([][]float64, 300)
	y := make([]float64, 300)
	for i := range x {
		class := i % 3
		x[i] = []float64{float64(class) + float64(i%10)/50.0}
		y[i] = float64(class)
	}
	clf, err := TrainMultiClassifier(x, y, 3)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "softmax.json")
	require.NoError(t, clf.Save(path))
	restored, err := RestoreMultiClassifier(path, 3)
	require.NoError(t, err)

	for _, probe := range [][]float64{{0.05}, {1.05}, {2.05}} {
		want, err := clf.Probs(probe)
		require.NoError(t, err)
		got, err := restored.Probs(probe)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
