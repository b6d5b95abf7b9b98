package manager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/tire"
)

func TestInitialStatus(t *testing.T) {
	m := New(t.TempDir())
	status := m.Status()
	require.Len(t, status, len(Names))
	for _, name := range Names {
		assert.Equal(t, StatusNotTrained, status[name])
		assert.False(t, m.Ready(name))
	}
}

func TestUnknownModel(t *testing.T) {
	m := New(t.TempDir())
	_, err := m.Train("bogus", nil)
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = m.Predict("bogus", nil)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestPredictBeforeTrain(t *testing.T) {
	m := New(t.TempDir())
	_, err := m.Predict(TireStrategy, map[string]float64{})
	assert.ErrorIs(t, err, strategy.ErrNotTrained)
}

func TestTrainPersistsBundle(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)

	res, err := m.Train(TireStrategy, nil)
	require.NoError(t, err)
	assert.Positive(t, res.SamplesUsed)
	assert.Equal(t, StatusTrained, m.Status()[TireStrategy])
	assert.True(t, m.Ready(TireStrategy))

	_, err = os.Stat(filepath.Join(dir, TireStrategy, strategy.MetaFile))
	assert.NoError(t, err)

	pred, err := m.Predict(TireStrategy, map[string]float64{"tire_age": 10})
	require.NoError(t, err)
	assert.IsType(t, &tire.Prediction{}, pred)
}

func TestLoadAllRestoresSavedBundles(t *testing.T) {
	dir := t.TempDir()

	first := New(dir)
	_, err := first.Train(PitStop, nil)
	require.NoError(t, err)

	second := New(dir)
	second.LoadAll()
	assert.Equal(t, StatusLoaded, second.Status()[PitStop])
	assert.Equal(t, StatusNotTrained, second.Status()[RacePace])

	_, err = second.Predict(PitStop, map[string]float64{"tire_age": 20})
	assert.NoError(t, err)
}

func TestLoadAllSkipsCorruptBundle(t *testing.T) {
	dir := t.TempDir()
	bundleDir := filepath.Join(dir, Position)
	require.NoError(t, os.MkdirAll(bundleDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(bundleDir, strategy.MetaFile), []byte("not json"), 0o644))

	m := New(dir)
	m.LoadAll()
	assert.Equal(t, StatusNotTrained, m.Status()[Position])
}

func TestTrainServableWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	// a plain file where the bundle directory should go makes persisting fail
	require.NoError(t, os.WriteFile(filepath.Join(dir, TireStrategy), nil, 0o644))

	m := New(dir)
	_, err := m.Train(TireStrategy, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save")

	// the fitted bundle is swapped in regardless, status must agree
	assert.Equal(t, StatusTrained, m.Status()[TireStrategy])
	assert.True(t, m.Ready(TireStrategy))
	_, err = m.Predict(TireStrategy, map[string]float64{"tire_age": 10})
	assert.NoError(t, err)
}

func TestDescribe(t *testing.T) {
	for _, name := range Names {
		assert.NotEmpty(t, Describe(name))
	}
	assert.Empty(t, Describe("bogus"))
}
