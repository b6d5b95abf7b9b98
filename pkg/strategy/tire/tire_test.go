package tire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy"
)

func TestPredictBeforeTrain(t *testing.T) {
	m := New()
	_, err := m.Predict(map[string]float64{})
	assert.ErrorIs(t, err, strategy.ErrNotTrained)
	assert.False(t, m.Trained())
}

func TestTrainFallsBackToSynthetic(t *testing.T) {
	m := New()
	res, err := m.Train(nil)
	require.NoError(t, err)

	assert.Equal(t, syntheticFallbackRows, res.SamplesUsed)
	assert.Contains(t, res.Metrics, "compound_classifier_accuracy")
	assert.Contains(t, res.Metrics, "stint_regressor_r2")
	assert.Contains(t, res.Metrics, "degradation_regressor_r2")
	assert.True(t, m.Trained())
}

func TestPredictShape(t *testing.T) {
	m := New()
	_, err := m.Train(nil)
	require.NoError(t, err)

	pred, err := m.Predict(map[string]float64{
		"track_temperature": 35,
		"rain_probability":  90,
		"tire_age":          12,
	})
	require.NoError(t, err)

	assert.Contains(t, model.Compounds, pred.RecommendedCompound)
	assert.GreaterOrEqual(t, pred.PredictedStintLength, 5)
	assert.GreaterOrEqual(t, pred.DegradationRatePerLap, 0.01)
	assert.Len(t, pred.CompoundProbabilities, len(model.Compounds))

	sum := 0.0
	for _, p := range pred.CompoundProbabilities {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestStrategyNotes(t *testing.T) {
	tests := []struct {
		name     string
		compound model.Compound
		stint    int
		values   map[string]float64
		want     string
	}{
		{
			name:     "rain warning",
			compound: model.CompoundIntermediate,
			stint:    20,
			values:   map[string]float64{"rain_probability": 60},
			want:     "High rain probability - monitor weather closely",
		},
		{
			name:     "soft compound",
			compound: model.CompoundSoft,
			stint:    20,
			values:   map[string]float64{},
			want:     "Soft compound: maximum grip but high degradation",
		},
		{
			name:     "short stint",
			compound: model.CompoundMedium,
			stint:    10,
			values:   map[string]float64{},
			want:     "Short stint expected - plan for an additional stop",
		},
		{
			name:     "long stint",
			compound: model.CompoundHard,
			stint:    35,
			values:   map[string]float64{},
			want:     "Long stint possible - one-stop strategy viable",
		},
		{
			name:     "safety car",
			compound: model.CompoundMedium,
			stint:    20,
			values:   map[string]float64{"safety_car": 1},
			want:     "Safety car - consider an opportunistic pit stop",
		},
		{
			name:     "hot track",
			compound: model.CompoundMedium,
			stint:    20,
			values:   map[string]float64{"track_temperature": 48},
			want:     "High track temperature - expect increased degradation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, strategyNotes(tt.compound, tt.stint, tt.values), tt.want)
		})
	}
}

func TestInputAliases(t *testing.T) {
	values := aliased(map[string]float64{
		"safety_car_deployed": 1,
		"vsc_deployed":        1,
		"tire_age":            5,
	})
	assert.Equal(t, 1.0, values["safety_car"])
	assert.Equal(t, 1.0, values["vsc"])
	assert.Equal(t, 5.0, values["tire_age"])
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New()
	_, err := m.Train(nil)
	require.NoError(t, err)

	input := map[string]float64{
		"track_temperature": 42,
		"tire_age":          18,
		"remaining_laps":    22,
	}
	want, err := m.Predict(input)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, m.Save(dir))

	restored := New()
	require.NoError(t, restored.Load(dir))
	assert.True(t, restored.Trained())

	got, err := restored.Predict(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
