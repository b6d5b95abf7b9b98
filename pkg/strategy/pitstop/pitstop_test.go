package pitstop

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy"
)

func TestPredictBeforeTrain(t *testing.T) {
	m := New()
	_, err := m.Predict(map[string]float64{})
	assert.ErrorIs(t, err, strategy.ErrNotTrained)
}

func TestTrainFallsBackToSynthetic(t *testing.T) {
	m := New()
	res, err := m.Train(nil)
	require.NoError(t, err)

	assert.Equal(t, syntheticFallbackRows, res.SamplesUsed)
	assert.Contains(t, res.Metrics, "pit_window_accuracy")
	assert.Contains(t, res.Metrics, "undercut_accuracy")
	assert.Contains(t, res.Metrics, "optimal_lap_r2")
	assert.True(t, m.Trained())
}

func TestUrgencyBounds(t *testing.T) {
	m := New()
	_, err := m.Train(nil)
	require.NoError(t, err)

	inputs := []map[string]float64{
		{},
		{"tire_age": 0, "tire_degradation_rate": 0.01},
		{"tire_age": 30, "tire_degradation_rate": 0.12},
		{"tire_age": 35, "tire_degradation_rate": 0.15, "remaining_laps": 30},
	}
	for _, input := range inputs {
		pred, err := m.Predict(input)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, pred.PitUrgency, 0)
		assert.LessOrEqual(t, pred.PitUrgency, 100)
	}
}

func TestWornTiresTriggerCriticalRecommendation(t *testing.T) {
	m := New()
	_, err := m.Train(nil)
	require.NoError(t, err)

	pred, err := m.Predict(map[string]float64{
		"tire_age":              30,
		"tire_degradation_rate": 0.12,
		"current_lap":           28,
		"remaining_laps":        25,
	})
	require.NoError(t, err)

	assert.Greater(t, pred.PitUrgency, 80)
	assert.True(t, strings.HasPrefix(pred.Recommendation, "CRITICAL"))
}

func TestRecommendationCascade(t *testing.T) {
	tests := []struct {
		name     string
		inWindow bool
		undercut bool
		urgency  int
		input    map[string]float64
		prefix   string
	}{
		{"critical beats everything", true, true, 90, nil, "CRITICAL"},
		{"undercut in window", true, true, 60, nil, "UNDERCUT"},
		{"window with urgency", true, false, 60, nil, "WINDOW OPEN: good time"},
		{"window without urgency", true, false, 20, nil, "WINDOW OPEN: pit window available"},
		{"safety car", false, false, 20, map[string]float64{"safety_car_deployed": 1}, "SAFETY CAR"},
		{"stay out", false, false, 20, nil, "STAY OUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommendation(tt.inWindow, tt.undercut, tt.urgency, tt.input)
			assert.True(t, strings.HasPrefix(got, tt.prefix), got)
		})
	}
}

func TestStrategyOptions(t *testing.T) {
	input := map[string]float64{
		"current_lap":    5,
		"total_laps":     60,
		"remaining_laps": 55,
	}
	options := strategyOptions(input, 30)
	require.Len(t, options, 3)

	assert.Equal(t, "Optimal Strategy", options[0].Name)
	assert.Equal(t, 30, options[0].PitLap)
	assert.EqualValues(t, "MEDIUM", options[0].Compound)

	assert.Equal(t, "Extended Stint", options[1].Name)
	assert.Equal(t, 35, options[1].PitLap)

	assert.Equal(t, "Undercut Attempt", options[2].Name)
	assert.Equal(t, 6, options[2].PitLap)
}

func TestStrategyOptionsLateRace(t *testing.T) {
	// no extension past the race end, no undercut when already at the
	// optimal lap
	input := map[string]float64{
		"current_lap":    48,
		"total_laps":     52,
		"remaining_laps": 4,
	}
	options := strategyOptions(input, 49)
	require.Len(t, options, 1)
	assert.EqualValues(t, "SOFT", options[0].Compound)
}

func TestOptimalLapNeverBeforeCurrent(t *testing.T) {
	m := New()
	_, err := m.Train(nil)
	require.NoError(t, err)

	pred, err := m.Predict(map[string]float64{
		"current_lap": 50,
		"tire_age":    34,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.OptimalPitLap, 50)
	assert.GreaterOrEqual(t, pred.LapsUntilOptimal, 0)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New()
	_, err := m.Train(nil)
	require.NoError(t, err)

	input := map[string]float64{
		"tire_age":         20,
		"gap_to_car_ahead": 1.2,
		"current_lap":      22,
	}
	want, err := m.Predict(input)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, m.Save(dir))

	restored := New()
	require.NoError(t, restored.Load(dir))

	got, err := restored.Predict(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
