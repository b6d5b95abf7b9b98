package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
)

func TestSyntheticTireRows(t *testing.T) {
	c := New()
	rows := c.SyntheticTireRows(200, nil)
	require.Len(t, rows, 200)

	for _, row := range rows {
		assert.Equal(t, model.SourceSynthetic, row.Source)
		assert.Equal(t, DefaultSyntheticWeight, row.Confidence)

		// rain cascade is deterministic and overrides everything else
		rain := row.Values["rain_probability"]
		switch {
		case rain > 85:
			assert.Equal(t, model.CompoundWet, row.Compound)
		case rain > 70:
			assert.Equal(t, model.CompoundIntermediate, row.Compound)
		}

		// labels stay in their clipped ranges
		assert.GreaterOrEqual(t, row.Values["optimal_stint_length"], 5.0)
		assert.LessOrEqual(t, row.Values["optimal_stint_length"], 50.0)
		assert.GreaterOrEqual(t, row.Values["degradation_rate"], 0.01)
		assert.LessOrEqual(t, row.Values["degradation_rate"], 0.15)
	}
}

func TestSyntheticTireRowsTempContext(t *testing.T) {
	c := New()
	rows := c.SyntheticTireRows(100, &TempRange{Min: 31, Max: 34})
	for _, row := range rows {
		assert.GreaterOrEqual(t, row.Values["track_temperature"], 31.0)
		assert.LessOrEqual(t, row.Values["track_temperature"], 34.0)
	}
}

func TestSyntheticTireRowsDeterministic(t *testing.T) {
	a := New(WithSeed(7)).SyntheticTireRows(20, nil)
	b := New(WithSeed(7)).SyntheticTireRows(20, nil)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Compound, b[i].Compound)
		assert.Equal(t, a[i].Values, b[i].Values)
	}
}

func TestSyntheticPitRows(t *testing.T) {
	c := New()
	rows := c.SyntheticPitRows(200)
	require.Len(t, rows, 200)
	for _, row := range rows {
		inWindow := row.Values["tire_age"] >= 12 &&
			row.Values["tire_age"] <= 35 &&
			row.Values["remaining_laps"] > 10
		assert.Equal(t, boolF(inWindow), row.Values["in_pit_window"])
		if row.Values["undercut_opportunity"] == 1 {
			assert.Equal(t, 1.0, row.Values["in_pit_window"])
		}
		if row.Values["actual_pit_taken"] == 1 {
			assert.Equal(t, 1.0, row.Values["in_pit_window"])
		}
	}
}

func TestSyntheticPaceRows(t *testing.T) {
	c := New()
	rows := c.SyntheticPaceRows(150)
	require.Len(t, rows, 150)
	for _, row := range rows {
		assert.Contains(t, row.Values, "lap_time")
		assert.Contains(t, row.Values, "fuel_effect")
		assert.Contains(t, row.Values, "pace_trend")
		// plausible lap times for the synthetic circuit
		assert.Greater(t, row.Values["lap_time"], 80.0)
		assert.Less(t, row.Values["lap_time"], 100.0)
	}
}

func TestSyntheticPositionRows(t *testing.T) {
	c := New()
	rows := c.SyntheticPositionRows(150)
	require.Len(t, rows, 150)
	for _, row := range rows {
		change := row.Values["position_change"]
		assert.Contains(t, []float64{0, 1, 2}, change)
		if row.Values["overtake_success"] == 1 {
			assert.Equal(t, 2.0, change)
		}
	}
}
