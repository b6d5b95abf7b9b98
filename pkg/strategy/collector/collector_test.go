package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
)

func raceBundle() model.SessionBundle {
	return model.SessionBundle{
		SessionKey: 9001,
		Laps: []model.Lap{
			{DriverNumber: 1, LapNumber: 1, LapDuration: 92.1},
			{DriverNumber: 1, LapNumber: 2, LapDuration: 91.8},
			{DriverNumber: 1, LapNumber: 3, LapDuration: 91.9},
			{DriverNumber: 1, LapNumber: 4, LapDuration: 0}, // incomplete lap
			{DriverNumber: 1, LapNumber: 5, LapDuration: 92.4},
			{DriverNumber: 1, LapNumber: 6, LapDuration: 93.0},
			{DriverNumber: 44, LapNumber: 1, LapDuration: 93.5},
			{DriverNumber: 44, LapNumber: 2, LapDuration: 93.2},
			{DriverNumber: 44, LapNumber: 9, LapDuration: 94.0}, // no stint covers lap 9
		},
		Stints: []model.Stint{
			{DriverNumber: 1, Compound: model.CompoundMedium, LapStart: 1, LapEnd: 6},
			{DriverNumber: 44, Compound: model.CompoundSoft, LapStart: 1, LapEnd: 5},
		},
		Weather: []model.Weather{
			{TrackTemperature: 28, AirTemperature: 22, Humidity: 60},
			{TrackTemperature: 33, AirTemperature: 24, Humidity: 55},
		},
		RaceControl: []model.RaceControlMessage{
			{Category: "Flag", Message: "YELLOW FLAG SECTOR 2"},
			{Category: "SafetyCar", Message: "SAFETY CAR DEPLOYED"},
		},
		Intervals: []model.Interval{
			{DriverNumber: 1, GapToLeader: 0, Interval: 0},
			{DriverNumber: 44, GapToLeader: 3.2, Interval: 3.2},
		},
		PitStops: []model.PitStop{
			{DriverNumber: 1, LapNumber: 6, PitDuration: 22.4},
		},
	}
}

func TestTireRowsFromSession(t *testing.T) {
	c := New()
	bundle := raceBundle()
	rows := c.TireRowsFromSession(bundle)

	// lap 4 has no duration, driver 44 lap 9 has no stint
	require.Len(t, rows, 7)
	assert.LessOrEqual(t, len(rows), len(bundle.Laps))

	for _, row := range rows {
		assert.Equal(t, model.SourceReal, row.Source)
		assert.Equal(t, 1.0, row.Confidence)
		// latest-known weather is attached to every lap
		assert.Equal(t, 33.0, row.Values["track_temperature"])
		// session-wide safety car flag
		assert.Equal(t, 1.0, row.Values["safety_car"])
		assert.Equal(t, 0.0, row.Values["vsc"])
	}

	// labels come from the driven stint
	first := rows[0]
	assert.Equal(t, model.CompoundMedium, first.Compound)
	assert.Equal(t, 6.0, first.Values["optimal_stint_length"])
	assert.Equal(t, 0.0, first.Values["tire_age"]) // lap 1 of a stint starting at 1
}

func TestTireRowsEmptyBundle(t *testing.T) {
	c := New()
	assert.Empty(t, c.TireRowsFromSession(model.SessionBundle{}))
	assert.Empty(t, c.TireRowsFromSession(model.SessionBundle{
		Laps: []model.Lap{{DriverNumber: 1, LapNumber: 1, LapDuration: 90}},
	}))
	assert.Empty(t, c.TireRowsFromSession(model.SessionBundle{
		Stints: []model.Stint{{DriverNumber: 1, LapStart: 1, LapEnd: 5}},
	}))
}

func TestTireRowsOverlappingStints(t *testing.T) {
	// overlap is a violated precondition: logged, first matching stint wins
	c := New()
	bundle := model.SessionBundle{
		Laps: []model.Lap{
			{DriverNumber: 1, LapNumber: 3, LapDuration: 90.0},
		},
		Stints: []model.Stint{
			{DriverNumber: 1, Compound: model.CompoundSoft, LapStart: 1, LapEnd: 4},
			{DriverNumber: 1, Compound: model.CompoundHard, LapStart: 3, LapEnd: 8},
		},
	}
	rows := c.TireRowsFromSession(bundle)
	require.Len(t, rows, 1)
	assert.Equal(t, model.CompoundSoft, rows[0].Compound)
}

func TestPitRowsFromSession(t *testing.T) {
	c := New()
	rows := c.PitRowsFromSession(raceBundle())
	require.Len(t, rows, 7)

	for _, row := range rows {
		assert.Equal(t, model.SourceReal, row.Source)
		assert.Contains(t, row.Values, "in_pit_window")
		assert.Contains(t, row.Values, "optimal_pit_lap")
	}

	// driver 1 pitted on lap 6: that row is a pit lap, optimal lap = first pit
	var lap6 model.Sample
	for _, row := range rows {
		if row.Values["current_lap"] == 6 && row.Values["gap_to_car_ahead"] == 0 {
			lap6 = row
		}
	}
	require.NotNil(t, lap6.Values)
	assert.Equal(t, 1.0, lap6.Values["actual_pit_taken"])
	assert.Equal(t, 6.0, lap6.Values["optimal_pit_lap"])
}

func TestClassifyRaceControl(t *testing.T) {
	flags := classifyRaceControl([]model.RaceControlMessage{
		{Category: "rain"},
		{Category: "VscDeployed"},
	})
	assert.True(t, flags.hasRain)
	assert.True(t, flags.vsc)
	assert.False(t, flags.safetyCar)

	assert.Equal(t, sessionFlags{}, classifyRaceControl(nil))
}
