// Package collector turns raw session telemetry into flat training tables
// and supplements them with procedurally generated rows governed by the
// strategy rule table.
package collector

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/degradation"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/rules"
)

const (
	// DefaultRealWeight and DefaultSyntheticWeight are the sample weights of
	// the two dataset halves when both are present.
	DefaultRealWeight      = 0.7
	DefaultSyntheticWeight = 0.3

	defaultSeed = 42
)

// WeatherJoinLatestKnown names the weather attachment policy: every lap of a
// session gets the most recent weather sample of the bundle, not a sample
// time-aligned to the lap. Kept as an explicit policy so outputs stay
// comparable across ports.
const WeatherJoinLatestKnown = "latest_known"

type Collector struct {
	realWeight  float64
	synthWeight float64
	seed        uint64
	l           *log.Logger
}

type Option func(*Collector)

func WithWeights(real, synthetic float64) Option {
	return func(c *Collector) {
		c.realWeight = real
		c.synthWeight = synthetic
	}
}

func WithSeed(seed uint64) Option {
	return func(c *Collector) {
		c.seed = seed
	}
}

func New(opts ...Option) *Collector {
	c := &Collector{
		realWeight:  DefaultRealWeight,
		synthWeight: DefaultSyntheticWeight,
		seed:        defaultSeed,
		l:           log.Default().Named("collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SyntheticWeight exposes the configured synthetic confidence, used by the
// model families when they fall back to internal generation.
func (c *Collector) SyntheticWeight() float64 { return c.synthWeight }

// sessionFlags is the coarse, session-wide classification of race control
// messages. A flag is set when any message of the bundle mentions the
// keyword; there is no per-lap temporal alignment.
type sessionFlags struct {
	hasRain   bool
	safetyCar bool
	vsc       bool
}

func classifyRaceControl(msgs []model.RaceControlMessage) sessionFlags {
	var f sessionFlags
	for _, rc := range msgs {
		cat := strings.ToLower(rc.Category)
		if cat == "rain" {
			f.hasRain = true
		}
		if strings.Contains(cat, "safety") {
			f.safetyCar = true
		}
		if strings.Contains(cat, "vsc") {
			f.vsc = true
		}
	}
	return f
}

// stintIndex groups stints per driver and checks the contiguity
// precondition. Overlapping stints are logged, not repaired; lookup returns
// the first stint containing the lap, matching upstream ordering.
type stintIndex map[int][]model.Stint

func (c *Collector) buildStintIndex(stints []model.Stint) stintIndex {
	idx := lo.GroupBy(stints, func(s model.Stint) int { return s.DriverNumber })
	for driver, ds := range idx {
		sorted := make([]model.Stint, len(ds))
		copy(sorted, ds)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].LapStart < sorted[j].LapStart })
		for i := 1; i < len(sorted); i++ {
			if sorted[i].LapStart <= sorted[i-1].LapEnd {
				c.l.Warn("overlapping stints for driver",
					log.Int("driver", driver),
					log.Int("firstEnd", sorted[i-1].LapEnd),
					log.Int("secondStart", sorted[i].LapStart))
			}
		}
	}
	return idx
}

func (idx stintIndex) find(driver, lapNum int) (model.Stint, bool) {
	for _, s := range idx[driver] {
		if s.Contains(lapNum) {
			return s, true
		}
	}
	return model.Stint{}, false
}

// stintDurations collects the ordered lap times of one driver's stint.
// Laps without a usable time contribute a zero entry.
func stintDurations(laps []model.Lap, stint model.Stint) []float64 {
	inStint := lo.Filter(laps, func(l model.Lap, _ int) bool {
		return l.DriverNumber == stint.DriverNumber && stint.Contains(l.LapNumber)
	})
	sort.Slice(inStint, func(i, j int) bool { return inStint[i].LapNumber < inStint[j].LapNumber })
	return lo.Map(inStint, func(l model.Lap, _ int) float64 { return l.LapDuration })
}

func maxLapNumber(laps []model.Lap) int {
	maxLap := lo.MaxBy(laps, func(a, b model.Lap) bool { return a.LapNumber > b.LapNumber })
	if maxLap.LapNumber == 0 {
		return 50
	}
	return maxLap.LapNumber
}

// latestWeather applies the latest-known-value join policy.
func latestWeather(samples []model.Weather) model.Weather {
	if len(samples) == 0 {
		return model.Weather{TrackTemperature: 30, AirTemperature: 25, Humidity: 50}
	}
	return samples[len(samples)-1]
}

// TireRowsFromSession maps one session bundle to per-lap tire strategy rows.
// Labels come from the actually driven stints; a lap without a usable time
// or a resolvable stint yields no row. An empty bundle yields zero rows.
func (c *Collector) TireRowsFromSession(bundle model.SessionBundle) model.Dataset {
	if len(bundle.Laps) == 0 || len(bundle.Stints) == 0 {
		return nil
	}
	idx := c.buildStintIndex(bundle.Stints)
	weather := latestWeather(bundle.Weather)
	flags := classifyRaceControl(bundle.RaceControl)
	totalLaps := maxLapNumber(bundle.Laps)

	rows := make(model.Dataset, 0, len(bundle.Laps))
	for _, lap := range bundle.Laps {
		if lap.LapDuration <= 0 {
			continue
		}
		stint, ok := idx.find(lap.DriverNumber, lap.LapNumber)
		if !ok {
			continue
		}
		tireAge := lap.LapNumber - stint.LapStart
		degRate := degradation.Estimate(stintDurations(bundle.Laps, stint))

		rainProb := 0.0
		if flags.hasRain {
			rainProb = 50
		}
		rows = append(rows, model.Sample{
			Values: map[string]float64{
				"track_temperature":    weather.TrackTemperature,
				"air_temperature":      weather.AirTemperature,
				"humidity":             weather.Humidity,
				"track_length":         5.0,
				"number_of_corners":    15,
				"high_speed_corners":   5,
				"low_speed_corners":    10,
				"current_lap":          float64(lap.LapNumber),
				"total_laps":           float64(totalLaps),
				"remaining_laps":       float64(totalLaps - lap.LapNumber),
				"current_position":     10,
				"gap_to_leader":        0,
				"gap_to_car_ahead":     0,
				"gap_to_car_behind":    0,
				"fuel_load":            maxF(5, 110-float64(lap.LapNumber)*rules.FuelBurnPerLap),
				"tire_age":             float64(tireAge),
				"rain_probability":     rainProb,
				"track_evolution":      minF(100, float64(lap.LapNumber)*2),
				"safety_car":           boolF(flags.safetyCar),
				"vsc":                  boolF(flags.vsc),
				"optimal_stint_length": float64(stint.Length()),
				"degradation_rate":     degRate,
			},
			Compound:   stint.Compound,
			Source:     model.SourceReal,
			Confidence: 1.0,
		})
	}
	return rows
}

// PitRowsFromSession maps one session bundle to per-lap pit stop rows with
// ground truth pit timing labels.
func (c *Collector) PitRowsFromSession(bundle model.SessionBundle) model.Dataset {
	if len(bundle.Laps) == 0 || len(bundle.Stints) == 0 {
		return nil
	}
	idx := c.buildStintIndex(bundle.Stints)
	totalLaps := maxLapNumber(bundle.Laps)
	pitLapsByDriver := map[int][]int{}
	for _, pit := range bundle.PitStops {
		pitLapsByDriver[pit.DriverNumber] = append(pitLapsByDriver[pit.DriverNumber], pit.LapNumber)
	}

	rows := make(model.Dataset, 0, len(bundle.Laps))
	for _, lap := range bundle.Laps {
		if lap.LapDuration <= 0 {
			continue
		}
		stint, ok := idx.find(lap.DriverNumber, lap.LapNumber)
		if !ok {
			continue
		}
		tireAge := lap.TyreLife
		if tireAge == 0 {
			tireAge = lap.LapNumber - stint.LapStart
		}
		inWindow := tireAge >= rules.MinWindowTireAge &&
			tireAge <= rules.MaxWindowTireAge &&
			totalLaps-lap.LapNumber > 10

		gapAhead := 5.0
		if interval, found := lo.Find(bundle.Intervals, func(i model.Interval) bool {
			return i.DriverNumber == lap.DriverNumber
		}); found {
			gapAhead = interval.Interval
		}

		pitLaps := pitLapsByDriver[lap.DriverNumber]
		isPitLap := lo.Contains(pitLaps, lap.LapNumber)
		optimalPitLap := float64(lap.LapNumber + 20)
		if len(pitLaps) > 0 {
			optimalPitLap = float64(pitLaps[0])
		}

		undercut := gapAhead < rules.PitDeltaBase*rules.UndercutGapThreshold && tireAge > 15

		rows = append(rows, model.Sample{
			Values: map[string]float64{
				"current_lap":             float64(lap.LapNumber),
				"total_laps":              float64(totalLaps),
				"remaining_laps":          float64(totalLaps - lap.LapNumber),
				"tire_age":                float64(tireAge),
				"tire_compound_idx":       dryCompoundIdx(stint.Compound),
				"current_position":        10,
				"gap_to_car_ahead":        gapAhead,
				"gap_to_car_behind":       2.0,
				"pit_delta":               rules.PitDeltaBase,
				"track_position_value":    50,
				"tire_degradation_rate":   rules.TireDegradationBase,
				"current_pace_delta":      0,
				"competitor_tire_age":     15,
				"competitor_compound_idx": 1,
				"fuel_adjusted_pace":      0,
				"traffic_density":         5,
				"safety_car_probability":  10,
				"drs_available":           1,
				"track_temperature":       30,
				"rain_probability":        0,
				"in_pit_window":           boolF(inWindow),
				"actual_pit_taken":        boolF(isPitLap),
				"undercut_opportunity":    boolF(undercut),
				"optimal_pit_lap":         optimalPitLap,
			},
			Source:     model.SourceReal,
			Confidence: 1.0,
		})
	}
	return rows
}

// dryCompoundIdx maps dry compounds to the 0..2 index used by the pit and
// pace families; everything else counts as MEDIUM.
func dryCompoundIdx(c model.Compound) float64 {
	switch c {
	case model.CompoundSoft:
		return 0
	case model.CompoundMedium:
		return 1
	case model.CompoundHard:
		return 2
	default:
		return 1
	}
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clipF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
