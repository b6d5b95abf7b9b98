package collector

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/rules"
)

// TempRange is the observed track temperature context passed from real data
// so synthetic rows stay plausible for the tracks actually fetched.
type TempRange struct {
	Min float64
	Max float64
}

// sampler wraps one seeded source for all feature distributions of a
// generation call.
type sampler struct {
	r   *rand.Rand
	src rand.Source
}

func newSampler(seed uint64) *sampler {
	src := rand.NewSource(seed)
	return &sampler{r: rand.New(src), src: src}
}

func (s *sampler) uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: s.src}.Rand()
}

// intRange draws an integer from [lo, hi) as float64.
func (s *sampler) intRange(lo, hi int) float64 {
	return float64(lo + s.r.Intn(hi-lo))
}

func (s *sampler) exponential(scale float64) float64 {
	return distuv.Exponential{Rate: 1 / scale, Src: s.src}.Rand()
}

func (s *sampler) normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}.Rand()
}

func (s *sampler) bernoulli(p float64) float64 {
	if s.r.Float64() < p {
		return 1
	}
	return 0
}

// choice draws one compound with the given cumulative-free weights.
func (s *sampler) choice(compounds []model.Compound, weights []float64) model.Compound {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	draw := s.r.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if draw < acc {
			return compounds[i]
		}
	}
	return compounds[len(compounds)-1]
}

// deriveCompound is the deterministic label cascade, evaluated in fixed
// priority order: rain overrides everything, then temperature extremes, then
// a short remaining stint, then a position-biased weighted choice.
func deriveCompound(s *sampler, rainProb, trackTemp, remainingLaps, position float64) model.Compound {
	if rainProb > rules.WetCrossover {
		return model.CompoundWet
	}
	if rainProb > rules.RainCrossover {
		return model.CompoundIntermediate
	}
	if trackTemp > rules.TempThresholdHot {
		if remainingLaps > 20 {
			return model.CompoundHard
		}
		return model.CompoundMedium
	}
	if trackTemp < rules.TempThresholdCold {
		return model.CompoundSoft
	}
	if remainingLaps < rules.ShortStintThreshold {
		return model.CompoundSoft
	}
	switch {
	case position <= 3:
		// front runners stay conservative
		if s.r.Float64() > 0.3 {
			return model.CompoundMedium
		}
		return model.CompoundHard
	case position >= 15:
		// back markers gamble on pace
		if s.r.Float64() > 0.5 {
			return model.CompoundSoft
		}
		return model.CompoundMedium
	default:
		return s.choice(
			[]model.Compound{model.CompoundSoft, model.CompoundMedium, model.CompoundHard},
			[]float64{0.3, 0.5, 0.2})
	}
}

// SyntheticTireRows generates n tire strategy rows. When tempRange is
// non-nil, track temperatures are drawn from the observed range.
func (c *Collector) SyntheticTireRows(n int, tempRange *TempRange) model.Dataset {
	s := newSampler(c.seed)
	tempLo, tempHi := 20.0, 50.0
	if tempRange != nil {
		tempLo, tempHi = tempRange.Min, tempRange.Max
	}
	if tempHi <= tempLo {
		tempHi = tempLo + 1
	}

	rows := make(model.Dataset, 0, n)
	for i := 0; i < n; i++ {
		values := map[string]float64{
			"track_temperature":  s.uniform(tempLo, tempHi),
			"air_temperature":    s.uniform(15, 40),
			"humidity":           s.uniform(20, 90),
			"track_length":       s.uniform(3.0, 7.0),
			"number_of_corners":  s.intRange(10, 25),
			"high_speed_corners": s.intRange(2, 10),
			"low_speed_corners":  s.intRange(5, 15),
			"current_lap":        s.intRange(1, 50),
			"total_laps":         s.intRange(50, 70),
			"remaining_laps":     s.intRange(1, 50),
			"current_position":   s.intRange(1, 20),
			"gap_to_leader":      s.uniform(0, 60),
			"gap_to_car_ahead":   s.uniform(0, 10),
			"gap_to_car_behind":  s.uniform(0, 10),
			"fuel_load":          s.uniform(10, 110),
			"tire_age":           s.intRange(0, 30),
			"rain_probability":   s.uniform(0, 100),
			"track_evolution":    s.uniform(0, 100),
			"safety_car":         s.bernoulli(0.1),
			"vsc":                s.bernoulli(0.05),
		}

		compound := deriveCompound(s,
			values["rain_probability"],
			values["track_temperature"],
			values["remaining_laps"],
			values["current_position"])

		stintLen := rules.StintBase(compound) +
			s.intRange(-5, 6) -
			(values["track_temperature"]-30)*0.2 -
			values["high_speed_corners"]*0.5
		values["optimal_stint_length"] = clipF(stintLen, 5, 50)

		degRate := rules.TireDegradationBase +
			(values["track_temperature"]-30)*0.002 +
			values["high_speed_corners"]*0.003 +
			s.uniform(-0.01, 0.01)
		values["degradation_rate"] = clipF(degRate, 0.01, 0.15)

		rows = append(rows, model.Sample{
			Values:     values,
			Compound:   compound,
			Source:     model.SourceSynthetic,
			Confidence: c.synthWeight,
		})
	}
	return rows
}

// SyntheticPitRows generates n pit stop rows with rule-derived labels.
func (c *Collector) SyntheticPitRows(n int) model.Dataset {
	s := newSampler(c.seed)
	compoundStint := map[float64]float64{0: 15, 1: 25, 2: 35}

	rows := make(model.Dataset, 0, n)
	for i := 0; i < n; i++ {
		values := map[string]float64{
			"current_lap":             s.intRange(1, 55),
			"total_laps":              s.intRange(50, 70),
			"remaining_laps":          s.intRange(1, 55),
			"tire_age":                s.intRange(0, 35),
			"tire_compound_idx":       s.intRange(0, 3),
			"current_position":        s.intRange(1, 20),
			"gap_to_car_ahead":        s.exponential(3),
			"gap_to_car_behind":       s.exponential(3),
			"pit_delta":               s.uniform(18, 26),
			"track_position_value":    s.uniform(30, 80),
			"tire_degradation_rate":   s.uniform(0.02, 0.12),
			"current_pace_delta":      s.normal(0, 0.5),
			"competitor_tire_age":     s.intRange(0, 35),
			"competitor_compound_idx": s.intRange(0, 3),
			"fuel_adjusted_pace":      s.normal(0, 0.3),
			"traffic_density":         s.intRange(0, 15),
			"safety_car_probability":  s.uniform(0, 30),
			"drs_available":           s.bernoulli(0.7),
			"track_temperature":       s.uniform(20, 50),
			"rain_probability":        s.uniform(0, 100),
		}

		inWindow := values["tire_age"] >= rules.MinWindowTireAge &&
			values["tire_age"] <= rules.MaxWindowTireAge &&
			values["remaining_laps"] > 10
		values["in_pit_window"] = boolF(inWindow)

		undercut := values["gap_to_car_ahead"] < values["pit_delta"]*rules.UndercutGapThreshold &&
			values["tire_age"] > values["competitor_tire_age"] &&
			inWindow
		values["undercut_opportunity"] = boolF(undercut)

		values["optimal_pit_lap"] = values["current_lap"] +
			compoundStint[values["tire_compound_idx"]] -
			values["tire_age"] +
			s.intRange(-3, 4)

		actualPit := 0.0
		if inWindow && s.r.Float64() > 0.3 {
			actualPit = 1
		}
		values["actual_pit_taken"] = actualPit

		rows = append(rows, model.Sample{
			Values:     values,
			Source:     model.SourceSynthetic,
			Confidence: c.synthWeight,
		})
	}
	return rows
}

// SyntheticPaceRows generates n race pace rows with physically derived lap
// time labels (fuel, tire age, traffic and temperature effects plus noise).
func (c *Collector) SyntheticPaceRows(n int) model.Dataset {
	s := newSampler(c.seed)
	const baseTime = 88.0

	rows := make(model.Dataset, 0, n)
	for i := 0; i < n; i++ {
		values := map[string]float64{
			"lap_number":         s.intRange(1, 60),
			"fuel_load":          s.uniform(5, 110),
			"tire_age":           s.intRange(0, 35),
			"tire_compound_idx":  s.intRange(0, 3),
			"track_temperature":  s.uniform(20, 50),
			"air_temperature":    s.uniform(15, 40),
			"track_evolution":    s.uniform(0, 100),
			"traffic":            s.intRange(0, 5),
			"drs_enabled":        s.bernoulli(0.7),
			"sector1_time":       s.uniform(25, 35),
			"sector2_time":       s.uniform(30, 40),
			"previous_lap_time":  s.uniform(85, 95),
			"best_lap_time":      s.uniform(84, 88),
			"avg_lap_time":       s.uniform(86, 92),
			"position":           s.intRange(1, 20),
			"wind_speed":         s.uniform(0, 30),
			"humidity":           s.uniform(20, 90),
			"safety_car_laps":    s.intRange(0, 10),
			"push_level":         s.uniform(50, 100),
			"battery_deployment": s.uniform(30, 100),
		}

		values["lap_time"] = baseTime +
			rules.PaceOffset(model.Compounds[int(values["tire_compound_idx"])]) +
			values["fuel_load"]*rules.FuelEffectPerKg +
			values["tire_age"]*0.04 +
			values["traffic"]*0.3 +
			(values["track_temperature"]-30)*0.02 +
			s.normal(0, 0.3)
		values["fuel_effect"] = rules.FuelEffectPerKg + s.normal(0, 0.002)
		values["pace_trend"] = values["tire_age"]*0.03 + s.normal(0, 0.05)

		rows = append(rows, model.Sample{
			Values:     values,
			Source:     model.SourceSynthetic,
			Confidence: c.synthWeight,
		})
	}
	return rows
}

// SyntheticPositionRows generates n position battle rows with rule-derived
// overtake and position change labels.
func (c *Collector) SyntheticPositionRows(n int) model.Dataset {
	s := newSampler(c.seed)

	rows := make(model.Dataset, 0, n)
	for i := 0; i < n; i++ {
		values := map[string]float64{
			"current_position":          s.intRange(1, 20),
			"lap_number":                s.intRange(1, 60),
			"remaining_laps":            s.intRange(1, 55),
			"gap_to_car_ahead":          s.exponential(2),
			"gap_to_car_behind":         s.exponential(2),
			"relative_pace":             s.normal(0, 0.5),
			"tire_advantage":            s.intRange(-15, 16),
			"compound_advantage":        s.intRange(-1, 2),
			"drs_available":             s.bernoulli(0.7),
			"battery_level":             s.uniform(30, 100),
			"straight_length":           s.uniform(500, 1500),
			"overtaking_difficulty":     s.uniform(20, 90),
			"track_position_value":      s.uniform(30, 80),
			"driver_aggression":         s.uniform(30, 90),
			"car_performance_delta":     s.normal(0, 0.3),
			"weather_stability":         s.uniform(50, 100),
			"safety_car_probability":    s.uniform(0, 30),
			"laps_since_pit":            s.intRange(0, 30),
			"competitor_laps_since_pit": s.intRange(0, 30),
			"points_position":           s.intRange(1, 20),
		}

		overtake := values["gap_to_car_ahead"] < 1.0 &&
			values["relative_pace"] < -0.2 &&
			values["drs_available"] == 1 &&
			values["overtaking_difficulty"] < 70
		values["overtake_success"] = boolF(overtake)

		// position change classes: 0 lose, 1 maintain, 2 gain
		change := 1.0
		if overtake {
			change = 2
		} else if values["gap_to_car_behind"] < 0.5 && values["relative_pace"] > 0.3 {
			change = 0
		}
		values["position_change"] = change

		rows = append(rows, model.Sample{
			Values:     values,
			Source:     model.SourceSynthetic,
			Confidence: c.synthWeight,
		})
	}
	return rows
}
