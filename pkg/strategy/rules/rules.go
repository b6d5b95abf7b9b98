// Package rules holds the static F1 strategy thresholds the synthetic data
// generators and label derivations are built on. Pure data, no behavior.
package rules

import "github.com/pitwall/f1-strategy-manager-go/pkg/model"

// Tire compound rules.
const (
	SoftStintBase   = 12 // average soft tire stint in laps
	MediumStintBase = 25
	HardStintBase   = 35
	InterStintBase  = 20
	WetStintBase    = 15

	TempThresholdHot  = 40.0 // Celsius
	TempThresholdCold = 25.0

	RainCrossover = 70.0 // % probability, above this -> INTERMEDIATE
	WetCrossover  = 85.0 // above this -> WET

	ShortStintThreshold = 15 // laps remaining
)

// Pit stop rules.
const (
	MinWindowTireAge     = 12
	MaxWindowTireAge     = 35
	OptimalTireAge       = 20
	UndercutGapThreshold = 0.15 // fraction of pit delta
	PitDeltaBase         = 22.0 // seconds
)

// Pace rules.
const (
	FuelEffectPerKg     = 0.03 // seconds per kg
	TireDegradationBase = 0.05 // seconds per lap per lap of age
	FuelBurnPerLap      = 1.8  // kg
)

// StintBase returns the baseline stint length for a compound.
func StintBase(c model.Compound) float64 {
	switch c {
	case model.CompoundSoft:
		return SoftStintBase
	case model.CompoundMedium:
		return MediumStintBase
	case model.CompoundHard:
		return HardStintBase
	case model.CompoundIntermediate:
		return InterStintBase
	case model.CompoundWet:
		return WetStintBase
	default:
		return MediumStintBase
	}
}

// PaceOffset is the compound pace offset relative to MEDIUM in seconds/lap.
func PaceOffset(c model.Compound) float64 {
	switch c {
	case model.CompoundSoft:
		return -0.3
	case model.CompoundMedium:
		return 0.0
	case model.CompoundHard:
		return 0.4
	case model.CompoundIntermediate:
		return 0.8
	case model.CompoundWet:
		return 1.5
	default:
		return 0.0
	}
}
