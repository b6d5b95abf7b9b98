// Package degradation derives an empirical tire degradation rate from the
// lap time progression of a single stint.
package degradation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/rules"
)

const (
	// Floor covers fuel-burn dominated stints where lap times improve.
	Floor = 0.01
	// Ceil bounds the rate against outlier-heavy stints.
	Ceil = 0.15
	// blockSize is the number of laps averaged at each end of the stint.
	// Comparing block means instead of consecutive diffs keeps the estimate
	// robust against single-lap outliers (traffic, yellow flags).
	blockSize = 3
)

// Estimate returns the degradation rate in seconds of lap time per lap of
// tire age for one stint. durations are the stint's ordered lap times in
// seconds; a zero entry marks a lap without a usable time. Always returns a
// value in [Floor, Ceil] or the rule-table base; never errors.
func Estimate(durations []float64) float64 {
	valid := make([]float64, 0, len(durations))
	for _, d := range durations {
		if d > 0 {
			valid = append(valid, d)
		}
	}
	if len(valid) < blockSize {
		return rules.TireDegradationBase
	}

	early := stat.Mean(valid[:blockSize], nil)
	late := stat.Mean(valid[len(valid)-blockSize:], nil)
	if late <= early {
		return Floor
	}

	n := float64(len(durations))
	perLap := (late - early) / n
	rate := perLap / n
	return clip(rate, Floor, Ceil)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
