package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Accuracy is the fraction of exact class matches.
func Accuracy(predicted, actual []float64) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return 0
	}
	hits := 0
	for i := range predicted {
		if predicted[i] == actual[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(predicted))
}

// RSquared is the coefficient of determination of a regression on a held-out
// set. Degenerate inputs yield 0 instead of NaN so metric maps stay
// JSON-encodable.
func RSquared(predicted, actual []float64) float64 {
	if len(predicted) < 2 || len(predicted) != len(actual) {
		return 0
	}
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0
	}
	return r2
}

// Round4 trims metric values to 4 decimals, the precision exposed by the
// training responses.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
