package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/rules"
)

func TestStintBase(t *testing.T) {
	assert.Equal(t, 12.0, rules.StintBase(model.CompoundSoft))
	assert.Equal(t, 35.0, rules.StintBase(model.CompoundHard))
	// unknown labels fall back to the MEDIUM baseline
	assert.Equal(t, 25.0, rules.StintBase(model.Compound("UNKNOWN")))
}

func TestPaceOffsetOrdering(t *testing.T) {
	// softer and drier is faster; offsets are relative to MEDIUM
	assert.Equal(t, 0.0, rules.PaceOffset(model.CompoundMedium))
	assert.Equal(t, 0.0, rules.PaceOffset(model.Compound("UNKNOWN")))
	prev := rules.PaceOffset(model.CompoundSoft)
	for _, c := range []model.Compound{
		model.CompoundMedium,
		model.CompoundHard,
		model.CompoundIntermediate,
		model.CompoundWet,
	} {
		cur := rules.PaceOffset(c)
		assert.Greater(t, cur, prev, "offset for %s", c)
		prev = cur
	}
}
