package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
)

func TestHybridTireDatasetSyntheticOnly(t *testing.T) {
	// zero bundles with min 50 real rows -> exactly one full synthetic batch
	c := New()
	ds := c.HybridTireDataset(nil, 50, 1000)

	require.Len(t, ds, 1000)
	for _, row := range ds {
		assert.Equal(t, model.SourceSynthetic, row.Source)
		assert.Equal(t, 1.0, row.Weight)
	}
}

func TestHybridTireDatasetScarceRealStillFullBatch(t *testing.T) {
	// some real rows, but below the minimum: synthetic request is the full target
	c := New()
	ds := c.HybridTireDataset([]model.SessionBundle{raceBundle()}, 50, 300)

	real := 0
	synth := 0
	for _, row := range ds {
		switch row.Source {
		case model.SourceReal:
			real++
			assert.Equal(t, DefaultRealWeight, row.Weight)
		case model.SourceSynthetic:
			synth++
			assert.Equal(t, DefaultSyntheticWeight, row.Weight)
		}
	}
	assert.Equal(t, 7, real)
	assert.Equal(t, 300, synth)
}

func TestHybridTireDatasetAbundantReal(t *testing.T) {
	// real rows beyond the minimum: synthetic fills the gap scaled by the
	// synthetic weight, so the total falls short of the target (accepted)
	c := New()
	bundles := []model.SessionBundle{raceBundle()}
	ds := c.HybridTireDataset(bundles, 5, 107)

	real := 0
	synth := 0
	for _, row := range ds {
		if row.Source == model.SourceReal {
			real++
		} else {
			synth++
		}
	}
	assert.Equal(t, 7, real)
	// (107 - 7) * 0.3 = 30
	assert.Equal(t, 30, synth)
	assert.Less(t, len(ds), 107)
}

func TestHybridTireDatasetRealOnlyFullWeight(t *testing.T) {
	// synthetic side empty -> real rows carry full weight
	c := New()
	ds := c.HybridTireDataset([]model.SessionBundle{raceBundle()}, 5, 7)

	require.Len(t, ds, 7)
	for _, row := range ds {
		assert.Equal(t, model.SourceReal, row.Source)
		assert.Equal(t, 1.0, row.Weight)
	}
}

func TestHybridTireDatasetUsesObservedTempRange(t *testing.T) {
	c := New()
	ds := c.HybridTireDataset([]model.SessionBundle{raceBundle()}, 5, 107)

	for _, row := range ds {
		if row.Source == model.SourceSynthetic {
			// real rows all carry the latest-known track temp of 33
			assert.GreaterOrEqual(t, row.Values["track_temperature"], 33.0)
			assert.LessOrEqual(t, row.Values["track_temperature"], 34.0)
		}
	}
}

func TestHybridPitDataset(t *testing.T) {
	c := New()
	ds := c.HybridPitDataset([]model.SessionBundle{raceBundle()}, 50, 200)

	real := 0
	for _, row := range ds {
		if row.Source == model.SourceReal {
			real++
		}
	}
	assert.Equal(t, 7, real)
	assert.Equal(t, 200+real, len(ds))
}

func TestHybridPreservesRowOrder(t *testing.T) {
	// real rows first (bundle order), synthetic appended; no shuffling
	c := New()
	ds := c.HybridTireDataset([]model.SessionBundle{raceBundle()}, 50, 100)
	require.Greater(t, len(ds), 7)
	for i, row := range ds {
		if i < 7 {
			assert.Equal(t, model.SourceReal, row.Source)
		} else {
			assert.Equal(t, model.SourceSynthetic, row.Source)
		}
	}
}
