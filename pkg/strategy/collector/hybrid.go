package collector

import (
	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
)

// extractFunc maps one bundle to real rows for a family.
type extractFunc func(model.SessionBundle) model.Dataset

// HybridTireDataset builds one combined tire strategy table from real
// session telemetry, topped up with synthetic rows.
func (c *Collector) HybridTireDataset(
	bundles []model.SessionBundle, minReal, targetTotal int,
) model.Dataset {
	return c.hybrid(bundles, minReal, targetTotal, c.TireRowsFromSession,
		func(n int, tempRange *TempRange) model.Dataset {
			return c.SyntheticTireRows(n, tempRange)
		})
}

// HybridPitDataset builds one combined pit stop table.
func (c *Collector) HybridPitDataset(
	bundles []model.SessionBundle, minReal, targetTotal int,
) model.Dataset {
	return c.hybrid(bundles, minReal, targetTotal, c.PitRowsFromSession,
		func(n int, _ *TempRange) model.Dataset {
			return c.SyntheticPitRows(n)
		})
}

// hybrid implements the combination policy: when real data is scarce
// (below minReal) a full target-sized synthetic batch is requested.
// Otherwise synthetic rows only fill the remaining gap scaled by the
// synthetic weight; the final total may then fall short of targetTotal,
// which is accepted. No shuffling; callers split/shuffle before training.
func (c *Collector) hybrid(
	bundles []model.SessionBundle,
	minReal, targetTotal int,
	extract extractFunc,
	generate func(int, *TempRange) model.Dataset,
) model.Dataset {
	var real model.Dataset
	for _, bundle := range bundles {
		real = append(real, extract(bundle)...)
	}
	nReal := len(real)
	c.l.Info("collected real samples", log.Int("rows", nReal), log.Int("bundles", len(bundles)))

	var nSynth int
	if nReal < minReal {
		nSynth = targetTotal
		c.l.Info("not enough real data, generating full synthetic batch",
			log.Int("nReal", nReal), log.Int("minReal", minReal), log.Int("nSynth", nSynth))
	} else {
		nSynth = int(float64(targetTotal-nReal) * c.synthWeight)
		if nSynth < 0 {
			nSynth = 0
		}
		c.l.Info("supplementing real samples",
			log.Int("nReal", nReal), log.Int("nSynth", nSynth))
	}

	var synth model.Dataset
	if nSynth > 0 {
		var tempRange *TempRange
		if tmin, tmax, ok := real.ValueRange("track_temperature"); ok {
			tempRange = &TempRange{Min: tmin, Max: tmax}
		}
		synth = generate(nSynth, tempRange)
	}

	switch {
	case nReal > 0 && len(synth) > 0:
		real.SetWeight(c.realWeight)
		synth.SetWeight(c.synthWeight)
		return append(real, synth...)
	case nReal > 0:
		real.SetWeight(1.0)
		return real
	default:
		synth.SetWeight(1.0)
		return synth
	}
}
