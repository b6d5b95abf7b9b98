package model

// DataSource tags where a training row came from.
type DataSource string

const (
	SourceReal      DataSource = "real"
	SourceSynthetic DataSource = "synthetic"
)

// Sample is one flat training row. Numeric features and numeric labels share
// the Values map; the tire family's categorical label lives in Compound.
// Confidence and Weight are provenance fields in [0,1].
type Sample struct {
	Values     map[string]float64
	Compound   Compound // categorical label, tire family only
	Source     DataSource
	Confidence float64
	Weight     float64
}

// Get returns the named value or fallback when the key is absent.
func (s Sample) Get(name string, fallback float64) float64 {
	if v, ok := s.Values[name]; ok {
		return v
	}
	return fallback
}

// Dataset is an ordered table of training rows.
type Dataset []Sample

// SetWeight assigns w to every row.
func (d Dataset) SetWeight(w float64) {
	for i := range d {
		d[i].Weight = w
	}
}

// ValueRange returns the min and max of the named column. ok is false when
// no row carries the column.
func (d Dataset) ValueRange(name string) (minV, maxV float64, ok bool) {
	for _, s := range d {
		v, has := s.Values[name]
		if !has {
			continue
		}
		if !ok {
			minV, maxV, ok = v, v, true
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV, ok
}
