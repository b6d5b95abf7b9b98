package ml

// Feature names one input column and the value substituted when a caller
// omits it.
type Feature struct {
	Name    string
	Default float64
}

// FeatureSet is the ordered input schema of one model family. Column order
// is part of the persisted model contract and must not change between
// training and prediction.
type FeatureSet []Feature

// Vector builds one input row, falling back to defaults for missing keys.
func (fs FeatureSet) Vector(values map[string]float64) []float64 {
	row := make([]float64, len(fs))
	for i, f := range fs {
		if v, ok := values[f.Name]; ok {
			row[i] = v
		} else {
			row[i] = f.Default
		}
	}
	return row
}

// Matrix vectorizes many rows.
func (fs FeatureSet) Matrix(values []map[string]float64) [][]float64 {
	out := make([][]float64, len(values))
	for i, v := range values {
		out[i] = fs.Vector(v)
	}
	return out
}

// Names returns the column names in schema order.
func (fs FeatureSet) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}
