// Package tire predicts the optimal tire compound, stint length and
// degradation rate for the current race situation.
package tire

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/ml"
	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/collector"
)

const syntheticFallbackRows = 500

const (
	compoundFile    = "compound.json"
	stintFile       = "stint.json"
	degradationFile = "degradation.json"
)

// featureSet is the persisted input schema. Order matters.
var featureSet = ml.FeatureSet{
	{Name: "track_temperature", Default: 30},
	{Name: "air_temperature", Default: 25},
	{Name: "humidity", Default: 50},
	{Name: "track_length", Default: 5.0},
	{Name: "number_of_corners", Default: 15},
	{Name: "high_speed_corners", Default: 5},
	{Name: "low_speed_corners", Default: 10},
	{Name: "current_lap", Default: 1},
	{Name: "total_laps", Default: 50},
	{Name: "remaining_laps", Default: 50},
	{Name: "current_position", Default: 10},
	{Name: "gap_to_leader", Default: 0},
	{Name: "gap_to_car_ahead", Default: 0},
	{Name: "gap_to_car_behind", Default: 0},
	{Name: "fuel_load", Default: 100},
	{Name: "tire_age", Default: 0},
	{Name: "rain_probability", Default: 0},
	{Name: "track_evolution", Default: 50},
	{Name: "safety_car", Default: 0},
	{Name: "vsc", Default: 0},
}

// inputAliases maps request field names onto training column names.
var inputAliases = map[string]string{
	"safety_car_deployed": "safety_car",
	"vsc_deployed":        "vsc",
}

type bundle struct {
	compound    *ml.MultiClassifier
	stint       *ml.Regressor
	degradation *ml.Regressor
	scaler      *ml.Scaler
}

// Model is the tire strategy family. The trained bundle is replaced as a
// whole under the mutex, so concurrent predicts always see a consistent
// scaler and estimator set.
type Model struct {
	mu       sync.RWMutex
	b        *bundle
	fallback *collector.Collector
	l        *log.Logger
}

func New() *Model {
	return &Model{
		fallback: collector.New(),
		l:        log.Default().Named("model.tire"),
	}
}

// Prediction is the tire strategy response.
type Prediction struct {
	RecommendedCompound   model.Compound             `json:"recommended_compound"`
	CompoundConfidence    float64                    `json:"compound_confidence"`
	CompoundProbabilities map[model.Compound]float64 `json:"compound_probabilities"`
	PredictedStintLength  int                        `json:"predicted_stint_length"`
	DegradationRatePerLap float64                    `json:"degradation_rate_per_lap"`
	// ExpectedTimeLossPerLap is in milliseconds.
	ExpectedTimeLossPerLap float64  `json:"expected_time_loss_per_lap"`
	StrategyNotes          []string `json:"strategy_notes"`
}

// Train fits the compound classifier and the stint and degradation
// regressors. Datasets below the minimum row count are replaced by one
// synthetic batch.
func (m *Model) Train(ds model.Dataset) (strategy.TrainResult, error) {
	if len(ds) < strategy.MinTrainRows {
		m.l.Info("not enough rows, training on synthetic data",
			log.Int("rows", len(ds)), log.Int("synthetic", syntheticFallbackRows))
		ds = m.fallback.SyntheticTireRows(syntheticFallbackRows, nil)
	}

	x := make([][]float64, len(ds))
	yCompound := make([]float64, len(ds))
	yStint := make([]float64, len(ds))
	yDeg := make([]float64, len(ds))
	for i, s := range ds {
		x[i] = featureSet.Vector(s.Values)
		yCompound[i] = float64(model.CompoundIndex(s.Compound))
		yStint[i] = s.Get("optimal_stint_length", 25)
		yDeg[i] = s.Get("degradation_rate", 0.05)
	}

	scaler := &ml.Scaler{}
	if err := scaler.Fit(x); err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit scaler: %w", err)
	}
	xs := scaler.TransformAll(x)

	trainX, trainY, testX, testY := ml.Split(xs, yCompound, strategy.TestFraction, strategy.SplitSeed)
	compound, err := ml.TrainMultiClassifier(trainX, trainY, len(model.Compounds))
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit compound classifier: %w", err)
	}
	preds, err := compound.ClassAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score compound classifier: %w", err)
	}
	compoundAcc := ml.Accuracy(preds, testY)

	trainX, trainY, testX, testY = ml.Split(xs, yStint, strategy.TestFraction, strategy.SplitSeed)
	stint, err := ml.TrainRegressor(trainX, trainY)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit stint regressor: %w", err)
	}
	stintPreds, err := stint.PredictAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score stint regressor: %w", err)
	}
	stintR2 := ml.RSquared(stintPreds, testY)

	trainX, trainY, testX, testY = ml.Split(xs, yDeg, strategy.TestFraction, strategy.SplitSeed)
	degradation, err := ml.TrainRegressor(trainX, trainY)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit degradation regressor: %w", err)
	}
	degPreds, err := degradation.PredictAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score degradation regressor: %w", err)
	}
	degR2 := ml.RSquared(degPreds, testY)

	m.swap(&bundle{compound: compound, stint: stint, degradation: degradation, scaler: scaler})
	m.l.Info("tire strategy model trained",
		log.Int("samples", len(ds)),
		log.Float64("compoundAccuracy", compoundAcc))

	return strategy.TrainResult{
		Metrics: map[string]float64{
			"compound_classifier_accuracy": ml.Round4(compoundAcc),
			"stint_regressor_r2":           ml.Round4(stintR2),
			"degradation_regressor_r2":     ml.Round4(degR2),
		},
		SamplesUsed: len(ds),
	}, nil
}

// Predict returns the compound recommendation for the current situation.
// Missing input fields fall back to the schema defaults.
func (m *Model) Predict(input map[string]float64) (*Prediction, error) {
	b := m.bundle()
	if b == nil {
		return nil, strategy.ErrNotTrained
	}

	values := aliased(input)
	row := b.scaler.Transform(featureSet.Vector(values))

	probs, err := b.compound.Probs(row)
	if err != nil {
		return nil, fmt.Errorf("predict compound: %w", err)
	}
	best := 0
	probabilities := make(map[model.Compound]float64, len(model.Compounds))
	for i, c := range model.Compounds {
		probabilities[c] = ml.Round4(probs[i])
		if probs[i] > probs[best] {
			best = i
		}
	}
	recommended := model.Compounds[best]

	stintLen, err := b.stint.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predict stint length: %w", err)
	}
	predictedStint := int(stintLen)
	if predictedStint < 5 {
		predictedStint = 5
	}

	degRate, err := b.degradation.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predict degradation: %w", err)
	}
	if degRate < 0.01 {
		degRate = 0.01
	}

	return &Prediction{
		RecommendedCompound:    recommended,
		CompoundConfidence:     ml.Round4(probs[best]),
		CompoundProbabilities:  probabilities,
		PredictedStintLength:   predictedStint,
		DegradationRatePerLap:  ml.Round4(degRate),
		ExpectedTimeLossPerLap: round1(degRate * 1000),
		StrategyNotes:          strategyNotes(recommended, predictedStint, values),
	}, nil
}

// Save writes the bundle into dir.
func (m *Model) Save(dir string) error {
	b := m.bundle()
	if b == nil {
		return strategy.ErrNotTrained
	}
	if err := strategy.SaveMeta(dir, b.scaler); err != nil {
		return err
	}
	if err := b.compound.Save(filepath.Join(dir, compoundFile)); err != nil {
		return fmt.Errorf("save compound classifier: %w", err)
	}
	if err := b.stint.Save(filepath.Join(dir, stintFile)); err != nil {
		return fmt.Errorf("save stint regressor: %w", err)
	}
	if err := b.degradation.Save(filepath.Join(dir, degradationFile)); err != nil {
		return fmt.Errorf("save degradation regressor: %w", err)
	}
	return nil
}

// Load restores a previously saved bundle from dir.
func (m *Model) Load(dir string) error {
	scaler, err := strategy.LoadMeta(dir)
	if err != nil {
		return err
	}
	compound, err := ml.RestoreMultiClassifier(filepath.Join(dir, compoundFile), len(model.Compounds))
	if err != nil {
		return fmt.Errorf("restore compound classifier: %w", err)
	}
	stint, err := ml.RestoreRegressor(filepath.Join(dir, stintFile))
	if err != nil {
		return fmt.Errorf("restore stint regressor: %w", err)
	}
	degradation, err := ml.RestoreRegressor(filepath.Join(dir, degradationFile))
	if err != nil {
		return fmt.Errorf("restore degradation regressor: %w", err)
	}
	m.swap(&bundle{compound: compound, stint: stint, degradation: degradation, scaler: scaler})
	return nil
}

// Trained reports whether a bundle is available.
func (m *Model) Trained() bool {
	return m.bundle() != nil
}

func (m *Model) bundle() *bundle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.b
}

func (m *Model) swap(b *bundle) {
	m.mu.Lock()
	m.b = b
	m.mu.Unlock()
}

func strategyNotes(compound model.Compound, stintLength int, values map[string]float64) []string {
	get := func(name string, fallback float64) float64 {
		if v, ok := values[name]; ok {
			return v
		}
		return fallback
	}

	notes := []string{}
	if get("rain_probability", 0) > 50 {
		notes = append(notes, "High rain probability - monitor weather closely")
	}
	switch compound {
	case model.CompoundSoft:
		notes = append(notes, "Soft compound: maximum grip but high degradation")
	case model.CompoundMedium:
		notes = append(notes, "Medium compound: balanced performance")
	case model.CompoundHard:
		notes = append(notes, "Hard compound: lower grip but excellent durability")
	}
	if stintLength < 15 {
		notes = append(notes, "Short stint expected - plan for an additional stop")
	} else if stintLength > 30 {
		notes = append(notes, "Long stint possible - one-stop strategy viable")
	}
	if get("safety_car", 0) > 0 {
		notes = append(notes, "Safety car - consider an opportunistic pit stop")
	}
	if get("track_temperature", 30) > 45 {
		notes = append(notes, "High track temperature - expect increased degradation")
	}
	return notes
}

func aliased(input map[string]float64) map[string]float64 {
	values := make(map[string]float64, len(input))
	for k, v := range input {
		if target, ok := inputAliases[k]; ok {
			k = target
		}
		values[k] = v
	}
	return values
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
