// Package position predicts overtaking chances, position change
// probabilities and the expected final classification.
package position

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

const syntheticFallbackRows = 800

// changeClasses are lose, maintain, gain.
const changeClasses = 3

const (
	overtakeFile = "overtake.json"
	changeFile   = "position_change.json"
)

var featureSet = ml.FeatureSet{
	{Name: "current_position", Default: 10},
	{Name: "lap_number", Default: 1},
	{Name: "remaining_laps", Default: 50},
	{Name: "gap_to_car_ahead", Default: 2.0},
	{Name: "gap_to_car_behind", Default: 2.0},
	{Name: "relative_pace", Default: 0},
	{Name: "tire_advantage", Default: 0},
	{Name: "compound_advantage", Default: 0},
	{Name: "drs_available", Default: 1},
	{Name: "battery_level", Default: 80},
	{Name: "straight_length", Default: 1000},
	{Name: "overtaking_difficulty", Default: 50},
	{Name: "track_position_value", Default: 50},
	{Name: "driver_aggression", Default: 50},
	{Name: "car_performance_delta", Default: 0},
	{Name: "weather_stability", Default: 100},
	{Name: "safety_car_probability", Default: 10},
	{Name: "laps_since_pit", Default: 5},
	{Name: "competitor_laps_since_pit", Default: 5},
	{Name: "points_position", Default: 10},
}

type bundle struct {
	overtake *ml.BinaryClassifier
	change   *ml.MultiClassifier
	scaler   *ml.Scaler
}

// Model is the position family.
type Model struct {
	mu       sync.RWMutex
	b        *bundle
	fallback *collector.Collector
	l        *log.Logger
}

func New() *Model {
	return &Model{
		fallback: collector.New(),
		l:        log.Default().Named("model.position"),
	}
}

// ChangeProbabilities is the class distribution of the next position change.
type ChangeProbabilities struct {
	LosePosition float64 `json:"lose_position"`
	Maintain     float64 `json:"maintain"`
	GainPosition float64 `json:"gain_position"`
}

// AttackAnalysis grades the chance against the car ahead.
type AttackAnalysis struct {
	GapToTarget       float64  `json:"gap_to_target"`
	Probability       float64  `json:"probability"`
	Factors           []string `json:"factors"`
	RecommendedAction string   `json:"recommended_action"`
}

// DefenseAnalysis grades the threat from the car behind.
type DefenseAnalysis struct {
	GapToThreat       float64 `json:"gap_to_threat"`
	ThreatLevel       string  `json:"threat_level"`
	ThreatColor       string  `json:"threat_color"`
	LoseProbability   float64 `json:"lose_probability"`
	RecommendedAction string  `json:"recommended_action"`
}

// Prediction is the position response.
type Prediction struct {
	CurrentPosition             int                 `json:"current_position"`
	PredictedFinalPosition      int                 `json:"predicted_final_position"`
	OvertakeProbability         float64             `json:"overtake_probability"`
	PositionChangeProbabilities ChangeProbabilities `json:"position_change_probabilities"`
	AttackAnalysis              AttackAnalysis      `json:"attack_analysis"`
	DefenseAnalysis             DefenseAnalysis     `json:"defense_analysis"`
	BattleStatus                string              `json:"battle_status"`
	TacticalRecommendations     []string            `json:"tactical_recommendations"`
}

// Train fits the overtake classifier and the position change classifier.
func (m *Model) Train(ds model.Dataset) (strategy.TrainResult, error) {
	if len(ds) < strategy.MinTrainRows {
		m.l.Info("not enough rows, training on synthetic data",
			log.Int("rows", len(ds)), log.Int("synthetic", syntheticFallbackRows))
		ds = m.fallback.SyntheticPositionRows(syntheticFallbackRows)
	}

	x := make([][]float64, len(ds))
	yOvertake := make([]float64, len(ds))
	yChange := make([]float64, len(ds))
	for i, s := range ds {
		x[i] = featureSet.Vector(s.Values)
		yOvertake[i] = s.Get("overtake_success", 0)
		yChange[i] = s.Get("position_change", 1)
	}

	scaler := &ml.Scaler{}
	if err := scaler.Fit(x); err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit scaler: %w", err)
	}
	xs := scaler.TransformAll(x)

	trainX, trainY, testX, testY := ml.Split(xs, yOvertake, strategy.TestFraction, strategy.SplitSeed)
	overtake, err := ml.TrainBinaryClassifier(trainX, trainY)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit overtake classifier: %w", err)
	}
	overtakePreds, err := overtake.ClassAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score overtake classifier: %w", err)
	}
	overtakeAcc := ml.Accuracy(overtakePreds, testY)

	trainX, trainY, testX, testY = ml.Split(xs, yChange, strategy.TestFraction, strategy.SplitSeed)
	change, err := ml.TrainMultiClassifier(trainX, trainY, changeClasses)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit position change classifier: %w", err)
	}
	changePreds, err := change.ClassAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score position change classifier: %w", err)
	}
	changeAcc := ml.Accuracy(changePreds, testY)

	m.swap(&bundle{overtake: overtake, change: change, scaler: scaler})
	m.l.Info("position model trained",
		log.Int("samples", len(ds)),
		log.Float64("overtakeAccuracy", overtakeAcc))

	return strategy.TrainResult{
		Metrics: map[string]float64{
			"overtake_accuracy":        ml.Round4(overtakeAcc),
			"position_change_accuracy": ml.Round4(changeAcc),
		},
		SamplesUsed: len(ds),
	}, nil
}

// Predict returns the position battle analysis for the current situation.
// The predicted final position is always within [1, 20].
func (m *Model) Predict(input map[string]float64) (*Prediction, error) {
	b := m.bundle()
	if b == nil {
		return nil, strategy.ErrNotTrained
	}

	row := b.scaler.Transform(featureSet.Vector(input))
	overtakeProb, err := b.overtake.Prob(row)
	if err != nil {
		return nil, fmt.Errorf("predict overtake: %w", err)
	}
	changeProbs, err := b.change.Probs(row)
	if err != nil {
		return nil, fmt.Errorf("predict position change: %w", err)
	}

	currentPos := get(input, "current_position", 10)
	gapAhead := get(input, "gap_to_car_ahead", 2.0)
	gapBehind := get(input, "gap_to_car_behind", 2.0)
	remaining := get(input, "remaining_laps", 50)

	loseProb := changeProbs[0]
	expectedGains := overtakeProb * math.Min(remaining/5, 3)
	expectedLosses := loseProb * math.Min(remaining/5, 2)
	predictedFinal := int(math.Round(currentPos - expectedGains + expectedLosses))
	if predictedFinal < 1 {
		predictedFinal = 1
	}
	if predictedFinal > 20 {
		predictedFinal = 20
	}

	return &Prediction{
		CurrentPosition:        int(currentPos),
		PredictedFinalPosition: predictedFinal,
		OvertakeProbability:    ml.Round4(overtakeProb),
		PositionChangeProbabilities: ChangeProbabilities{
			LosePosition: ml.Round4(changeProbs[0]),
			Maintain:     ml.Round4(changeProbs[1]),
			GainPosition: ml.Round4(changeProbs[2]),
		},
		AttackAnalysis:          analyzeAttack(input, overtakeProb),
		DefenseAnalysis:         analyzeDefense(input, loseProb),
		BattleStatus:            battleStatus(gapAhead, gapBehind),
		TacticalRecommendations: tacticalRecommendations(input, overtakeProb, changeProbs),
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
	if err := b.overtake.Save(filepath.Join(dir, overtakeFile)); err != nil {
		return fmt.Errorf("save overtake classifier: %w", err)
	}
	if err := b.change.Save(filepath.Join(dir, changeFile)); err != nil {
		return fmt.Errorf("save position change classifier: %w", err)
	}
	return nil
}

// Load restores a previously saved bundle from dir.
func (m *Model) Load(dir string) error {
	scaler, err := strategy.LoadMeta(dir)
	if err != nil {
		return err
	}
	overtake, err := ml.RestoreBinaryClassifier(filepath.Join(dir, overtakeFile))
	if err != nil {
		return fmt.Errorf("restore overtake classifier: %w", err)
	}
	change, err := ml.RestoreMultiClassifier(filepath.Join(dir, changeFile), changeClasses)
	if err != nil {
		return fmt.Errorf("restore position change classifier: %w", err)
	}
	m.swap(&bundle{overtake: overtake, change: change, scaler: scaler})
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

func analyzeAttack(input map[string]float64, overtakeProb float64) AttackAnalysis {
	gap := get(input, "gap_to_car_ahead", 2.0)

	factors := []string{}
	switch {
	case gap < 1.0:
		factors = append(factors, "Within striking distance")
	case gap < 2.0:
		factors = append(factors, "Close but needs work")
	default:
		factors = append(factors, "Too far to attack")
	}
	if get(input, "drs_available", 1) > 0 {
		factors = append(factors, "DRS available")
	} else {
		factors = append(factors, "No DRS")
	}
	if get(input, "relative_pace", 0) < 0 {
		factors = append(factors, "Pace advantage")
	} else {
		factors = append(factors, "No pace advantage")
	}

	action := "PRESSURE"
	if overtakeProb > 0.4 {
		action = "ATTACK"
	}
	return AttackAnalysis{
		GapToTarget:       round3(gap),
		Probability:       round1(overtakeProb * 100),
		Factors:           factors,
		RecommendedAction: action,
	}
}

func analyzeDefense(input map[string]float64, loseProb float64) DefenseAnalysis {
	gap := get(input, "gap_to_car_behind", 2.0)

	level, color := "HIGH", "red"
	switch {
	case gap > 3.0:
		level, color = "LOW", "green"
	case gap > 1.5:
		level, color = "MEDIUM", "yellow"
	}

	action := "MAINTAIN"
	if loseProb > 0.3 {
		action = "DEFEND"
	}
	return DefenseAnalysis{
		GapToThreat:       round3(gap),
		ThreatLevel:       level,
		ThreatColor:       color,
		LoseProbability:   round1(loseProb * 100),
		RecommendedAction: action,
	}
}

func battleStatus(gapAhead, gapBehind float64) string {
	switch {
	case gapAhead < 1.5 && gapBehind < 1.5:
		return "IN BATTLE - both sides"
	case gapAhead < 1.5:
		return "ATTACKING - car ahead"
	case gapBehind < 1.5:
		return "DEFENDING - under pressure"
	case gapAhead > 5.0 && gapBehind > 5.0:
		return "CLEAN AIR - no immediate battle"
	default:
		return "MONITORING - gaps manageable"
	}
}

func tacticalRecommendations(input map[string]float64, overtakeProb float64, changeProbs []float64) []string {
	recs := []string{}
	gapAhead := get(input, "gap_to_car_ahead", 2.0)
	gapBehind := get(input, "gap_to_car_behind", 2.0)
	tireAdv := get(input, "tire_advantage", 0)

	if overtakeProb > 0.5 {
		recs = append(recs, "High overtake probability - commit to the move")
	} else if overtakeProb > 0.3 {
		recs = append(recs, "Build pressure, wait for a mistake")
	}
	if gapBehind < 1.0 && changeProbs[0] > 0.3 {
		recs = append(recs, "Defensive driving recommended")
	}
	if tireAdv > 10 {
		recs = append(recs, "Tire advantage - attack late in the stint")
	} else if tireAdv < -10 {
		recs = append(recs, "Tire disadvantage - consider an early pit")
	}
	if gapAhead < 2.0 && get(input, "drs_available", 1) > 0 {
		recs = append(recs, "DRS active - use it on the main straight")
	}
	if get(input, "remaining_laps", 50) < 10 {
		recs = append(recs, "Final laps - increased aggression warranted")
	}
	if len(recs) == 0 {
		recs = append(recs, "Maintain current strategy")
	}
	return recs
}

func get(input map[string]float64, name string, fallback float64) float64 {
	if v, ok := input[name]; ok {
		return v
	}
	return fallback
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
