// Package pitstop predicts pit windows, undercut opportunities and the
// optimal pit lap.
package pitstop

import (
	"fmt"
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
	windowFile   = "window.json"
	undercutFile = "undercut.json"
	optimalFile  = "optimal_lap.json"
)

var featureSet = ml.FeatureSet{
	{Name: "current_lap", Default: 1},
	{Name: "total_laps", Default: 50},
	{Name: "remaining_laps", Default: 50},
	{Name: "tire_age", Default: 0},
	{Name: "tire_compound_idx", Default: 1},
	{Name: "current_position", Default: 10},
	{Name: "gap_to_car_ahead", Default: 2.0},
	{Name: "gap_to_car_behind", Default: 2.0},
	{Name: "pit_delta", Default: 22.0},
	{Name: "track_position_value", Default: 50},
	{Name: "tire_degradation_rate", Default: 0.05},
	{Name: "current_pace_delta", Default: 0},
	{Name: "competitor_tire_age", Default: 10},
	{Name: "competitor_compound_idx", Default: 1},
	{Name: "fuel_adjusted_pace", Default: 0},
	{Name: "traffic_density", Default: 5},
	{Name: "safety_car_probability", Default: 10},
	{Name: "drs_available", Default: 1},
	{Name: "track_temperature", Default: 30},
	{Name: "rain_probability", Default: 0},
}

type bundle struct {
	window   *ml.BinaryClassifier
	undercut *ml.BinaryClassifier
	optimal  *ml.Regressor
	scaler   *ml.Scaler
}

// Model is the pit stop family.
type Model struct {
	mu       sync.RWMutex
	b        *bundle
	fallback *collector.Collector
	l        *log.Logger
}

func New() *Model {
	return &Model{
		fallback: collector.New(),
		l:        log.Default().Named("model.pitstop"),
	}
}

// StrategyOption is one alternative pit plan.
type StrategyOption struct {
	Name         string         `json:"name"`
	PitLap       int            `json:"pit_lap"`
	Compound     model.Compound `json:"compound"`
	ExpectedGain string         `json:"expected_gain"`
	Risk         string         `json:"risk"`
}

// Prediction is the pit stop response.
type Prediction struct {
	InPitWindow          bool             `json:"in_pit_window"`
	PitWindowProbability float64          `json:"pit_window_probability"`
	UndercutOpportunity  bool             `json:"undercut_opportunity"`
	UndercutProbability  float64          `json:"undercut_probability"`
	OptimalPitLap        int              `json:"optimal_pit_lap"`
	LapsUntilOptimal     int              `json:"laps_until_optimal"`
	PitUrgency           int              `json:"pit_urgency"`
	Recommendation       string           `json:"recommendation"`
	StrategyOptions      []StrategyOption `json:"strategy_options"`
}

// Train fits the window and undercut classifiers and the optimal lap
// regressor.
func (m *Model) Train(ds model.Dataset) (strategy.TrainResult, error) {
	if len(ds) < strategy.MinTrainRows {
		m.l.Info("not enough rows, training on synthetic data",
			log.Int("rows", len(ds)), log.Int("synthetic", syntheticFallbackRows))
		ds = m.fallback.SyntheticPitRows(syntheticFallbackRows)
	}

	x := make([][]float64, len(ds))
	yWindow := make([]float64, len(ds))
	yUndercut := make([]float64, len(ds))
	yOptimal := make([]float64, len(ds))
	for i, s := range ds {
		x[i] = featureSet.Vector(s.Values)
		yWindow[i] = s.Get("in_pit_window", 0)
		yUndercut[i] = s.Get("undercut_opportunity", 0)
		yOptimal[i] = s.Get("optimal_pit_lap", 25)
	}

	scaler := &ml.Scaler{}
	if err := scaler.Fit(x); err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit scaler: %w", err)
	}
	xs := scaler.TransformAll(x)

	trainX, trainY, testX, testY := ml.Split(xs, yWindow, strategy.TestFraction, strategy.SplitSeed)
	window, err := ml.TrainBinaryClassifier(trainX, trainY)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit pit window classifier: %w", err)
	}
	windowPreds, err := window.ClassAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score pit window classifier: %w", err)
	}
	windowAcc := ml.Accuracy(windowPreds, testY)

	trainX, trainY, testX, testY = ml.Split(xs, yUndercut, strategy.TestFraction, strategy.SplitSeed)
	undercut, err := ml.TrainBinaryClassifier(trainX, trainY)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit undercut classifier: %w", err)
	}
	undercutPreds, err := undercut.ClassAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score undercut classifier: %w", err)
	}
	undercutAcc := ml.Accuracy(undercutPreds, testY)

	trainX, trainY, testX, testY = ml.Split(xs, yOptimal, strategy.TestFraction, strategy.SplitSeed)
	optimal, err := ml.TrainRegressor(trainX, trainY)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit optimal lap regressor: %w", err)
	}
	optimalPreds, err := optimal.PredictAll(testX)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("score optimal lap regressor: %w", err)
	}
	optimalR2 := ml.RSquared(optimalPreds, testY)

	m.swap(&bundle{window: window, undercut: undercut, optimal: optimal, scaler: scaler})
	m.l.Info("pit stop model trained",
		log.Int("samples", len(ds)),
		log.Float64("windowAccuracy", windowAcc))

	return strategy.TrainResult{
		Metrics: map[string]float64{
			"pit_window_accuracy": ml.Round4(windowAcc),
			"undercut_accuracy":   ml.Round4(undercutAcc),
			"optimal_lap_r2":      ml.Round4(optimalR2),
		},
		SamplesUsed: len(ds),
	}, nil
}

// Predict returns the pit stop recommendation for the current situation.
func (m *Model) Predict(input map[string]float64) (*Prediction, error) {
	b := m.bundle()
	if b == nil {
		return nil, strategy.ErrNotTrained
	}

	row := b.scaler.Transform(featureSet.Vector(input))

	windowProb, err := b.window.Prob(row)
	if err != nil {
		return nil, fmt.Errorf("predict pit window: %w", err)
	}
	inWindow := windowProb >= 0.5

	undercutProb, err := b.undercut.Prob(row)
	if err != nil {
		return nil, fmt.Errorf("predict undercut: %w", err)
	}
	undercutOpp := undercutProb >= 0.5

	optimalRaw, err := b.optimal.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predict optimal lap: %w", err)
	}
	currentLap := int(get(input, "current_lap", 1))
	optimalLap := int(optimalRaw)
	if optimalLap < currentLap {
		optimalLap = currentLap
	}
	lapsUntil := optimalLap - currentLap
	if lapsUntil < 0 {
		lapsUntil = 0
	}

	tireAge := get(input, "tire_age", 0)
	degradation := get(input, "tire_degradation_rate", 0.05)
	urgency := int(tireAge*degradation*100 + windowProb*30)
	if urgency > 100 {
		urgency = 100
	}
	if urgency < 0 {
		urgency = 0
	}

	return &Prediction{
		InPitWindow:          inWindow,
		PitWindowProbability: ml.Round4(windowProb),
		UndercutOpportunity:  undercutOpp,
		UndercutProbability:  ml.Round4(undercutProb),
		OptimalPitLap:        optimalLap,
		LapsUntilOptimal:     lapsUntil,
		PitUrgency:           urgency,
		Recommendation:       recommendation(inWindow, undercutOpp, urgency, input),
		StrategyOptions:      strategyOptions(input, optimalLap),
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
	if err := b.window.Save(filepath.Join(dir, windowFile)); err != nil {
		return fmt.Errorf("save pit window classifier: %w", err)
	}
	if err := b.undercut.Save(filepath.Join(dir, undercutFile)); err != nil {
		return fmt.Errorf("save undercut classifier: %w", err)
	}
	if err := b.optimal.Save(filepath.Join(dir, optimalFile)); err != nil {
		return fmt.Errorf("save optimal lap regressor: %w", err)
	}
	return nil
}

// Load restores a previously saved bundle from dir.
func (m *Model) Load(dir string) error {
	scaler, err := strategy.LoadMeta(dir)
	if err != nil {
		return err
	}
	window, err := ml.RestoreBinaryClassifier(filepath.Join(dir, windowFile))
	if err != nil {
		return fmt.Errorf("restore pit window classifier: %w", err)
	}
	undercut, err := ml.RestoreBinaryClassifier(filepath.Join(dir, undercutFile))
	if err != nil {
		return fmt.Errorf("restore undercut classifier: %w", err)
	}
	optimal, err := ml.RestoreRegressor(filepath.Join(dir, optimalFile))
	if err != nil {
		return fmt.Errorf("restore optimal lap regressor: %w", err)
	}
	m.swap(&bundle{window: window, undercut: undercut, optimal: optimal, scaler: scaler})
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

func recommendation(inWindow, undercut bool, urgency int, input map[string]float64) string {
	switch {
	case urgency > 80:
		return "CRITICAL: pit immediately - severe tire degradation"
	case undercut && inWindow:
		return "UNDERCUT: pit now to gain position on car ahead"
	case inWindow && urgency > 50:
		return "WINDOW OPEN: good time to pit - within optimal range"
	case inWindow:
		return "WINDOW OPEN: pit window available, monitor gaps"
	case get(input, "safety_car_deployed", 0) > 0:
		return "SAFETY CAR: free pit stop opportunity"
	default:
		return "STAY OUT: continue current stint"
	}
}

func strategyOptions(input map[string]float64, optimalLap int) []StrategyOption {
	currentLap := int(get(input, "current_lap", 1))
	totalLaps := int(get(input, "total_laps", 50))

	optimalCompound := model.CompoundSoft
	if get(input, "remaining_laps", 30) > 20 {
		optimalCompound = model.CompoundMedium
	}
	options := []StrategyOption{{
		Name:         "Optimal Strategy",
		PitLap:       optimalLap,
		Compound:     optimalCompound,
		ExpectedGain: "+0.0s",
		Risk:         "Low",
	}}

	if optimalLap+5 < totalLaps {
		options = append(options, StrategyOption{
			Name:         "Extended Stint",
			PitLap:       optimalLap + 5,
			Compound:     model.CompoundSoft,
			ExpectedGain: "-2.5s",
			Risk:         "Medium",
		})
	}
	if currentLap < optimalLap-2 {
		options = append(options, StrategyOption{
			Name:         "Undercut Attempt",
			PitLap:       currentLap + 1,
			Compound:     model.CompoundMedium,
			ExpectedGain: "+3.0s (if successful)",
			Risk:         "High",
		})
	}
	return options
}

func get(input map[string]float64, name string, fallback float64) float64 {
	if v, ok := input[name]; ok {
		return v
	}
	return fallback
}
