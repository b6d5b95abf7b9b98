// Package racepace predicts lap times, fuel effect and pace trend, and
// projects the next laps of the stint.
package racepace

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
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/rules"
)

const syntheticFallbackRows = 1000

// projectionLaps is the length of the forward lap time projection.
const projectionLaps = 5

const (
	lapTimeFile    = "lap_time.json"
	fuelEffectFile = "fuel_effect.json"
	trendFile      = "trend.json"
)

var featureSet = ml.FeatureSet{
	{Name: "lap_number", Default: 1},
	{Name: "fuel_load", Default: 100},
	{Name: "tire_age", Default: 0},
	{Name: "tire_compound_idx", Default: 1},
	{Name: "track_temperature", Default: 30},
	{Name: "air_temperature", Default: 25},
	{Name: "track_evolution", Default: 50},
	{Name: "traffic", Default: 0},
	{Name: "drs_enabled", Default: 1},
	{Name: "sector1_time", Default: 30},
	{Name: "sector2_time", Default: 35},
	{Name: "previous_lap_time", Default: 90},
	{Name: "best_lap_time", Default: 88},
	{Name: "avg_lap_time", Default: 89},
	{Name: "position", Default: 10},
	{Name: "wind_speed", Default: 10},
	{Name: "humidity", Default: 50},
	{Name: "safety_car_laps", Default: 0},
	{Name: "push_level", Default: 80},
	{Name: "battery_deployment", Default: 50},
}

type bundle struct {
	lapTime    *ml.Regressor
	fuelEffect *ml.Regressor
	trend      *ml.Regressor
	scaler     *ml.Scaler
}

// Model is the race pace family.
type Model struct {
	mu       sync.RWMutex
	b        *bundle
	fallback *collector.Collector
	l        *log.Logger
}

func New() *Model {
	return &Model{
		fallback: collector.New(),
		l:        log.Default().Named("model.racepace"),
	}
}

// LapProjection is one entry of the forward pace projection.
type LapProjection struct {
	Lap           int     `json:"lap"`
	PredictedTime float64 `json:"predicted_time"`
	FuelLoad      float64 `json:"fuel_load"`
	TireAge       int     `json:"tire_age"`
}

// Assessment grades the current pace against the driver's best and average
// lap.
type Assessment struct {
	Level          string  `json:"level"`
	Color          string  `json:"color"`
	DeltaToBest    float64 `json:"delta_to_best"`
	DeltaToAverage float64 `json:"delta_to_average"`
	Trend          string  `json:"trend"`
}

// Prediction is the race pace response.
type Prediction struct {
	PredictedLapTime      float64         `json:"predicted_lap_time"`
	FuelEffectPerKg       float64         `json:"fuel_effect_per_kg"`
	PaceTrendPerLap       float64         `json:"pace_trend_per_lap"`
	CurrentDeltaToOptimal float64         `json:"current_delta_to_optimal"`
	LapPredictions        []LapProjection `json:"lap_predictions"`
	PerformanceAssessment Assessment      `json:"performance_assessment"`
	Recommendations       []string        `json:"recommendations"`
}

// Train fits the lap time, fuel effect and trend regressors.
func (m *Model) Train(ds model.Dataset) (strategy.TrainResult, error) {
	if len(ds) < strategy.MinTrainRows {
		m.l.Info("not enough rows, training on synthetic data",
			log.Int("rows", len(ds)), log.Int("synthetic", syntheticFallbackRows))
		ds = m.fallback.SyntheticPaceRows(syntheticFallbackRows)
	}

	x := make([][]float64, len(ds))
	yLapTime := make([]float64, len(ds))
	yFuel := make([]float64, len(ds))
	yTrend := make([]float64, len(ds))
	for i, s := range ds {
		x[i] = featureSet.Vector(s.Values)
		yLapTime[i] = s.Get("lap_time", 90)
		yFuel[i] = s.Get("fuel_effect", rules.FuelEffectPerKg)
		yTrend[i] = s.Get("pace_trend", 0)
	}

	scaler := &ml.Scaler{}
	if err := scaler.Fit(x); err != nil {
		return strategy.TrainResult{}, fmt.Errorf("fit scaler: %w", err)
	}
	xs := scaler.TransformAll(x)

	type target struct {
		name string
		y    []float64
	}
	regs := make([]*ml.Regressor, 0, 3)
	metrics := make(map[string]float64, 3)
	for _, tg := range []target{
		{"lap_time", yLapTime},
		{"fuel_effect", yFuel},
		{"trend", yTrend},
	} {
		trainX, trainY, testX, testY := ml.Split(xs, tg.y, strategy.TestFraction, strategy.SplitSeed)
		reg, err := ml.TrainRegressor(trainX, trainY)
		if err != nil {
			return strategy.TrainResult{}, fmt.Errorf("fit %s regressor: %w", tg.name, err)
		}
		preds, err := reg.PredictAll(testX)
		if err != nil {
			return strategy.TrainResult{}, fmt.Errorf("score %s regressor: %w", tg.name, err)
		}
		metrics[tg.name+"_r2"] = ml.Round4(ml.RSquared(preds, testY))
		regs = append(regs, reg)
	}

	m.swap(&bundle{lapTime: regs[0], fuelEffect: regs[1], trend: regs[2], scaler: scaler})
	m.l.Info("race pace model trained",
		log.Int("samples", len(ds)),
		log.Float64("lapTimeR2", metrics["lap_time_r2"]))

	return strategy.TrainResult{Metrics: metrics, SamplesUsed: len(ds)}, nil
}

// Predict returns the pace analysis for the current situation, including a
// forward projection with fuel burning off and tires aging lap by lap.
func (m *Model) Predict(input map[string]float64) (*Prediction, error) {
	b := m.bundle()
	if b == nil {
		return nil, strategy.ErrNotTrained
	}

	row := b.scaler.Transform(featureSet.Vector(input))
	lapTime, err := b.lapTime.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predict lap time: %w", err)
	}
	fuelEffect, err := b.fuelEffect.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predict fuel effect: %w", err)
	}
	trend, err := b.trend.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predict pace trend: %w", err)
	}

	lapNumber := get(input, "lap_number", 1)
	fuelLoad := get(input, "fuel_load", 100)
	tireAge := get(input, "tire_age", 0)

	futures := make([]map[string]float64, projectionLaps)
	for i := 1; i <= projectionLaps; i++ {
		future := make(map[string]float64, len(input)+3)
		for k, v := range input {
			future[k] = v
		}
		future["lap_number"] = lapNumber + float64(i)
		future["fuel_load"] = math.Max(5, fuelLoad-float64(i)*rules.FuelBurnPerLap)
		future["tire_age"] = tireAge + float64(i)
		futures[i-1] = future
	}
	futureTimes, err := b.lapTime.PredictAll(b.scaler.TransformAll(featureSet.Matrix(futures)))
	if err != nil {
		return nil, fmt.Errorf("project lap times: %w", err)
	}
	projection := make([]LapProjection, 0, projectionLaps)
	for i, future := range futures {
		projection = append(projection, LapProjection{
			Lap:           int(lapNumber) + i + 1,
			PredictedTime: round3(futureTimes[i]),
			FuelLoad:      round1(future["fuel_load"]),
			TireAge:       int(future["tire_age"]),
		})
	}

	bestTime := get(input, "best_lap_time", lapTime)
	return &Prediction{
		PredictedLapTime:      round3(lapTime),
		FuelEffectPerKg:       ml.Round4(fuelEffect),
		PaceTrendPerLap:       ml.Round4(trend),
		CurrentDeltaToOptimal: round3(lapTime - bestTime),
		LapPredictions:        projection,
		PerformanceAssessment: assess(lapTime, trend, input),
		Recommendations:       recommendations(trend, input),
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
	if err := b.lapTime.Save(filepath.Join(dir, lapTimeFile)); err != nil {
		return fmt.Errorf("save lap time regressor: %w", err)
	}
	if err := b.fuelEffect.Save(filepath.Join(dir, fuelEffectFile)); err != nil {
		return fmt.Errorf("save fuel effect regressor: %w", err)
	}
	if err := b.trend.Save(filepath.Join(dir, trendFile)); err != nil {
		return fmt.Errorf("save trend regressor: %w", err)
	}
	return nil
}

// Load restores a previously saved bundle from dir.
func (m *Model) Load(dir string) error {
	scaler, err := strategy.LoadMeta(dir)
	if err != nil {
		return err
	}
	lapTime, err := ml.RestoreRegressor(filepath.Join(dir, lapTimeFile))
	if err != nil {
		return fmt.Errorf("restore lap time regressor: %w", err)
	}
	fuelEffect, err := ml.RestoreRegressor(filepath.Join(dir, fuelEffectFile))
	if err != nil {
		return fmt.Errorf("restore fuel effect regressor: %w", err)
	}
	trend, err := ml.RestoreRegressor(filepath.Join(dir, trendFile))
	if err != nil {
		return fmt.Errorf("restore trend regressor: %w", err)
	}
	m.swap(&bundle{lapTime: lapTime, fuelEffect: fuelEffect, trend: trend, scaler: scaler})
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

func assess(lapTime, trend float64, input map[string]float64) Assessment {
	bestTime := get(input, "best_lap_time", lapTime)
	avgTime := get(input, "avg_lap_time", lapTime)

	deltaToBest := lapTime - bestTime
	level, color := "BELOW PAR", "red"
	switch {
	case deltaToBest < 0.5:
		level, color = "EXCELLENT", "green"
	case deltaToBest < 1.0:
		level, color = "GOOD", "lime"
	case deltaToBest < 1.5:
		level, color = "AVERAGE", "yellow"
	}

	trendLabel := "degrading"
	if trend < 0 {
		trendLabel = "improving"
	}
	return Assessment{
		Level:          level,
		Color:          color,
		DeltaToBest:    round3(deltaToBest),
		DeltaToAverage: round3(lapTime - avgTime),
		Trend:          trendLabel,
	}
}

func recommendations(trend float64, input map[string]float64) []string {
	recs := []string{}
	tireAge := get(input, "tire_age", 0)
	fuelLoad := get(input, "fuel_load", 100)

	if trend > 0.1 {
		recs = append(recs, "Significant pace degradation - consider a pit stop soon")
	}
	if tireAge > 20 && trend > 0.05 {
		recs = append(recs, "High tire wear affecting pace")
	}
	if fuelLoad > 80 {
		recs = append(recs, "Heavy fuel load - pace will improve as fuel burns")
	}
	if get(input, "traffic", 0) > 0 {
		recs = append(recs, "Traffic affecting lap time - clean air needed")
	}
	if get(input, "push_level", 80) < 70 {
		recs = append(recs, "Room to push harder if needed")
	}
	if len(recs) == 0 {
		recs = append(recs, "Pace is stable - maintain current rhythm")
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
