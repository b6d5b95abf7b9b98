// Package manager owns the model family registry: name-keyed training and
// prediction dispatch, bundle persistence and status reporting.
package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/pitstop"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/position"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/racepace"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/tire"
)

// ErrUnknownModel is returned for names outside the registry.
var ErrUnknownModel = errors.New("unknown model")

// Registry names. They double as bundle directory names under the models
// dir.
const (
	TireStrategy = "tire_strategy"
	PitStop      = "pit_stop"
	RacePace     = "race_pace"
	Position     = "position"
)

// Names lists the registry in a stable order.
var Names = []string{TireStrategy, PitStop, RacePace, Position}

// Status describes the lifecycle of one family bundle.
type Status string

const (
	StatusNotTrained Status = "not_trained"
	StatusTrained    Status = "trained"
	StatusLoaded     Status = "loaded"
)

// Descriptions for the status endpoint.
var descriptions = map[string]string{
	TireStrategy: "Predicts optimal tire compound selection, stint lengths, and degradation rates",
	PitStop:      "Predicts optimal pit stop timing, undercut/overcut opportunities",
	RacePace:     "Analyzes and predicts race pace, fuel effects, and performance trends",
	Position:     "Predicts position changes and overtaking opportunities",
}

// Describe returns the human readable summary of a family.
func Describe(name string) string {
	return descriptions[name]
}

type family struct {
	train   func(model.Dataset) (strategy.TrainResult, error)
	predict func(map[string]float64) (any, error)
	save    func(string) error
	load    func(string) error
}

// Manager dispatches to the four model families and tracks their bundle
// status. Family internals handle their own concurrency; the manager mutex
// only guards the status map.
type Manager struct {
	modelsDir string
	families  map[string]*family

	mu     sync.RWMutex
	status map[string]Status

	l *log.Logger
}

func New(modelsDir string) *Manager {
	tireModel := tire.New()
	pitModel := pitstop.New()
	paceModel := racepace.New()
	posModel := position.New()

	m := &Manager{
		modelsDir: modelsDir,
		status:    map[string]Status{},
		l:         log.Default().Named("manager"),
		families: map[string]*family{
			TireStrategy: {
				train:   tireModel.Train,
				predict: func(in map[string]float64) (any, error) { return tireModel.Predict(in) },
				save:    tireModel.Save,
				load:    tireModel.Load,
			},
			PitStop: {
				train:   pitModel.Train,
				predict: func(in map[string]float64) (any, error) { return pitModel.Predict(in) },
				save:    pitModel.Save,
				load:    pitModel.Load,
			},
			RacePace: {
				train:   paceModel.Train,
				predict: func(in map[string]float64) (any, error) { return paceModel.Predict(in) },
				save:    paceModel.Save,
				load:    paceModel.Load,
			},
			Position: {
				train:   posModel.Train,
				predict: func(in map[string]float64) (any, error) { return posModel.Predict(in) },
				save:    posModel.Save,
				load:    posModel.Load,
			},
		},
	}
	for _, name := range Names {
		m.status[name] = StatusNotTrained
	}
	return m
}

// LoadAll restores saved bundles from the models dir. Missing or unreadable
// bundles leave the family in not_trained state.
func (m *Manager) LoadAll() {
	if err := os.MkdirAll(m.modelsDir, 0o755); err != nil {
		m.l.Warn("could not create models dir",
			log.String("dir", m.modelsDir), log.ErrorField(err))
	}
	for _, name := range Names {
		dir := filepath.Join(m.modelsDir, name)
		if _, err := os.Stat(filepath.Join(dir, strategy.MetaFile)); err != nil {
			m.l.Info("no saved model, needs training", log.String("model", name))
			continue
		}
		if err := m.families[name].load(dir); err != nil {
			m.l.Warn("could not load saved model",
				log.String("model", name), log.ErrorField(err))
			continue
		}
		m.setStatus(name, StatusLoaded)
		m.l.Info("model loaded", log.String("model", name))
	}
}

// Train fits one family and persists the resulting bundle.
func (m *Manager) Train(name string, ds model.Dataset) (strategy.TrainResult, error) {
	f, ok := m.families[name]
	if !ok {
		return strategy.TrainResult{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	res, err := f.train(ds)
	if err != nil {
		return strategy.TrainResult{}, fmt.Errorf("train %s: %w", name, err)
	}
	// the family swapped its bundle in on fit success, so it serves
	// predictions even when persisting the bundle fails below
	m.setStatus(name, StatusTrained)
	if err := f.save(filepath.Join(m.modelsDir, name)); err != nil {
		return strategy.TrainResult{}, fmt.Errorf("save %s: %w", name, err)
	}
	return res, nil
}

// Predict dispatches an input row to one family. The returned value is the
// family's prediction struct, ready for JSON encoding.
func (m *Manager) Predict(name string, input map[string]float64) (any, error) {
	f, ok := m.families[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	pred, err := f.predict(input)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", name, err)
	}
	return pred, nil
}

// Status returns a copy of the per-family status map.
func (m *Manager) Status() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Status, len(m.status))
	for k, v := range m.status {
		out[k] = v
	}
	return out
}

// Ready reports whether the named family can serve predictions.
func (m *Manager) Ready(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.status[name]
	return ok && s != StatusNotTrained
}

func (m *Manager) setStatus(name string, s Status) {
	m.mu.Lock()
	m.status[name] = s
	m.mu.Unlock()
}
