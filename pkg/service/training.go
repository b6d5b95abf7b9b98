// Package service orchestrates training runs: fetching session telemetry,
// building the hybrid dataset of a family and handing it to the model
// manager.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/collector"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/manager"
)

// Fetcher provides session telemetry. Satisfied by openf1.Client.
type Fetcher interface {
	SessionBundle(ctx context.Context, sessionKey int) model.SessionBundle
}

// TrainingService runs training for the model families.
type TrainingService struct {
	fetcher Fetcher
	col     *collector.Collector
	mgr     *manager.Manager
	minReal int
	target  int
	l       *log.Logger
}

type Option func(*TrainingService)

// WithCollector replaces the default collector, mainly to control weights
// and seeding.
func WithCollector(col *collector.Collector) Option {
	return func(s *TrainingService) { s.col = col }
}

// WithSampleTargets sets the hybrid dataset thresholds.
func WithSampleTargets(minReal, targetTotal int) Option {
	return func(s *TrainingService) {
		s.minReal = minReal
		s.target = targetTotal
	}
}

func NewTrainingService(fetcher Fetcher, mgr *manager.Manager, opts ...Option) *TrainingService {
	s := &TrainingService{
		fetcher: fetcher,
		col:     collector.New(),
		mgr:     mgr,
		minReal: 100,
		target:  1000,
		l:       log.Default().Named("service.training"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrainReport describes one completed training run.
type TrainReport struct {
	RunID       string             `json:"run_id"`
	Model       string             `json:"model"`
	Metrics     map[string]float64 `json:"metrics"`
	SamplesUsed int                `json:"samples_used"`
	Sessions    []int              `json:"sessions,omitempty"`
}

// TrainModel fetches the given sessions, builds the hybrid dataset of the
// family and trains it. An empty session list trains on synthetic data
// alone.
func (s *TrainingService) TrainModel(
	ctx context.Context, name string, sessionKeys []int,
) (TrainReport, error) {
	runID := uuid.NewString()
	s.l.Info("training run started",
		log.String("runId", runID),
		log.String("model", name),
		log.Int("sessions", len(sessionKeys)))

	bundles := s.fetchBundles(ctx, sessionKeys)
	ds := s.dataset(name, bundles)

	res, err := s.mgr.Train(name, ds)
	if err != nil {
		s.l.Error("training run failed",
			log.String("runId", runID), log.String("model", name), log.ErrorField(err))
		return TrainReport{}, err
	}
	s.l.Info("training run finished",
		log.String("runId", runID),
		log.String("model", name),
		log.Int("samples", res.SamplesUsed))

	return TrainReport{
		RunID:       runID,
		Model:       name,
		Metrics:     res.Metrics,
		SamplesUsed: res.SamplesUsed,
		Sessions:    sessionKeys,
	}, nil
}

// TrainAllEntry is the per-family outcome of TrainAll.
type TrainAllEntry struct {
	Success     bool               `json:"success"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	SamplesUsed int                `json:"samples_used,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// TrainAll trains every family in registry order. Failures are reported per
// family instead of aborting the run.
func (s *TrainingService) TrainAll(ctx context.Context, sessionKeys []int) map[string]TrainAllEntry {
	results := make(map[string]TrainAllEntry, len(manager.Names))
	for _, name := range manager.Names {
		report, err := s.TrainModel(ctx, name, sessionKeys)
		if err != nil {
			results[name] = TrainAllEntry{Success: false, Error: err.Error()}
			continue
		}
		results[name] = TrainAllEntry{
			Success:     true,
			Metrics:     report.Metrics,
			SamplesUsed: report.SamplesUsed,
		}
	}
	return results
}

// fetchBundles degrades to an empty bundle list when no sessions were
// requested or fetching yields nothing usable.
func (s *TrainingService) fetchBundles(ctx context.Context, sessionKeys []int) []model.SessionBundle {
	if len(sessionKeys) == 0 {
		return nil
	}
	bundles := make([]model.SessionBundle, 0, len(sessionKeys))
	for _, key := range sessionKeys {
		bundles = append(bundles, s.fetcher.SessionBundle(ctx, key))
	}
	return bundles
}

// dataset builds the family specific training table. Pace and position have
// no real-data extractor; their families fall back to synthetic batches on
// their own.
func (s *TrainingService) dataset(name string, bundles []model.SessionBundle) model.Dataset {
	switch name {
	case manager.TireStrategy:
		return s.col.HybridTireDataset(bundles, s.minReal, s.target)
	case manager.PitStop:
		return s.col.HybridPitDataset(bundles, s.minReal, s.target)
	default:
		return nil
	}
}
