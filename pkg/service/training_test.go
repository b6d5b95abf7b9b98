package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/manager"
)

type stubFetcher struct {
	calls  []int
	bundle model.SessionBundle
}

func (f *stubFetcher) SessionBundle(_ context.Context, sessionKey int) model.SessionBundle {
	f.calls = append(f.calls, sessionKey)
	bundle := f.bundle
	bundle.SessionKey = sessionKey
	return bundle
}

func newService(t *testing.T, fetcher Fetcher) *TrainingService {
	t.Helper()
	mgr := manager.New(t.TempDir())
	return NewTrainingService(fetcher, mgr, WithSampleTargets(1, 40))
}

func TestTrainModelSyntheticOnly(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newService(t, fetcher)

	report, err := svc.TrainModel(context.Background(), manager.TireStrategy, nil)
	require.NoError(t, err)

	assert.Equal(t, manager.TireStrategy, report.Model)
	assert.Equal(t, 40, report.SamplesUsed)
	assert.NotEmpty(t, report.Metrics)
	assert.Empty(t, fetcher.calls)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
}

func TestTrainModelFetchesRequestedSessions(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newService(t, fetcher)

	_, err := svc.TrainModel(context.Background(), manager.PitStop, []int{9158, 9159})
	require.NoError(t, err)
	assert.Equal(t, []int{9158, 9159}, fetcher.calls)
}

func TestTrainModelUnknownName(t *testing.T) {
	svc := newService(t, &stubFetcher{})
	_, err := svc.TrainModel(context.Background(), "bogus", nil)
	assert.ErrorIs(t, err, manager.ErrUnknownModel)
}

func TestTrainAll(t *testing.T) {
	svc := newService(t, &stubFetcher{})
	results := svc.TrainAll(context.Background(), nil)

	require.Len(t, results, len(manager.Names))
	for name, entry := range results {
		assert.True(t, entry.Success, name)
		assert.NotEmpty(t, entry.Metrics, name)
		assert.Positive(t, entry.SamplesUsed, name)
		assert.Empty(t, entry.Error, name)
	}
}
