package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/crm"
	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/repository"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// fakeFetcher serves canned histories and fails configured entity IDs, with a
// per-entity attempt counter so tests can make retries succeed.
type fakeFetcher struct {
	mu        sync.Mutex
	attempts  map[string]int
	failures  map[string]error
	failTwice bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		attempts: make(map[string]int),
		failures: make(map[string]error),
	}
}

func (f *fakeFetcher) FetchStageEvents(_ context.Context, entityID string) (*crm.EntityHistory, error) {
	f.mu.Lock()
	f.attempts[entityID]++
	attempt := f.attempts[entityID]
	failErr := f.failures[entityID]
	f.mu.Unlock()

	if failErr != nil && (f.failTwice || attempt == 1) {
		return nil, failErr
	}

	return &crm.EntityHistory{
		Entity: crm.EntityDescriptor{EntityID: entityID, Title: "Deal " + entityID, Status: "open"},
		Events: []domain.RawStageEvent{
			{EventID: entityID + "-ev-1", EntityID: entityID, PipelineID: "pipe-1", NewStageID: "stage-a", NewStageName: "Qualified", Timestamp: t0},
			{EventID: entityID + "-ev-2", EntityID: entityID, PipelineID: "pipe-1", NewStageID: "stage-b", NewStageName: "Quoted", Timestamp: t0.Add(24 * time.Hour)},
		},
	}, nil
}

func (f *fakeFetcher) attemptCount(entityID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[entityID]
}

// memoryRepo keeps intervals keyed by event_id, mirroring the store's
// replace-by-key idempotency.
type memoryRepo struct {
	mu        sync.Mutex
	intervals map[string]domain.StageInterval
	metadata  map[string]domain.EntityMetadata
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		intervals: make(map[string]domain.StageInterval),
		metadata:  make(map[string]domain.EntityMetadata),
	}
}

func (m *memoryRepo) InitSchema(context.Context) error { return nil }

func (m *memoryRepo) UpsertIntervals(_ context.Context, intervals []*domain.StageInterval) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, iv := range intervals {
		m.intervals[iv.EventID] = *iv
	}
	return len(intervals), nil
}

func (m *memoryRepo) UpsertEntityMetadata(_ context.Context, meta *domain.EntityMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[meta.EntityID] = *meta
	return nil
}

func (m *memoryRepo) GetFlowMetrics(context.Context, repository.FlowQuery) (*repository.FlowResult, error) {
	return &repository.FlowResult{}, nil
}

func (m *memoryRepo) Ping(context.Context) error { return nil }
func (m *memoryRepo) Close() error               { return nil }

func (m *memoryRepo) intervalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.intervals)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		BatchSize:     10,
		BatchDelay:    0,
		FetchTimeout:  time.Second,
		ProgressEvery: 1000,
		FailedIDsPath: filepath.Join(t.TempDir(), "failed.json"),
	}
}

func entityIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("deal-%03d", i)
	}
	return ids
}

func TestBatcher_Run_AllSucceed(t *testing.T) {
	fetcher := newFakeFetcher()
	repo := newMemoryRepo()
	batcher := NewBatcher(fetcher, repo, nil, testConfig(t), zap.NewNop())

	report, err := batcher.Run(context.Background(), entityIDs(25))

	require.NoError(t, err)
	assert.Equal(t, 25, report.Total)
	assert.Equal(t, 25, report.Succeeded)
	assert.Empty(t, report.Failed)
	assert.Zero(t, report.Retried)
	// Two events per entity, one interval each.
	assert.Equal(t, 50, repo.intervalCount())
}

func TestBatcher_Run_FailuresAreRetriedOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failTwice = true
	fetcher.failures["deal-003"] = &crm.APIError{Kind: crm.ErrorKindTransient, EntityID: "deal-003", Message: "connection reset"}
	fetcher.failures["deal-071"] = &crm.APIError{Kind: crm.ErrorKindNotFound, EntityID: "deal-071", StatusCode: 404, Message: "gone"}

	repo := newMemoryRepo()
	batcher := NewBatcher(fetcher, repo, nil, testConfig(t), zap.NewNop())

	report, err := batcher.Run(context.Background(), entityIDs(80))

	require.NoError(t, err)
	assert.Equal(t, 80, report.Total)
	assert.Equal(t, 78, report.Succeeded)
	assert.Equal(t, 2, report.Retried)
	require.Len(t, report.Failed, 2)

	reasons := map[string]string{}
	for _, f := range report.Failed {
		reasons[f.EntityID] = f.Reason
	}
	assert.Contains(t, reasons["deal-003"], "connection reset")
	assert.Contains(t, reasons["deal-071"], "not_found")

	// Each failing entity got exactly one retry.
	assert.Equal(t, 2, fetcher.attemptCount("deal-003"))
	assert.Equal(t, 2, fetcher.attemptCount("deal-071"))
	assert.Equal(t, 1, fetcher.attemptCount("deal-000"))
}

func TestBatcher_Run_RetrySucceeds(t *testing.T) {
	fetcher := newFakeFetcher()
	// failTwice is false: the second attempt succeeds.
	fetcher.failures["deal-005"] = &crm.APIError{Kind: crm.ErrorKindRateLimited, EntityID: "deal-005", StatusCode: 429, Message: "slow down"}

	repo := newMemoryRepo()
	batcher := NewBatcher(fetcher, repo, nil, testConfig(t), zap.NewNop())

	report, err := batcher.Run(context.Background(), entityIDs(10))

	require.NoError(t, err)
	assert.Equal(t, 10, report.Succeeded)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 1, report.Retried)
	assert.Equal(t, 2, fetcher.attemptCount("deal-005"))
}

func TestBatcher_Run_Idempotent(t *testing.T) {
	fetcher := newFakeFetcher()
	repo := newMemoryRepo()
	batcher := NewBatcher(fetcher, repo, nil, testConfig(t), zap.NewNop())

	_, err := batcher.Run(context.Background(), entityIDs(10))
	require.NoError(t, err)
	countAfterFirst := repo.intervalCount()

	_, err = batcher.Run(context.Background(), entityIDs(10))
	require.NoError(t, err)

	assert.Equal(t, countAfterFirst, repo.intervalCount())
}

func TestBatcher_Run_NoDataEntity(t *testing.T) {
	fetcher := &emptyFetcher{}
	repo := newMemoryRepo()
	batcher := NewBatcher(fetcher, repo, nil, testConfig(t), zap.NewNop())

	report, err := batcher.Run(context.Background(), []string{"deal-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.NoData)
	assert.Empty(t, report.Failed)
	assert.Zero(t, repo.intervalCount())
}

func TestBatcher_Run_WritesFailedArtifact(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failTwice = true
	fetcher.failures["deal-002"] = &crm.APIError{Kind: crm.ErrorKindAuth, EntityID: "deal-002", StatusCode: 401, Message: "bad token"}

	cfg := testConfig(t)
	repo := newMemoryRepo()
	batcher := NewBatcher(fetcher, repo, nil, cfg, zap.NewNop())

	report, err := batcher.Run(context.Background(), entityIDs(5))
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)

	data, err := os.ReadFile(cfg.FailedIDsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "deal-002")
	assert.Contains(t, string(data), report.RunID)
}

func TestBatcher_Run_PublishesSummary(t *testing.T) {
	fetcher := newFakeFetcher()
	repo := newMemoryRepo()
	notifier := &captureNotifier{}
	batcher := NewBatcher(fetcher, repo, notifier, testConfig(t), zap.NewNop())

	report, err := batcher.Run(context.Background(), entityIDs(3))

	require.NoError(t, err)
	require.NotNil(t, notifier.published)
	assert.Equal(t, report.RunID, notifier.published.RunID)
}

type emptyFetcher struct{}

func (e *emptyFetcher) FetchStageEvents(_ context.Context, entityID string) (*crm.EntityHistory, error) {
	return &crm.EntityHistory{Entity: crm.EntityDescriptor{EntityID: entityID}}, nil
}

type captureNotifier struct {
	published *RunReport
}

func (c *captureNotifier) PublishRunSummary(_ context.Context, report *RunReport) error {
	c.published = report
	return nil
}
