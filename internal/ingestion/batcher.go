// Package ingestion pulls raw stage-change histories from the CRM in
// rate-limited batches, normalizes them into stage intervals and persists
// them idempotently.
package ingestion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/crm"
	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/normalizer"
	"github.com/meridianops/dealflow-metrics-service/internal/repository"
)

// Config sizes the batch job. BatchSize bounds concurrent fetches per batch;
// BatchDelay is the barrier pause between batches, which together keep the
// aggregate request rate under the CRM's limit.
type Config struct {
	BatchSize     int
	BatchDelay    time.Duration
	FetchTimeout  time.Duration
	ProgressEvery int
	FailedIDsPath string
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 40
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = 25
	}
	return c
}

// Batcher runs ingestion passes over entity ID lists.
type Batcher struct {
	fetcher  crm.StageEventFetcher
	repo     repository.IntervalRepository
	notifier Notifier
	config   Config
	log      *zap.Logger
}

// NewBatcher creates a new ingestion batcher. The notifier may be nil.
func NewBatcher(fetcher crm.StageEventFetcher, repo repository.IntervalRepository, notifier Notifier, config Config, log *zap.Logger) *Batcher {
	return &Batcher{
		fetcher:  fetcher,
		repo:     repo,
		notifier: notifier,
		config:   config.withDefaults(),
		log:      log,
	}
}

// Run ingests the supplied entity IDs: one full pass, then exactly one retry
// pass over the entities that failed. A per-entity failure never aborts the
// run; entities still failing after the retry end up in the report and in the
// durable failed-IDs artifact. Cancelling the context stops the run between
// batches; everything already committed stays valid and a re-run fills gaps.
func (b *Batcher) Run(ctx context.Context, entityIDs []string) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{
		RunID: uuid.NewString(),
		Total: len(entityIDs),
	}

	b.log.Info("Starting ingestion run",
		zap.String("run_id", report.RunID),
		zap.Int("entities", len(entityIDs)),
		zap.Int("batch_size", b.config.BatchSize))

	progress := newProgressTracker(len(entityIDs), b.config.ProgressEvery, b.log)

	firstPass := b.pass(ctx, entityIDs, progress, report)

	if len(firstPass) > 0 && ctx.Err() == nil {
		retryIDs := make([]string, 0, len(firstPass))
		for _, f := range firstPass {
			retryIDs = append(retryIDs, f.EntityID)
		}
		report.Retried = len(retryIDs)

		b.log.Warn("Retrying failed entities",
			zap.String("run_id", report.RunID),
			zap.Int("count", len(retryIDs)))

		report.Failed = b.pass(ctx, retryIDs, progress, report)
	} else {
		report.Failed = firstPass
	}

	report.Succeeded = report.Total - len(report.Failed)
	report.Elapsed = time.Since(start)

	if err := writeFailedArtifact(b.config.FailedIDsPath, report); err != nil {
		b.log.Error("Failed to write failed-entity artifact", zap.Error(err))
	}

	if b.notifier != nil {
		if err := b.notifier.PublishRunSummary(ctx, report); err != nil {
			b.log.Error("Failed to publish run summary", zap.Error(err))
		}
	}

	b.log.Info("Ingestion run finished",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("no_data", report.NoData),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("elapsed", report.Elapsed))

	return report, nil
}

// pass processes the IDs in fixed-size batches. Within a batch entities run
// concurrently on the pool; the group wait is the barrier that keeps batch
// n+1 from starting before batch n is done.
func (b *Batcher) pass(ctx context.Context, entityIDs []string, progress *progressTracker, report *RunReport) []Failure {
	pool := pond.NewPool(b.config.BatchSize)
	defer pool.StopAndWait()

	var mu sync.Mutex
	var failures []Failure

	for offset := 0; offset < len(entityIDs); offset += b.config.BatchSize {
		if ctx.Err() != nil {
			b.log.Warn("Ingestion pass cancelled between batches",
				zap.Int("processed", offset))
			for _, id := range entityIDs[offset:] {
				failures = append(failures, Failure{EntityID: id, Reason: "run cancelled"})
			}
			break
		}

		end := offset + b.config.BatchSize
		if end > len(entityIDs) {
			end = len(entityIDs)
		}
		batch := entityIDs[offset:end]

		group := pool.NewGroup()
		for _, entityID := range batch {
			id := entityID
			group.Submit(func() {
				noData, err := b.processEntity(ctx, id)
				if err != nil {
					mu.Lock()
					failures = append(failures, Failure{EntityID: id, Reason: err.Error()})
					mu.Unlock()
				} else if noData {
					mu.Lock()
					report.NoData++
					mu.Unlock()
				}
				progress.increment()
			})
		}
		_ = group.Wait()

		if end < len(entityIDs) && b.config.BatchDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(b.config.BatchDelay):
			}
		}
	}

	return failures
}

// processEntity runs fetch -> normalize -> persist for one entity. The
// returned bool reports the "no flow data" condition (empty history), which
// counts as success.
func (b *Batcher) processEntity(ctx context.Context, entityID string) (bool, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, b.config.FetchTimeout)
	defer cancel()

	history, err := b.fetcher.FetchStageEvents(fetchCtx, entityID)
	if err != nil {
		return false, err
	}

	intervals, skipped := normalizer.Normalize(history.Events)
	if skipped > 0 {
		b.log.Warn("Skipped malformed stage events",
			zap.String("entity_id", entityID),
			zap.Int("skipped", skipped))
	}

	if len(intervals) == 0 {
		b.log.Info("No flow data for entity", zap.String("entity_id", entityID))
		return true, nil
	}

	// Should never fire given correct normalization. Log loudly, do not
	// silently correct.
	if err := normalizer.ValidateIntervals(intervals); err != nil {
		b.log.Error("Interval consistency violation",
			zap.String("entity_id", entityID),
			zap.Error(err))
	}

	refs := make([]*domain.StageInterval, len(intervals))
	for i := range intervals {
		refs[i] = &intervals[i]
	}

	if _, err := b.repo.UpsertIntervals(ctx, refs); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	current := intervals[len(intervals)-1]
	meta := &domain.EntityMetadata{
		EntityID:          entityID,
		Title:             history.Entity.Title,
		CurrentPipelineID: current.PipelineID,
		CurrentStageID:    current.StageID,
		Status:            history.Entity.Status,
		FirstFetchedAt:    now,
		LastFetchedAt:     now,
	}
	if history.Entity.StageID != "" {
		meta.CurrentStageID = history.Entity.StageID
	}
	if history.Entity.PipelineID != "" {
		meta.CurrentPipelineID = history.Entity.PipelineID
	}

	if err := b.repo.UpsertEntityMetadata(ctx, meta); err != nil {
		return false, err
	}

	return false, nil
}

// progressTracker logs throughput every N processed entities.
type progressTracker struct {
	total     int
	every     int
	processed atomic.Int64
	started   time.Time
	log       *zap.Logger
}

func newProgressTracker(total, every int, log *zap.Logger) *progressTracker {
	return &progressTracker{
		total:   total,
		every:   every,
		started: time.Now(),
		log:     log,
	}
}

func (p *progressTracker) increment() {
	n := p.processed.Add(1)
	if p.every > 0 && n%int64(p.every) == 0 {
		elapsed := time.Since(p.started)
		rate := float64(n) / elapsed.Seconds()
		p.log.Info("Ingestion progress",
			zap.Int64("processed", n),
			zap.Int("total", p.total),
			zap.Float64("entities_per_sec", rate))
	}
}
