package clickhouse

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/repository"
)

// Repository implements repository.IntervalRepository on ClickHouse.
//
// Idempotency comes from the table engine: stage_intervals is a
// ReplacingMergeTree keyed by event_id, so re-inserting an event_id with a
// higher version replaces the previous row. That both deduplicates re-runs
// and lets a later ingestion close an interval that was open last time.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the interval and metadata tables if they don't exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	intervalsDDL := `
	CREATE TABLE IF NOT EXISTS stage_intervals (
		event_id String,
		entity_id String,
		pipeline_id String,
		stage_id String,
		stage_name LowCardinality(String),
		entered_at DateTime64(3),
		left_at Nullable(DateTime64(3)),
		duration_seconds Nullable(Int64),
		ingested_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (event_id)
	ORDER BY (event_id, entity_id)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, intervalsDDL); err != nil {
		return fmt.Errorf("failed to create stage_intervals table: %w", err)
	}

	metadataDDL := `
	CREATE TABLE IF NOT EXISTS entity_metadata (
		entity_id String,
		title String,
		current_pipeline_id String,
		current_stage_id String,
		status LowCardinality(String),
		first_fetched_at DateTime64(3),
		last_fetched_at DateTime64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (entity_id)
	ORDER BY (entity_id)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, metadataDDL); err != nil {
		return fmt.Errorf("failed to create entity_metadata table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// UpsertIntervals persists a batch of intervals keyed by event_id.
func (r *Repository) UpsertIntervals(ctx context.Context, intervals []*domain.StageInterval) (int, error) {
	if len(intervals) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx,
		"INSERT INTO stage_intervals (event_id, entity_id, pipeline_id, stage_id, stage_name, entered_at, left_at, duration_seconds, version)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare interval batch: %w", err)
	}

	version := uint64(time.Now().UnixNano())
	count := 0
	for _, interval := range intervals {
		v := interval.Version
		if v == 0 {
			v = version
		}

		err := batch.Append(
			interval.EventID,
			interval.EntityID,
			interval.PipelineID,
			interval.StageID,
			interval.StageName,
			interval.EnteredAt,
			interval.LeftAt,
			interval.DurationSeconds,
			v,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append interval to batch: %w", err)
		}
		count++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send interval batch: %w", err)
	}

	return count, nil
}

// UpsertEntityMetadata refreshes the cached descriptor for one entity,
// preserving the first-fetched timestamp across upserts.
func (r *Repository) UpsertEntityMetadata(ctx context.Context, meta *domain.EntityMetadata) error {
	firstFetched := meta.FirstFetchedAt

	row := r.client.Conn().QueryRow(ctx,
		"SELECT first_fetched_at FROM entity_metadata FINAL WHERE entity_id = ?", meta.EntityID)
	var existing time.Time
	if err := row.Scan(&existing); err == nil && !existing.IsZero() {
		firstFetched = existing
	}

	query := `
	INSERT INTO entity_metadata (entity_id, title, current_pipeline_id, current_stage_id, status, first_fetched_at, last_fetched_at, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.client.Conn().Exec(ctx, query,
		meta.EntityID,
		meta.Title,
		meta.CurrentPipelineID,
		meta.CurrentStageID,
		meta.Status,
		firstFetched,
		meta.LastFetchedAt,
		uint64(time.Now().UnixNano()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity metadata: %w", err)
	}

	return nil
}

// GetFlowMetrics computes the flow metric for one stage pair in a single
// query. Per entity, the earliest occupancy of the start stage and of the end
// stage bound the measured duration; the optional window restricts on the
// start interval's entered_at inside the query, so any two callers asking for
// the same window see the same rows.
func (r *Repository) GetFlowMetrics(ctx context.Context, query repository.FlowQuery) (*repository.FlowResult, error) {
	matchColumn := "stage_id"
	if query.MatchByName {
		matchColumn = "stage_name"
	}

	startWhere := fmt.Sprintf("%s = ?", matchColumn)
	args := []interface{}{query.StartStage}
	if query.WindowApplied() {
		startWhere += " AND entered_at >= ? AND entered_at < ?"
		args = append(args, *query.From, *query.To)
	}
	args = append(args, query.EndStage)

	sql := fmt.Sprintf(`
	SELECT
		countIf(isNotNull(elapsed_days))                              AS completed,
		avgIf(elapsed_days, isNotNull(elapsed_days))                  AS average_days,
		countIf(isNull(elapsed_days))                                 AS in_progress,
		countIf(elapsed_days >= 0 AND elapsed_days < 1)               AS bucket_under_1d,
		countIf(elapsed_days >= 1 AND elapsed_days < 3)               AS bucket_1_3d,
		countIf(elapsed_days >= 3 AND elapsed_days < 7)               AS bucket_3_7d,
		countIf(elapsed_days >= 7 AND elapsed_days < 14)              AS bucket_7_14d,
		countIf(elapsed_days >= 14)                                   AS bucket_over_14d
	FROM (
		SELECT
			s.entity_id AS entity_id,
			(toUnixTimestamp64Milli(e.entered_at) - toUnixTimestamp64Milli(s.entered_at)) / 86400000.0 AS elapsed_days
		FROM (
			SELECT entity_id, min(entered_at) AS entered_at
			FROM stage_intervals FINAL
			WHERE %s
			GROUP BY entity_id
		) AS s
		LEFT JOIN (
			SELECT entity_id, min(entered_at) AS entered_at
			FROM stage_intervals FINAL
			WHERE %s = ?
			GROUP BY entity_id
		) AS e ON s.entity_id = e.entity_id
	)
	SETTINGS join_use_nulls = 1
	`, startWhere, matchColumn)

	var (
		completed, inProgress                  uint64
		averageDays                            float64
		under1d, d1to3, d3to7, d7to14, over14d uint64
	)

	row := r.client.Conn().QueryRow(ctx, sql, args...)
	if err := row.Scan(&completed, &averageDays, &inProgress, &under1d, &d1to3, &d3to7, &d7to14, &over14d); err != nil {
		return nil, fmt.Errorf("failed to query flow metrics: %w", err)
	}

	// avgIf over zero rows yields NaN; the no-data contract is average 0.
	if completed == 0 || math.IsNaN(averageDays) {
		averageDays = 0
	}

	return &repository.FlowResult{
		CompletedCount:  completed,
		AverageDays:     averageDays,
		InProgressCount: inProgress,
		Buckets: []repository.FlowBucket{
			{Label: "<1d", Count: under1d},
			{Label: "1-3d", Count: d1to3},
			{Label: "3-7d", Count: d3to7},
			{Label: "7-14d", Count: d7to14},
			{Label: "14d+", Count: over14d},
		},
	}, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
