package repository

import (
	"context"
	"time"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
)

// FlowQuery selects the per-entity start/end stage intervals for one mapping.
// When MatchByName is false the stage fields carry IDs (authoritative); when
// true they carry names, the legacy fallback for mappings written before stage
// IDs were captured.
type FlowQuery struct {
	StartStage  string
	EndStage    string
	MatchByName bool

	// Optional window on the start interval's entered_at. Applied inside the
	// store query so any two callers asking for the same window get identical
	// results.
	From *time.Time
	To   *time.Time
}

// WindowApplied reports whether the query restricts to a time window.
func (q FlowQuery) WindowApplied() bool {
	return q.From != nil && q.To != nil
}

// FlowBucket is one distribution bucket of completed flow durations.
type FlowBucket struct {
	Label string
	Count uint64
}

// FlowResult is the reduced flow metric for one mapping. AverageDays is 0
// when CompletedCount is 0; the classifier treats that pair as no-data.
type FlowResult struct {
	CompletedCount  uint64
	AverageDays     float64
	InProgressCount uint64
	Buckets         []FlowBucket
}

// IntervalRepository stores reconstructed stage intervals and entity metadata
// and answers flow-metric aggregation queries.
type IntervalRepository interface {
	// InitSchema creates the tables if they don't exist.
	InitSchema(ctx context.Context) error

	// UpsertIntervals persists intervals keyed by event_id. Re-inserting an
	// already-stored event_id replaces the row, so re-running ingestion is
	// idempotent and a later run can close a previously open interval.
	UpsertIntervals(ctx context.Context, intervals []*domain.StageInterval) (int, error)

	// UpsertEntityMetadata refreshes the cached descriptor for one entity.
	UpsertEntityMetadata(ctx context.Context, meta *domain.EntityMetadata) error

	// GetFlowMetrics aggregates elapsed days between each entity's start and
	// end stage occupancy, entirely inside the store.
	GetFlowMetrics(ctx context.Context, query FlowQuery) (*FlowResult, error)

	// Ping checks if the store connection is alive.
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources.
	Close() error
}

// DefinitionWithMapping is the dashboard read path: an active metric
// definition joined with its stage mapping.
type DefinitionWithMapping struct {
	Definition domain.MetricDefinition
	Mapping    domain.StageMapping
}

// MappingRepository stores operator-authored stage mappings and metric
// definitions. Validation happens in the service layer before any write.
type MappingRepository interface {
	InitSchema(ctx context.Context) error

	UpsertMapping(ctx context.Context, mapping *domain.StageMapping) (*domain.StageMapping, error)
	GetMapping(ctx context.Context, canonicalStage string) (*domain.StageMapping, error)
	ListMappings(ctx context.Context) ([]*domain.StageMapping, error)
	DeleteMapping(ctx context.Context, canonicalStage string) error

	UpsertDefinition(ctx context.Context, def *domain.MetricDefinition) (*domain.MetricDefinition, error)
	ListDefinitions(ctx context.Context) ([]*domain.MetricDefinition, error)
	// ListActiveDefinitions returns active definitions joined with their
	// mappings, ordered by sort order.
	ListActiveDefinitions(ctx context.Context) ([]*DefinitionWithMapping, error)
	// DeleteDefinition removes a definition. The linked mapping is retained
	// for historical metric reconstruction.
	DeleteDefinition(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error
}
