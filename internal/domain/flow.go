package domain

import "time"

// RawStageEvent is one CRM-reported stage transition for a single entity.
// Events are sourced externally and never mutated.
type RawStageEvent struct {
	EventID      string    `json:"event_id"`
	EntityID     string    `json:"entity_id"`
	PipelineID   string    `json:"pipeline_id"`
	NewStageID   string    `json:"new_stage_id"`
	NewStageName string    `json:"new_stage_name"`
	OldStageID   string    `json:"old_stage_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// StageInterval is a reconstructed stage-occupancy period stored in ClickHouse.
// EventID inherits global uniqueness from the source event, which is what makes
// interval storage idempotent. LeftAt is nil while the entity is still in the
// stage as of the last ingestion run.
type StageInterval struct {
	EventID         string     `ch:"event_id"`
	EntityID        string     `ch:"entity_id"`
	PipelineID      string     `ch:"pipeline_id"`
	StageID         string     `ch:"stage_id"`
	StageName       string     `ch:"stage_name"`
	EnteredAt       time.Time  `ch:"entered_at"`
	LeftAt          *time.Time `ch:"left_at"`
	DurationSeconds *int64     `ch:"duration_seconds"`
	Version         uint64     `ch:"version"`
}

// Open reports whether the entity is still occupying this stage.
func (i *StageInterval) Open() bool {
	return i.LeftAt == nil
}

// EntityMetadata is a per-entity cached descriptor, upserted on every ingestion
// of that entity. Used for freshness display only.
type EntityMetadata struct {
	EntityID          string    `ch:"entity_id"`
	Title             string    `ch:"title"`
	CurrentPipelineID string    `ch:"current_pipeline_id"`
	CurrentStageID    string    `ch:"current_stage_id"`
	Status            string    `ch:"status"`
	FirstFetchedAt    time.Time `ch:"first_fetched_at"`
	LastFetchedAt     time.Time `ch:"last_fetched_at"`
}

// StageMapping links a canonical business-process stage to a start/end CRM
// stage pair. Stages are addressed either by ID pair (authoritative) or, for
// legacy mappings, by name pair. Thresholds are optional.
type StageMapping struct {
	ID             string     `json:"id"`
	CanonicalStage string     `json:"canonical_stage"`
	StartStageID   string     `json:"start_stage_id"`
	EndStageID     string     `json:"end_stage_id"`
	StartStageName string     `json:"start_stage_name"`
	EndStageName   string     `json:"end_stage_name"`
	AvgMinDays     *float64   `json:"avg_min_days"`
	AvgMaxDays     *float64   `json:"avg_max_days"`
	MetricComment  string     `json:"metric_comment"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UsesStageIDs reports whether the mapping addresses stages by ID pair.
// ID matching is authoritative; stage names can be renamed upstream.
func (m *StageMapping) UsesStageIDs() bool {
	return m.StartStageID != "" && m.EndStageID != ""
}

// UsesStageNames reports whether the mapping falls back to name-pair matching.
func (m *StageMapping) UsesStageNames() bool {
	return m.StartStageName != "" && m.EndStageName != ""
}

// MetricDefinition is a named, orderable metric exposed to the dashboard,
// linked to exactly one StageMapping by canonical stage.
type MetricDefinition struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CanonicalStage string    `json:"canonical_stage"`
	SortOrder      int       `json:"sort_order"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
