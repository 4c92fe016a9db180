package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"avg_min_days must not exceed avg_max_days"`
}

// MappingData is a stage mapping as returned by the API.
type MappingData struct {
	ID             string   `json:"id"`
	CanonicalStage string   `json:"canonical_stage" example:"Procurement"`
	StartStageID   string   `json:"start_stage_id,omitempty"`
	EndStageID     string   `json:"end_stage_id,omitempty"`
	StartStageName string   `json:"start_stage_name,omitempty"`
	EndStageName   string   `json:"end_stage_name,omitempty"`
	AvgMinDays     *float64 `json:"avg_min_days,omitempty"`
	AvgMaxDays     *float64 `json:"avg_max_days,omitempty"`
	MetricComment  string   `json:"metric_comment,omitempty"`
}

// DefinitionData is a dashboard metric definition as returned by the API.
type DefinitionData struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	CanonicalStage string `json:"canonical_stage"`
	SortOrder      int    `json:"sort_order"`
	Active         bool   `json:"active"`
}

// BucketData is one distribution bucket of completed flow durations.
type BucketData struct {
	Label string `json:"label" example:"1-3d"`
	Count uint64 `json:"count" example:"12"`
}

// MetricResponse is a computed flow metric with its classification. A status
// of "no_data" means either no completed entities or an unconfigured mapping,
// never a measured zero.
type MetricResponse struct {
	CanonicalStage  string       `json:"canonical_stage" example:"Procurement"`
	AverageDays     float64      `json:"average_days" example:"4.37"`
	CompletedCount  uint64       `json:"completed_count" example:"42"`
	InProgressCount uint64       `json:"in_progress_count" example:"7"`
	Status          string       `json:"status" example:"watch"`
	WindowApplied   bool         `json:"window_applied"`
	Buckets         []BucketData `json:"buckets,omitempty"`
	Mapping         *MappingData `json:"mapping,omitempty"`
}

// DashboardMetricData pairs an active metric definition with its computed
// metric, in dashboard sort order.
type DashboardMetricData struct {
	DefinitionID string         `json:"definition_id"`
	Title        string         `json:"title"`
	SortOrder    int            `json:"sort_order"`
	Metric       MetricResponse `json:"metric"`
}

// ListMetricsResponse is the dashboard read path.
type ListMetricsResponse struct {
	Metrics []DashboardMetricData `json:"metrics"`
}

// FailureData records one entity that could not be ingested.
type FailureData struct {
	EntityID string `json:"entity_id" example:"deal-1041"`
	Reason   string `json:"reason" example:"crm transient error for entity deal-1041 (status 502): bad gateway"`
}

// RunIngestionResponse is the summary of a completed ingestion run.
type RunIngestionResponse struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total" example:"80"`
	Succeeded int           `json:"succeeded" example:"78"`
	NoData    int           `json:"no_data" example:"3"`
	Retried   int           `json:"retried" example:"2"`
	Failed    []FailureData `json:"failed,omitempty"`
	ElapsedMs int64         `json:"elapsed_ms" example:"6215"`
}
