package dto

// UpsertMappingRequest creates or replaces the stage mapping for a canonical
// business-process stage. Stages are addressed by ID pair or, for legacy
// configurations, by name pair; one of the two must be complete.
type UpsertMappingRequest struct {
	CanonicalStage string   `json:"canonical_stage" binding:"required" example:"Procurement"`
	StartStageID   string   `json:"start_stage_id" example:"stage_1041"`
	EndStageID     string   `json:"end_stage_id" example:"stage_1042"`
	StartStageName string   `json:"start_stage_name" example:"RFQ sent"`
	EndStageName   string   `json:"end_stage_name" example:"PO received"`
	AvgMinDays     *float64 `json:"avg_min_days" example:"2"`
	AvgMaxDays     *float64 `json:"avg_max_days" example:"7"`
	MetricComment  string   `json:"metric_comment" example:"Time from RFQ to purchase order"`
}

// UpsertDefinitionRequest creates or updates a dashboard metric definition.
// Omitting the ID creates a new definition.
type UpsertDefinitionRequest struct {
	ID             string `json:"id" example:"0d2f8a34-9c41-4a58-b1cd-6f4c92f31b7a"`
	Title          string `json:"title" binding:"required" example:"Procurement lead time"`
	CanonicalStage string `json:"canonical_stage" binding:"required" example:"Procurement"`
	SortOrder      int    `json:"sort_order" example:"10"`
	Active         *bool  `json:"active" example:"true"`
}

// GetMetricRequest is the optional time window for a metric query. SinceDays
// takes precedence over the explicit from/to pair (unix seconds).
type GetMetricRequest struct {
	SinceDays int   `form:"since_days" example:"30"`
	From      int64 `form:"from" example:"1767225600"`
	To        int64 `form:"to" example:"1769904000"`
}

// RunIngestionRequest triggers an ingestion run over the given entity IDs.
type RunIngestionRequest struct {
	EntityIDs []string `json:"entity_ids" binding:"required,min=1,max=1000,dive,required"`
}
