package service

import (
	"context"

	"github.com/meridianops/dealflow-metrics-service/internal/dto"
)

// MetricsServicer answers flow-metric queries for the dashboard.
type MetricsServicer interface {
	GetMetric(ctx context.Context, canonicalStage string, req *dto.GetMetricRequest) (*dto.MetricResponse, error)
	ListMetrics(ctx context.Context) (*dto.ListMetricsResponse, error)
}

// MappingServicer manages stage mappings and metric definitions.
type MappingServicer interface {
	UpsertMapping(ctx context.Context, req *dto.UpsertMappingRequest) (*dto.MappingData, error)
	ListMappings(ctx context.Context) ([]dto.MappingData, error)
	DeleteMapping(ctx context.Context, canonicalStage string) error

	UpsertDefinition(ctx context.Context, req *dto.UpsertDefinitionRequest) (*dto.DefinitionData, error)
	ListDefinitions(ctx context.Context) ([]dto.DefinitionData, error)
	DeleteDefinition(ctx context.Context, id string) error
}

// IngestionServicer runs on-demand ingestion passes.
type IngestionServicer interface {
	RunIngestion(ctx context.Context, req *dto.RunIngestionRequest) (*dto.RunIngestionResponse, error)
}
