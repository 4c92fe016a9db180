package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/repository"
)

// MockMappingRepository is a mock implementation of repository.MappingRepository
type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMappingRepository) UpsertMapping(ctx context.Context, mapping *domain.StageMapping) (*domain.StageMapping, error) {
	args := m.Called(ctx, mapping)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StageMapping), args.Error(1)
}

func (m *MockMappingRepository) GetMapping(ctx context.Context, canonicalStage string) (*domain.StageMapping, error) {
	args := m.Called(ctx, canonicalStage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StageMapping), args.Error(1)
}

func (m *MockMappingRepository) ListMappings(ctx context.Context) ([]*domain.StageMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StageMapping), args.Error(1)
}

func (m *MockMappingRepository) DeleteMapping(ctx context.Context, canonicalStage string) error {
	args := m.Called(ctx, canonicalStage)
	return args.Error(0)
}

func (m *MockMappingRepository) UpsertDefinition(ctx context.Context, def *domain.MetricDefinition) (*domain.MetricDefinition, error) {
	args := m.Called(ctx, def)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetricDefinition), args.Error(1)
}

func (m *MockMappingRepository) ListDefinitions(ctx context.Context) ([]*domain.MetricDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MetricDefinition), args.Error(1)
}

func (m *MockMappingRepository) ListActiveDefinitions(ctx context.Context) ([]*repository.DefinitionWithMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.DefinitionWithMapping), args.Error(1)
}

func (m *MockMappingRepository) DeleteDefinition(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMappingRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMappingRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockIntervalRepository is a mock implementation of repository.IntervalRepository
type MockIntervalRepository struct {
	mock.Mock
}

func (m *MockIntervalRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIntervalRepository) UpsertIntervals(ctx context.Context, intervals []*domain.StageInterval) (int, error) {
	args := m.Called(ctx, intervals)
	return args.Int(0), args.Error(1)
}

func (m *MockIntervalRepository) UpsertEntityMetadata(ctx context.Context, meta *domain.EntityMetadata) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *MockIntervalRepository) GetFlowMetrics(ctx context.Context, query repository.FlowQuery) (*repository.FlowResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.FlowResult), args.Error(1)
}

func (m *MockIntervalRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIntervalRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
