package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/dto"
)

func TestMappingService_UpsertMapping_Success(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	minDays, maxDays := thresholds(2, 7)
	req := &dto.UpsertMappingRequest{
		CanonicalStage: "Procurement",
		StartStageID:   "stage-a",
		EndStageID:     "stage-b",
		AvgMinDays:     minDays,
		AvgMaxDays:     maxDays,
		MetricComment:  "RFQ to PO",
	}

	mockRepo.On("GetMapping", mock.Anything, "Procurement").Return(nil, nil)
	mockRepo.On("UpsertMapping", mock.Anything, mock.MatchedBy(func(m *domain.StageMapping) bool {
		return m.CanonicalStage == "Procurement" && m.ID != ""
	})).Return(&domain.StageMapping{
		ID:             "generated-id",
		CanonicalStage: "Procurement",
		StartStageID:   "stage-a",
		EndStageID:     "stage-b",
		AvgMinDays:     minDays,
		AvgMaxDays:     maxDays,
		MetricComment:  "RFQ to PO",
	}, nil)

	saved, err := service.UpsertMapping(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Procurement", saved.CanonicalStage)
	mockRepo.AssertExpectations(t)
}

func TestMappingService_UpsertMapping_KeepsExistingID(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	existing := &domain.StageMapping{ID: "m-existing", CanonicalStage: "Procurement", StartStageID: "x", EndStageID: "y"}
	mockRepo.On("GetMapping", mock.Anything, "Procurement").Return(existing, nil)
	mockRepo.On("UpsertMapping", mock.Anything, mock.MatchedBy(func(m *domain.StageMapping) bool {
		return m.ID == "m-existing"
	})).Return(existing, nil)

	_, err := service.UpsertMapping(context.Background(), &dto.UpsertMappingRequest{
		CanonicalStage: "Procurement",
		StartStageID:   "x",
		EndStageID:     "y",
	})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestMappingService_UpsertMapping_RejectsInvertedThresholds(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	minDays, maxDays := thresholds(10, 5)
	_, err := service.UpsertMapping(context.Background(), &dto.UpsertMappingRequest{
		CanonicalStage: "Procurement",
		StartStageID:   "stage-a",
		EndStageID:     "stage-b",
		AvgMinDays:     minDays,
		AvgMaxDays:     maxDays,
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "avg_min_days")
	mockRepo.AssertNotCalled(t, "UpsertMapping")
}

func TestMappingService_UpsertMapping_RejectsUnresolvableStages(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	tests := []struct {
		name string
		req  dto.UpsertMappingRequest
	}{
		{"no stages at all", dto.UpsertMappingRequest{CanonicalStage: "X"}},
		{"incomplete id pair", dto.UpsertMappingRequest{CanonicalStage: "X", StartStageID: "stage-a"}},
		{"incomplete name pair", dto.UpsertMappingRequest{CanonicalStage: "X", EndStageName: "Won"}},
		{"mixed halves", dto.UpsertMappingRequest{CanonicalStage: "X", StartStageID: "stage-a", EndStageName: "Won"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.UpsertMapping(context.Background(), &tt.req)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}

	mockRepo.AssertNotCalled(t, "UpsertMapping")
}

func TestMappingService_UpsertMapping_AcceptsNamePair(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	mockRepo.On("GetMapping", mock.Anything, "Quoting").Return(nil, nil)
	mockRepo.On("UpsertMapping", mock.Anything, mock.Anything).Return(&domain.StageMapping{
		ID:             "m-1",
		CanonicalStage: "Quoting",
		StartStageName: "RFQ sent",
		EndStageName:   "Quote accepted",
	}, nil)

	saved, err := service.UpsertMapping(context.Background(), &dto.UpsertMappingRequest{
		CanonicalStage: "Quoting",
		StartStageName: "RFQ sent",
		EndStageName:   "Quote accepted",
	})

	require.NoError(t, err)
	assert.Equal(t, "RFQ sent", saved.StartStageName)
}

func TestMappingService_UpsertDefinition_RequiresMapping(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	mockRepo.On("GetMapping", mock.Anything, "Ghost").Return(nil, nil)

	_, err := service.UpsertDefinition(context.Background(), &dto.UpsertDefinitionRequest{
		Title:          "Ghost metric",
		CanonicalStage: "Ghost",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "UpsertDefinition")
}

func TestMappingService_UpsertDefinition_DefaultsActive(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	mapping := &domain.StageMapping{ID: "m-1", CanonicalStage: "Procurement", StartStageID: "a", EndStageID: "b"}
	mockRepo.On("GetMapping", mock.Anything, "Procurement").Return(mapping, nil)
	mockRepo.On("UpsertDefinition", mock.Anything, mock.MatchedBy(func(d *domain.MetricDefinition) bool {
		return d.Active && d.ID != ""
	})).Return(&domain.MetricDefinition{ID: "d-1", Title: "Procurement lead time", CanonicalStage: "Procurement", Active: true}, nil)

	saved, err := service.UpsertDefinition(context.Background(), &dto.UpsertDefinitionRequest{
		Title:          "Procurement lead time",
		CanonicalStage: "Procurement",
	})

	require.NoError(t, err)
	assert.True(t, saved.Active)
	mockRepo.AssertExpectations(t)
}

func TestMappingService_DeleteDefinition_NotFound(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	mockRepo.On("DeleteDefinition", mock.Anything, "missing").Return(sql.ErrNoRows)

	err := service.DeleteDefinition(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMappingService_DeleteDefinition_KeepsMapping(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, zap.NewNop())

	mockRepo.On("DeleteDefinition", mock.Anything, "d-1").Return(nil)

	err := service.DeleteDefinition(context.Background(), "d-1")

	require.NoError(t, err)
	// Deleting a definition never touches the mapping tables.
	mockRepo.AssertNotCalled(t, "DeleteMapping")
}
