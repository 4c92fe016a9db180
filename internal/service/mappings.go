package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/dto"
	"github.com/meridianops/dealflow-metrics-service/internal/repository"
)

// MappingService manages operator-authored stage mappings and metric
// definitions. All validation happens here, before anything reaches the
// store.
type MappingService struct {
	mappings repository.MappingRepository
	log      *zap.Logger
}

// NewMappingService creates a new mapping service
func NewMappingService(mappings repository.MappingRepository, log *zap.Logger) *MappingService {
	return &MappingService{
		mappings: mappings,
		log:      log,
	}
}

// UpsertMapping validates and persists a stage mapping.
func (s *MappingService) UpsertMapping(ctx context.Context, req *dto.UpsertMappingRequest) (*dto.MappingData, error) {
	mapping := &domain.StageMapping{
		CanonicalStage: req.CanonicalStage,
		StartStageID:   req.StartStageID,
		EndStageID:     req.EndStageID,
		StartStageName: req.StartStageName,
		EndStageName:   req.EndStageName,
		AvgMinDays:     req.AvgMinDays,
		AvgMaxDays:     req.AvgMaxDays,
		MetricComment:  req.MetricComment,
	}

	if err := validateMapping(mapping); err != nil {
		s.log.Warn("Rejected stage mapping write",
			zap.String("canonical_stage", req.CanonicalStage),
			zap.Error(err))
		return nil, err
	}

	existing, err := s.mappings.GetMapping(ctx, req.CanonicalStage)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing mapping: %w", err)
	}
	if existing != nil {
		mapping.ID = existing.ID
	} else {
		mapping.ID = uuid.NewString()
	}

	saved, err := s.mappings.UpsertMapping(ctx, mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mapping: %w", err)
	}

	s.log.Info("Upserted stage mapping",
		zap.String("canonical_stage", saved.CanonicalStage),
		zap.Bool("by_stage_id", saved.UsesStageIDs()))

	data := mappingData(saved)
	return &data, nil
}

// validateMapping enforces the write-time invariants: threshold ordering and
// a resolvable start/end stage pair (by ID or by name).
func validateMapping(m *domain.StageMapping) error {
	if m.AvgMinDays != nil && m.AvgMaxDays != nil && *m.AvgMinDays > *m.AvgMaxDays {
		return validationErrorf("avg_min_days (%g) must not exceed avg_max_days (%g)", *m.AvgMinDays, *m.AvgMaxDays)
	}
	if !m.UsesStageIDs() && !m.UsesStageNames() {
		return validationErrorf("mapping must set both start/end stage IDs or both start/end stage names")
	}
	return nil
}

// ListMappings returns every stage mapping.
func (s *MappingService) ListMappings(ctx context.Context) ([]dto.MappingData, error) {
	mappings, err := s.mappings.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}

	result := make([]dto.MappingData, 0, len(mappings))
	for _, m := range mappings {
		result = append(result, mappingData(m))
	}
	return result, nil
}

// DeleteMapping removes a mapping by canonical stage.
func (s *MappingService) DeleteMapping(ctx context.Context, canonicalStage string) error {
	err := s.mappings.DeleteMapping(ctx, canonicalStage)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	return nil
}

// UpsertDefinition validates and persists a metric definition. The canonical
// stage must already have a mapping.
func (s *MappingService) UpsertDefinition(ctx context.Context, req *dto.UpsertDefinitionRequest) (*dto.DefinitionData, error) {
	mapping, err := s.mappings.GetMapping(ctx, req.CanonicalStage)
	if err != nil {
		return nil, fmt.Errorf("failed to look up mapping: %w", err)
	}
	if mapping == nil {
		return nil, validationErrorf("no stage mapping exists for canonical stage %q", req.CanonicalStage)
	}

	def := &domain.MetricDefinition{
		ID:             req.ID,
		Title:          req.Title,
		CanonicalStage: req.CanonicalStage,
		SortOrder:      req.SortOrder,
		Active:         true,
	}
	if req.Active != nil {
		def.Active = *req.Active
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	} else if _, err := uuid.Parse(def.ID); err != nil {
		return nil, validationErrorf("invalid definition id %q", req.ID)
	}

	saved, err := s.mappings.UpsertDefinition(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert definition: %w", err)
	}

	data := definitionData(saved)
	return &data, nil
}

// ListDefinitions returns every metric definition, active or not.
func (s *MappingService) ListDefinitions(ctx context.Context) ([]dto.DefinitionData, error) {
	defs, err := s.mappings.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	result := make([]dto.DefinitionData, 0, len(defs))
	for _, d := range defs {
		result = append(result, definitionData(d))
	}
	return result, nil
}

// DeleteDefinition removes a definition. Its stage mapping is deliberately
// retained so historical metrics can still be reconstructed.
func (s *MappingService) DeleteDefinition(ctx context.Context, id string) error {
	err := s.mappings.DeleteDefinition(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete definition: %w", err)
	}
	return nil
}

func mappingData(m *domain.StageMapping) dto.MappingData {
	return dto.MappingData{
		ID:             m.ID,
		CanonicalStage: m.CanonicalStage,
		StartStageID:   m.StartStageID,
		EndStageID:     m.EndStageID,
		StartStageName: m.StartStageName,
		EndStageName:   m.EndStageName,
		AvgMinDays:     m.AvgMinDays,
		AvgMaxDays:     m.AvgMaxDays,
		MetricComment:  m.MetricComment,
	}
}

func definitionData(d *domain.MetricDefinition) dto.DefinitionData {
	return dto.DefinitionData{
		ID:             d.ID,
		Title:          d.Title,
		CanonicalStage: d.CanonicalStage,
		SortOrder:      d.SortOrder,
		Active:         d.Active,
	}
}
