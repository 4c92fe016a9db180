package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/dto"
	"github.com/meridianops/dealflow-metrics-service/internal/ingestion"
)

// IngestionRunner is the part of the batcher the API needs.
type IngestionRunner interface {
	Run(ctx context.Context, entityIDs []string) (*ingestion.RunReport, error)
}

// IngestionService exposes on-demand ingestion runs to the API. Runs are
// synchronous; concurrent runs over the same entities are an operational
// constraint the caller avoids, not something enforced here.
type IngestionService struct {
	batcher IngestionRunner
	log     *zap.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(batcher IngestionRunner, log *zap.Logger) *IngestionService {
	return &IngestionService{
		batcher: batcher,
		log:     log,
	}
}

// RunIngestion runs one ingestion pass over the requested entity IDs and
// returns the run summary. Per-entity failures are part of the summary, not
// errors.
func (s *IngestionService) RunIngestion(ctx context.Context, req *dto.RunIngestionRequest) (*dto.RunIngestionResponse, error) {
	ids := dedupe(req.EntityIDs)

	report, err := s.batcher.Run(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ingestion run failed: %w", err)
	}

	s.log.Info("Ingestion run completed via API",
		zap.String("run_id", report.RunID),
		zap.Int("requested", len(req.EntityIDs)),
		zap.Int("succeeded", report.Succeeded))

	failed := make([]dto.FailureData, 0, len(report.Failed))
	for _, f := range report.Failed {
		failed = append(failed, dto.FailureData{EntityID: f.EntityID, Reason: f.Reason})
	}

	return &dto.RunIngestionResponse{
		RunID:     report.RunID,
		Total:     report.Total,
		Succeeded: report.Succeeded,
		NoData:    report.NoData,
		Retried:   report.Retried,
		Failed:    failed,
		ElapsedMs: report.Elapsed.Milliseconds(),
	}, nil
}

// dedupe drops repeated IDs while keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
