package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
	"github.com/meridianops/dealflow-metrics-service/internal/dto"
	"github.com/meridianops/dealflow-metrics-service/internal/repository"
)

// MetricsService computes time-windowed flow metrics. Each query resolves a
// stage mapping, aggregates interval durations in the store and classifies
// the average against the mapping thresholds. Queries over well-formed data
// never fail for missing data; they come back as a no-data classification.
type MetricsService struct {
	mappings  repository.MappingRepository
	intervals repository.IntervalRepository
	now       func() time.Time
	log       *zap.Logger
}

// NewMetricsService creates a new metrics service
func NewMetricsService(mappings repository.MappingRepository, intervals repository.IntervalRepository, log *zap.Logger) *MetricsService {
	return &MetricsService{
		mappings:  mappings,
		intervals: intervals,
		now:       time.Now,
		log:       log,
	}
}

// GetMetric computes the flow metric for one canonical stage, optionally
// restricted to a time window.
func (s *MetricsService) GetMetric(ctx context.Context, canonicalStage string, req *dto.GetMetricRequest) (*dto.MetricResponse, error) {
	mapping, err := s.mappings.GetMapping(ctx, canonicalStage)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mapping: %w", err)
	}
	if mapping == nil {
		return nil, ErrNotFound
	}

	from, to, err := s.resolveWindow(req)
	if err != nil {
		return nil, err
	}

	return s.computeMetric(ctx, mapping, from, to)
}

// ListMetrics computes the metric for every active definition, in dashboard
// sort order and without a window.
func (s *MetricsService) ListMetrics(ctx context.Context) (*dto.ListMetricsResponse, error) {
	items, err := s.mappings.ListActiveDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active definitions: %w", err)
	}

	response := &dto.ListMetricsResponse{
		Metrics: make([]dto.DashboardMetricData, 0, len(items)),
	}
	for _, item := range items {
		metric, err := s.computeMetric(ctx, &item.Mapping, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to compute metric for %s: %w", item.Mapping.CanonicalStage, err)
		}
		response.Metrics = append(response.Metrics, dto.DashboardMetricData{
			DefinitionID: item.Definition.ID,
			Title:        item.Definition.Title,
			SortOrder:    item.Definition.SortOrder,
			Metric:       *metric,
		})
	}

	return response, nil
}

// resolveWindow turns the request into an absolute window. SinceDays wins
// over the explicit pair.
func (s *MetricsService) resolveWindow(req *dto.GetMetricRequest) (*time.Time, *time.Time, error) {
	if req == nil {
		return nil, nil, nil
	}
	if req.SinceDays < 0 {
		return nil, nil, validationErrorf("since_days must not be negative")
	}
	if req.SinceDays > 0 {
		to := s.now().UTC()
		from := to.AddDate(0, 0, -req.SinceDays)
		return &from, &to, nil
	}
	if req.From != 0 || req.To != 0 {
		if req.From == 0 || req.To == 0 {
			return nil, nil, validationErrorf("from and to must be supplied together")
		}
		if req.From > req.To {
			return nil, nil, validationErrorf("from must not be after to")
		}
		from := time.Unix(req.From, 0).UTC()
		to := time.Unix(req.To, 0).UTC()
		return &from, &to, nil
	}
	return nil, nil, nil
}

// computeMetric runs the aggregation for one mapping. The window predicate is
// part of the store query, so two callers asking for the same window always
// see the same result set.
func (s *MetricsService) computeMetric(ctx context.Context, mapping *domain.StageMapping, from, to *time.Time) (*dto.MetricResponse, error) {
	query := repository.FlowQuery{
		StartStage: mapping.StartStageID,
		EndStage:   mapping.EndStageID,
		From:       from,
		To:         to,
	}
	if !mapping.UsesStageIDs() {
		// Legacy name-pair mapping. ID matching is authoritative; names can
		// be renamed upstream.
		query.StartStage = mapping.StartStageName
		query.EndStage = mapping.EndStageName
		query.MatchByName = true
	}

	result, err := s.intervals.GetFlowMetrics(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate flow metrics: %w", err)
	}

	average := roundDays(result.AverageDays)
	status := domain.Classify(average, mapping.AvgMinDays, mapping.AvgMaxDays)

	buckets := make([]dto.BucketData, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		buckets = append(buckets, dto.BucketData{Label: b.Label, Count: b.Count})
	}

	mappingInfo := mappingData(mapping)
	return &dto.MetricResponse{
		CanonicalStage:  mapping.CanonicalStage,
		AverageDays:     average,
		CompletedCount:  result.CompletedCount,
		InProgressCount: result.InProgressCount,
		Status:          string(status),
		WindowApplied:   query.WindowApplied(),
		Buckets:         buckets,
		Mapping:         &mappingInfo,
	}, nil
}

// roundDays rounds to two decimals for display; fractional days are kept
// internally by the store query.
func roundDays(v float64) float64 {
	return math.Round(v*100) / 100
}
