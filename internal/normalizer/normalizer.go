// Package normalizer reconstructs discrete stage-occupancy intervals from a
// CRM's raw stage-change event log. It is pure computation with no I/O.
package normalizer

import (
	"fmt"
	"sort"

	"github.com/meridianops/dealflow-metrics-service/internal/domain"
)

// Normalize converts the unordered event history of a single entity into an
// ordered sequence of non-overlapping stage intervals.
//
// Events are sorted ascending by timestamp (event ID breaks ties), so the
// output is identical for any ordering of the same input. Each event opens an
// interval at its timestamp; the interval closes at the timestamp of the next
// event, and the last interval stays open (nil LeftAt). Events without a stage
// ID are skipped individually rather than failing the entity; the skip count
// is returned so callers can report it.
//
// An empty input yields an empty output. That is "no flow data", a reportable
// condition for the caller, not an error.
func Normalize(events []domain.RawStageEvent) ([]domain.StageInterval, int) {
	usable := make([]domain.RawStageEvent, 0, len(events))
	skipped := 0
	for _, ev := range events {
		if ev.NewStageID == "" {
			skipped++
			continue
		}
		usable = append(usable, ev)
	}

	sort.Slice(usable, func(i, j int) bool {
		if usable[i].Timestamp.Equal(usable[j].Timestamp) {
			return usable[i].EventID < usable[j].EventID
		}
		return usable[i].Timestamp.Before(usable[j].Timestamp)
	})

	intervals := make([]domain.StageInterval, 0, len(usable))
	for i, ev := range usable {
		interval := domain.StageInterval{
			EventID:    ev.EventID,
			EntityID:   ev.EntityID,
			PipelineID: ev.PipelineID,
			StageID:    ev.NewStageID,
			StageName:  ev.NewStageName,
			EnteredAt:  ev.Timestamp,
		}

		if i+1 < len(usable) {
			leftAt := usable[i+1].Timestamp
			duration := int64(leftAt.Sub(ev.Timestamp).Seconds())
			interval.LeftAt = &leftAt
			interval.DurationSeconds = &duration
		}

		intervals = append(intervals, interval)
	}

	return intervals, skipped
}

// ValidateIntervals checks the per-entity invariants: intervals ordered by
// EnteredAt must not overlap, and at most one interval may be open. A
// violation here is a defect in normalization or in the source data and
// should be logged loudly by the caller, never silently corrected.
func ValidateIntervals(intervals []domain.StageInterval) error {
	open := 0
	for i := range intervals {
		if intervals[i].Open() {
			open++
			continue
		}
		if intervals[i].LeftAt.Before(intervals[i].EnteredAt) {
			return fmt.Errorf("interval %s left before it was entered", intervals[i].EventID)
		}
		if i+1 < len(intervals) && intervals[i+1].EnteredAt.Before(*intervals[i].LeftAt) {
			return fmt.Errorf("intervals %s and %s overlap", intervals[i].EventID, intervals[i+1].EventID)
		}
	}
	if open > 1 {
		return fmt.Errorf("%d open intervals for one entity, want at most 1", open)
	}
	return nil
}
