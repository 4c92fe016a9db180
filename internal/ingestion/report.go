package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Failure records why one entity could not be ingested.
type Failure struct {
	EntityID string `json:"entity_id"`
	Reason   string `json:"reason"`
}

// RunReport is the final summary of one ingestion run.
type RunReport struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	NoData    int           `json:"no_data"`
	Retried   int           `json:"retried"`
	Failed    []Failure     `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Notifier publishes a run summary to an external channel. Publish failures
// are observability losses, never run failures.
type Notifier interface {
	PublishRunSummary(ctx context.Context, report *RunReport) error
}

// writeFailedArtifact writes the final failure list to a durable JSON file so
// the failed IDs can be re-run manually.
func writeFailedArtifact(path string, report *RunReport) error {
	if path == "" || len(report.Failed) == 0 {
		return nil
	}

	payload := struct {
		RunID     string    `json:"run_id"`
		WrittenAt time.Time `json:"written_at"`
		Failed    []Failure `json:"failed"`
	}{
		RunID:     report.RunID,
		WrittenAt: time.Now().UTC(),
		Failed:    report.Failed,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal failed-entity artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write failed-entity artifact: %w", err)
	}
	return nil
}
