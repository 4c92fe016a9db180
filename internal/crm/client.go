// Package crm is the client for the CRM's stage-history API, the external
// source of raw stage-change events.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/config"
	"github.com/meridianops/dealflow-metrics-service/internal/domain"
)

// EntityDescriptor is the CRM's current view of an entity, returned alongside
// its event history and cached as EntityMetadata.
type EntityDescriptor struct {
	EntityID   string `json:"entity_id"`
	Title      string `json:"title"`
	PipelineID string `json:"pipeline_id"`
	StageID    string `json:"stage_id"`
	Status     string `json:"status"`
}

// EntityHistory is one entity's descriptor plus its full raw event log.
type EntityHistory struct {
	Entity EntityDescriptor       `json:"entity"`
	Events []domain.RawStageEvent `json:"events"`
}

// StageEventFetcher fetches the raw stage-change history for one entity.
type StageEventFetcher interface {
	FetchStageEvents(ctx context.Context, entityID string) (*EntityHistory, error)
}

// Client calls the stage-history API with a client-side token bucket so the
// aggregate request rate stays under the provider's limit regardless of how
// many workers fetch concurrently.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
	log       *zap.Logger

	mu          sync.Mutex
	tokens      int
	maxTokens   int
	refillEvery time.Duration
	lastRefill  time.Time
}

// NewClient creates a stage-history API client from configuration.
func NewClient(cfg *config.CRM, log *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = rps
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		authToken:   cfg.AuthToken,
		http:        &http.Client{Timeout: timeout},
		log:         log,
		tokens:      burst,
		maxTokens:   burst,
		refillEvery: time.Second / time.Duration(rps),
		lastRefill:  time.Now(),
	}
}

// acquire blocks until a rate-limit token is available or the context ends.
func (c *Client) acquire(ctx context.Context) error {
	for {
		c.mu.Lock()
		now := time.Now()
		refills := int(now.Sub(c.lastRefill) / c.refillEvery)
		if refills > 0 {
			c.tokens += refills
			if c.tokens > c.maxTokens {
				c.tokens = c.maxTokens
			}
			c.lastRefill = now
		}
		if c.tokens > 0 {
			c.tokens--
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.refillEvery):
		}
	}
}

// FetchStageEvents retrieves the descriptor and raw event history for one
// entity. Errors are returned as *APIError with a classified kind.
func (c *Client) FetchStageEvents(ctx context.Context, entityID string) (*EntityHistory, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, &APIError{Kind: ErrorKindTransient, EntityID: entityID, Message: err.Error()}
	}

	url := fmt.Sprintf("%s/v1/entities/%s/stage-events", c.baseURL, entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &APIError{Kind: ErrorKindTransient, EntityID: entityID, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Covers timeouts, DNS failures and connection resets.
		return nil, &APIError{Kind: ErrorKindTransient, EntityID: entityID, Message: err.Error()}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			Kind:       classifyStatus(resp.StatusCode),
			EntityID:   entityID,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var history EntityHistory
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, &APIError{Kind: ErrorKindTransient, EntityID: entityID, Message: fmt.Sprintf("decode response: %v", err)}
	}

	if history.Entity.EntityID == "" {
		history.Entity.EntityID = entityID
	}

	return &history, nil
}
