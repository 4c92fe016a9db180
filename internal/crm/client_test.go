package crm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.CRM{
		BaseURL:           server.URL,
		AuthToken:         "test-token",
		RequestsPerSecond: 1000,
		Burst:             1000,
		TimeoutSec:        5,
	}, zap.NewNop())
}

func TestClient_FetchStageEvents_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/entities/deal-42/stage-events", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"entity": {"entity_id": "deal-42", "title": "Acme renewal", "pipeline_id": "pipe-1", "stage_id": "stage-b", "status": "open"},
			"events": [
				{"event_id": "ev-1", "entity_id": "deal-42", "pipeline_id": "pipe-1", "new_stage_id": "stage-a", "new_stage_name": "Qualified", "timestamp": "2026-03-10T09:00:00Z"},
				{"event_id": "ev-2", "entity_id": "deal-42", "pipeline_id": "pipe-1", "new_stage_id": "stage-b", "new_stage_name": "Quoted", "old_stage_id": "stage-a", "timestamp": "2026-03-11T09:00:00Z"}
			]
		}`))
	})

	history, err := client.FetchStageEvents(context.Background(), "deal-42")

	require.NoError(t, err)
	assert.Equal(t, "Acme renewal", history.Entity.Title)
	require.Len(t, history.Events, 2)
	assert.Equal(t, "stage-a", history.Events[0].NewStageID)
}

func TestClient_FetchStageEvents_ErrorClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorKind
	}{
		{http.StatusUnauthorized, ErrorKindAuth},
		{http.StatusForbidden, ErrorKindAuth},
		{http.StatusNotFound, ErrorKindNotFound},
		{http.StatusTooManyRequests, ErrorKindRateLimited},
		{http.StatusInternalServerError, ErrorKindTransient},
		{http.StatusBadGateway, ErrorKindTransient},
	}

	for _, tt := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})

		_, err := client.FetchStageEvents(context.Background(), "deal-1")

		require.Error(t, err)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, tt.expected, apiErr.Kind, "status %d", tt.status)
		assert.Equal(t, "deal-1", apiErr.EntityID)
	}
}

func TestClient_FetchStageEvents_FillsEntityID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entity": {}, "events": []}`))
	})

	history, err := client.FetchStageEvents(context.Background(), "deal-7")

	require.NoError(t, err)
	assert.Equal(t, "deal-7", history.Entity.EntityID)
	assert.Empty(t, history.Events)
}

func TestClient_FetchStageEvents_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entity": {}, "events": []}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchStageEvents(ctx, "deal-1")

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrorKindTransient, apiErr.Kind)
}
