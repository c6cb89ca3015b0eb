package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLLMClient_ChainChat(t *testing.T) {
	var got ports.ChainChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chain_chat", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		api.Success(w, http.StatusOK, api.ChatResponse{Response: "R"})
	}))
	defer srv.Close()

	llm := NewLLMClient(NewClient(srv.URL, zap.NewNop(), WithToken("tok")))
	answer, err := llm.ChainChat(context.Background(), ports.ChainChatRequest{
		ChainNodes:        []ports.ChainNode{{ID: "1", Label: "A"}, {ID: "3", Label: "C"}},
		TargetNodeContent: "C",
		Temperature:       0.7,
	})

	require.NoError(t, err)
	assert.Equal(t, "R", answer)
	assert.Equal(t, "C", got.TargetNodeContent)
	assert.Len(t, got.ChainNodes, 2)
}

func TestLLMClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   interface{}
		want   pkgerrors.ErrorType
	}{
		{"empty answer", http.StatusOK, api.ChatResponse{}, pkgerrors.ErrorTypeNetworkFailure},
		{"reported timeout", http.StatusGatewayTimeout, api.ErrorResponse{Error: "slow", Kind: "TIMEOUT"}, pkgerrors.ErrorTypeTimeout},
		{"validation", http.StatusBadRequest, api.ErrorResponse{Error: "message is required"}, pkgerrors.ErrorTypeValidation},
		{"server error", http.StatusInternalServerError, api.ErrorResponse{Error: "boom"}, pkgerrors.ErrorTypeNetworkFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := NewLLMClient(NewClient(srv.URL, zap.NewNop())).Chat(context.Background(), ports.ChatRequest{Message: "hi"})
			assert.Equal(t, tt.want, pkgerrors.TypeOf(err))
		})
	}
}

func TestSnapshotRepository_SaveAndLoad(t *testing.T) {
	var stored api.SaveDataRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/save-data":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
			api.Success(w, http.StatusOK, api.SaveDataResponse{Status: "success", LastUpdated: "2025-06-01T10:00:00Z"})
		case "/load-data/alice":
			api.Success(w, http.StatusOK, api.LoadDataResponse{Nodes: stored.Nodes, Edges: stored.Edges, LastUpdated: "2025-06-01T10:00:00Z"})
		case "/load-data/bob":
			api.Success(w, http.StatusOK, api.LoadDataResponse{Empty: true})
		default:
			api.Error(w, http.StatusNotFound, "no such route")
		}
	}))
	defer srv.Close()

	repo := NewSnapshotRepository(NewClient(srv.URL, zap.NewNop()))
	ctx := context.Background()

	stamp, err := repo.Save(ctx, "alice", aggregates.StarterGraph())
	require.NoError(t, err)
	assert.Equal(t, 2025, stamp.Year())
	assert.Equal(t, "alice", stored.Username)
	assert.Len(t, stored.Nodes, 3)

	snap, found, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, snap.Graph.EdgeCount())

	_, found, err = repo.Load(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = repo.Load(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, found, "404 means nothing stored")
}

func TestSnapshotRepository_SaveSurfacesErrorBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"plain text", "text/plain", "disk quota exceeded\n", "/save-data returned 500: disk quota exceeded"},
		{"json error", "application/json", `{"error":"store unavailable"}`, "/save-data returned 500: store unavailable"},
		{"empty body", "text/plain", "", "/save-data returned 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			repo := NewSnapshotRepository(NewClient(srv.URL, zap.NewNop()))
			_, err := repo.Save(context.Background(), "alice", aggregates.StarterGraph())

			require.Error(t, err)
			assert.Equal(t, pkgerrors.ErrorTypeNetworkFailure, pkgerrors.TypeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
