package handlers

import (
	"net/http"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/interfaces/http/rest/middleware"
	"cognitivediary/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// BackendHandler serves the storage and model endpoints that remote
// editors call
type BackendHandler struct {
	repo     ports.SnapshotRepository
	llm      ports.LLMClient
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBackendHandler creates a backend handler
func NewBackendHandler(repo ports.SnapshotRepository, llm ports.LLMClient, logger *zap.Logger) *BackendHandler {
	return &BackendHandler{
		repo:     repo,
		llm:      llm,
		validate: validator.New(),
		logger:   logger,
	}
}

// SaveData handles POST /save-data
func (h *BackendHandler) SaveData(w http.ResponseWriter, r *http.Request) {
	var req api.SaveDataRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !middleware.Owns(r, req.Username) {
		api.ErrorWithKind(w, http.StatusForbidden, "FORBIDDEN", "Access to another user's diary is not allowed")
		return
	}

	g, skipped, err := api.ToGraph(req.Nodes, req.Edges)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if len(skipped) > 0 {
		h.logger.Warn("Dropped edges with missing endpoints",
			zap.String("username", req.Username),
			zap.Int("count", len(skipped)))
	}

	stamp, err := h.repo.Save(r.Context(), req.Username, g)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Debug("Graph saved",
		zap.String("username", req.Username),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()))
	api.Success(w, http.StatusOK, api.SaveDataResponse{
		Status:      "success",
		LastUpdated: stamp.UTC().Format(time.RFC3339Nano),
	})
}

// LoadData handles GET /load-data/{username}
func (h *BackendHandler) LoadData(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	stored, found, err := h.repo.Load(r.Context(), username)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !found {
		api.Success(w, http.StatusOK, api.LoadDataResponse{
			Nodes: []api.Node{},
			Edges: []api.Edge{},
			Empty: true,
		})
		return
	}

	nodes, edges := api.FromGraph(stored.Graph)
	api.Success(w, http.StatusOK, api.LoadDataResponse{
		Nodes:       nodes,
		Edges:       edges,
		LastUpdated: stored.LastUpdated.UTC().Format(time.RFC3339Nano),
	})
}

// Chat handles POST /chat
func (h *BackendHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ports.ChatRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	answer, err := h.llm.Chat(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.ChatResponse{Response: answer})
}

// ChainChat handles POST /chain_chat
func (h *BackendHandler) ChainChat(w http.ResponseWriter, r *http.Request) {
	var req ports.ChainChatRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	answer, err := h.llm.ChainChat(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.ChatResponse{Response: answer})
}
