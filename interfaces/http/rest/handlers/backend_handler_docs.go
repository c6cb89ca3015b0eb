package handlers

// This file contains OpenAPI/Swagger documentation for BackendHandler endpoints

// SaveData stores a user's diary graph
// @Summary Save diary graph
// @Description Replaces the stored graph of a user. An older snapshot never overwrites a newer one.
// @Tags backend
// @Accept json
// @Produce json
// @Param request body api.SaveDataRequest true "Graph to store"
// @Success 200 {object} api.SaveDataResponse "Graph stored"
// @Failure 400 {object} api.ErrorResponse "Invalid graph"
// @Failure 403 {object} api.ErrorResponse "Another user's diary"
// @Failure 409 {object} api.ErrorResponse "A newer snapshot is stored"
// @Failure 500 {object} api.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /save-data [post]

// LoadData returns a user's diary graph
// @Summary Load diary graph
// @Description Returns the stored graph of a user, or an empty graph flagged as empty when nothing was saved
// @Tags backend
// @Produce json
// @Param username path string true "Diary owner"
// @Success 200 {object} api.LoadDataResponse "Stored graph"
// @Failure 403 {object} api.ErrorResponse "Another user's diary"
// @Failure 500 {object} api.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /load-data/{username} [get]

// Chat asks the model about a single thought
// @Summary Ask about a thought
// @Tags backend
// @Accept json
// @Produce json
// @Param request body ports.ChatRequest true "Thought to ask about"
// @Success 200 {object} api.ChatResponse "Model answer"
// @Failure 400 {object} api.ErrorResponse "Invalid request"
// @Failure 502 {object} api.ErrorResponse "Model unavailable"
// @Failure 504 {object} api.ErrorResponse "Model timed out"
// @Security BearerAuth
// @Router /chat [post]

// ChainChat asks the model about a thought in light of its chain
// @Summary Ask about a chain of thoughts
// @Tags backend
// @Accept json
// @Produce json
// @Param request body ports.ChainChatRequest true "Chain, root first, and the thought to ask about"
// @Success 200 {object} api.ChatResponse "Model answer"
// @Failure 400 {object} api.ErrorResponse "Invalid request"
// @Failure 502 {object} api.ErrorResponse "Model unavailable"
// @Failure 504 {object} api.ErrorResponse "Model timed out"
// @Security BearerAuth
// @Router /chain_chat [post]
