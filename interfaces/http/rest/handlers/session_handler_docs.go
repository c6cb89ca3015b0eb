package handlers

// This file contains OpenAPI/Swagger documentation for SessionHandler endpoints

// GetSession returns the session snapshot
// @Summary Get session snapshot
// @Description Opens the user's editing session, loading the stored graph on first access
// @Tags sessions
// @Produce json
// @Param username path string true "Diary owner"
// @Success 200 {object} api.GraphResponse "Current graph"
// @Failure 403 {object} api.ErrorResponse "Another user's diary"
// @Security BearerAuth
// @Router /api/v1/sessions/{username} [get]

// DispatchCommand runs an editing command
// @Summary Run editing command
// @Description Dispatches a command envelope. Types: create_node, edit_node, toggle_collapse, delete_nodes, delete_edges, delete_selection, connect_nodes, ask_llm, chained_query, cancel_enrichment, clear_highlight, save_now
// @Tags sessions
// @Accept json
// @Produce json
// @Param username path string true "Diary owner"
// @Param request body api.CommandEnvelope true "Command"
// @Success 200 {object} api.CommandResponse "Command applied"
// @Success 201 {object} api.CommandResponse "Node created"
// @Success 202 {object} api.CommandResponse "Enrichment started"
// @Failure 400 {object} api.ErrorResponse "Invalid command"
// @Failure 404 {object} api.ErrorResponse "Node, edge or operation not found"
// @Failure 422 {object} api.ErrorResponse "Node has no ancestors"
// @Failure 423 {object} api.ErrorResponse "Node is locked by a running enrichment"
// @Security BearerAuth
// @Router /api/v1/sessions/{username}/commands [post]

// Pointer reports a pointer gesture
// @Summary Report pointer gesture
// @Tags sessions
// @Accept json
// @Produce json
// @Param username path string true "Diary owner"
// @Param request body api.PointerEvent true "Gesture"
// @Success 200 {object} api.CommandResponse "Interaction state and selection"
// @Failure 400 {object} api.ErrorResponse "Invalid gesture"
// @Security BearerAuth
// @Router /api/v1/sessions/{username}/pointer [post]

// CloseSession closes the session
// @Summary Close session
// @Description Rolls back running enrichments and saves any pending edit
// @Tags sessions
// @Param username path string true "Diary owner"
// @Success 204 "Session closed"
// @Failure 404 {object} api.ErrorResponse "No open session"
// @Security BearerAuth
// @Router /api/v1/sessions/{username} [delete]

// Connect upgrades to a websocket
// @Summary Subscribe to session updates
// @Description Pushes a GRAPH message on every change and NOTIFICATION messages for the user
// @Tags sessions
// @Param username path string true "Diary owner"
// @Param token query string false "Bearer token"
// @Success 101 "Switching protocols"
// @Router /api/v1/sessions/{username}/ws [get]
