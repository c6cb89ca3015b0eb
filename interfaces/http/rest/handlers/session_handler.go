package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"cognitivediary/application/commands"
	"cognitivediary/application/commands/bus"
	cmdhandlers "cognitivediary/application/commands/handlers"
	"cognitivediary/application/editor"
	"cognitivediary/application/enrichment"
	"cognitivediary/application/interaction"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/interfaces/websocket"
	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// commandDecoders maps envelope types to their command structs
var commandDecoders = map[string]func(json.RawMessage) (bus.Command, error){
	"create_node":       decodeCommand[commands.CreateNode],
	"edit_node":         decodeCommand[commands.EditNode],
	"toggle_collapse":   decodeCommand[commands.ToggleCollapse],
	"delete_nodes":      decodeCommand[commands.DeleteNodes],
	"delete_edges":      decodeCommand[commands.DeleteEdges],
	"delete_selection":  decodeCommand[commands.DeleteSelection],
	"connect_nodes":     decodeCommand[commands.ConnectNodes],
	"ask_llm":           decodeCommand[commands.AskLLM],
	"chained_query":     decodeCommand[commands.ChainedQuery],
	"cancel_enrichment": decodeCommand[commands.CancelEnrichment],
	"clear_highlight":   decodeCommand[commands.ClearHighlight],
	"save_now":          decodeCommand[commands.SaveNow],
}

// SessionHandler serves the editing sessions of the editor host
type SessionHandler struct {
	registry *editor.Registry
	ws       *websocket.Server
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSessionHandler creates a session handler
func NewSessionHandler(registry *editor.Registry, ws *websocket.Server, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		ws:       ws,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetSession handles GET /sessions/{username}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	s, ok := h.open(w, r, username)
	if !ok {
		return
	}
	api.Success(w, http.StatusOK, websocket.GraphPayload(username, s.Snapshot()))
}

// DispatchCommand handles POST /sessions/{username}/commands
func (h *SessionHandler) DispatchCommand(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var env api.CommandEnvelope
	if err := decodeJSON(w, r, h.validate, &env); err != nil {
		respondError(w, h.logger, err)
		return
	}
	decode, known := commandDecoders[env.Type]
	if !known {
		respondError(w, h.logger, pkgerrors.NewValidation(fmt.Sprintf("unknown command type %q", env.Type)))
		return
	}
	cmd, err := decode(env.Payload)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	s, ok := h.open(w, r, username)
	if !ok {
		return
	}
	result, err := s.Dispatch(r.Context(), cmd)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	api.Success(w, commandStatus(result), api.CommandResponse{
		Type:    env.Type,
		Result:  result,
		Version: s.Snapshot().Version(),
	})
}

// Pointer handles POST /sessions/{username}/pointer
func (h *SessionHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req api.PointerEvent
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	evt, err := PointerEventFromAPI(req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	s, ok := h.open(w, r, username)
	if !ok {
		return
	}
	result, err := s.Dispatch(r.Context(), commands.Pointer{Event: evt})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.CommandResponse{
		Type:    "pointer",
		Result:  result,
		Version: s.Snapshot().Version(),
	})
}

// CloseSession handles DELETE /sessions/{username}
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.registry.Close(r.Context(), username); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connect handles GET /sessions/{username}/ws
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	s, ok := h.open(w, r, username)
	if !ok {
		return
	}
	h.ws.Serve(w, r, username, websocket.GraphPayload(username, s.Snapshot()))
}

// open returns the user's session. A failed load still yields a usable
// session, so it is logged and the request goes on.
func (h *SessionHandler) open(w http.ResponseWriter, r *http.Request, username string) (*editor.Session, bool) {
	s, err := h.registry.Open(r.Context(), username)
	if s == nil {
		respondError(w, h.logger, err)
		return nil, false
	}
	if err != nil {
		h.logger.Warn("Session opened without its stored graph",
			zap.String("username", username),
			zap.Error(err))
	}
	return s, true
}

func commandStatus(result interface{}) int {
	switch res := result.(type) {
	case enrichment.Ticket:
		return http.StatusAccepted
	case cmdhandlers.CreateNodeResult:
		if res.Ticket != nil {
			return http.StatusAccepted
		}
		return http.StatusCreated
	default:
		return http.StatusOK
	}
}

func decodeCommand[T bus.Command](payload json.RawMessage) (bus.Command, error) {
	var cmd T
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cmd, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("invalid command payload: %v", err))
	}
	return cmd, nil
}

// PointerEventFromAPI converts a reported gesture into a state machine
// event
func PointerEventFromAPI(p api.PointerEvent) (interaction.Event, error) {
	at := func() (valueobjects.Position, error) {
		if p.Position == nil {
			return valueobjects.Position{}, pkgerrors.NewValidation(p.Type + " requires a position")
		}
		return valueobjects.NewPosition(p.Position.X, p.Position.Y)
	}
	needNode := func() error {
		if p.NodeID == "" {
			return pkgerrors.NewValidation(p.Type + " requires a node id")
		}
		return nil
	}

	switch p.Type {
	case "node_down", "drag_start", "drag_move", "drag_end":
		if err := needNode(); err != nil {
			return nil, err
		}
		pos, err := at()
		if err != nil {
			return nil, err
		}
		id := valueobjects.NodeID(p.NodeID)
		switch p.Type {
		case "node_down":
			return interaction.PointerDownOnNode{NodeID: id, At: pos, Additive: p.Additive}, nil
		case "drag_start":
			return interaction.DragStart{NodeID: id, At: pos}, nil
		case "drag_move":
			return interaction.DragMove{NodeID: id, At: pos}, nil
		default:
			return interaction.DragEnd{NodeID: id, At: pos}, nil
		}
	case "edge_down":
		if p.EdgeID == "" {
			return nil, pkgerrors.NewValidation("edge_down requires an edge id")
		}
		return interaction.PointerDownOnEdge{EdgeID: valueobjects.EdgeID(p.EdgeID), Additive: p.Additive}, nil
	case "blank_down":
		return interaction.PointerDownOnBlank{}, nil
	case "rect_release":
		ids := make([]valueobjects.NodeID, 0, len(p.NodeIDs))
		for _, id := range p.NodeIDs {
			ids = append(ids, valueobjects.NodeID(id))
		}
		return interaction.DragRectangleRelease{NodeIDs: ids}, nil
	default:
		return nil, pkgerrors.NewValidation(fmt.Sprintf("unknown pointer event %q", p.Type))
	}
}
