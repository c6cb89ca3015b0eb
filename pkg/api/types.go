// Package api defines the JSON contracts shared by the backend endpoints
// and the editor. Node and edge shapes follow the flow-canvas format the
// editor renders, so saved graphs load back unchanged.
package api

import "encoding/json"

// Node types understood by the canvas
const (
	NodeTypeThought    = "custom"
	NodeTypeAnnotation = "textBlock"
)

// Edge rendering defaults
const (
	EdgeTypeSmoothStep  = "smoothstep"
	MarkerArrowClosed   = "arrowclosed"
	ChainEdgeClassName  = "chain-edge-animated"
	DefaultMarkerColour = "rgb(102, 178, 255)"
)

// XY is a canvas coordinate
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the per-node payload rendered by the canvas
type NodeData struct {
	Label         string `json:"label"`
	IsLocked      bool   `json:"isLocked,omitempty"`
	IsHighlighted bool   `json:"isHighlighted,omitempty"`
	IsCollapsed   bool   `json:"isCollapsed,omitempty"`
}

// Node is a canvas node
type Node struct {
	ID       string   `json:"id" validate:"required"`
	Type     string   `json:"type,omitempty"`
	Position XY       `json:"position"`
	Data     NodeData `json:"data"`
	Width    float64  `json:"width,omitempty"`
}

// EdgeStyle is the SVG style of an edge
type EdgeStyle struct {
	Stroke          string  `json:"stroke,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
}

// Marker is an edge arrow head
type Marker struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

// EdgeData carries the edge kind, which the canvas ignores
type EdgeData struct {
	Kind string `json:"kind,omitempty"`
}

// Edge is a canvas edge
type Edge struct {
	ID        string     `json:"id" validate:"required"`
	Source    string     `json:"source" validate:"required"`
	Target    string     `json:"target" validate:"required"`
	Type      string     `json:"type,omitempty"`
	Animated  bool       `json:"animated,omitempty"`
	Style     *EdgeStyle `json:"style,omitempty"`
	MarkerEnd *Marker    `json:"markerEnd,omitempty"`
	ClassName string     `json:"className,omitempty"`
	Data      *EdgeData  `json:"data,omitempty"`
}

// SaveDataRequest is the body of POST /save-data
type SaveDataRequest struct {
	Username string `json:"username" validate:"required"`
	Nodes    []Node `json:"nodes" validate:"dive"`
	Edges    []Edge `json:"edges" validate:"dive"`
}

// SaveDataResponse acknowledges a save
type SaveDataResponse struct {
	Status      string `json:"status"`
	LastUpdated string `json:"last_updated"`
}

// LoadDataResponse is the body of GET /load-data/{username}. Empty is set
// for a user who has never saved.
type LoadDataResponse struct {
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
	LastUpdated string `json:"last_updated,omitempty"`
	Empty       bool   `json:"empty,omitempty"`
}

// ChatResponse is the body returned by /chat and /chain_chat
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// GraphResponse is a session snapshot
type GraphResponse struct {
	Username string `json:"username"`
	Version  int    `json:"version"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
}

// CommandEnvelope carries one editing command to a session
type CommandEnvelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PointerEvent is one pointer gesture reported by the editor
type PointerEvent struct {
	Type     string   `json:"type" validate:"required,oneof=node_down edge_down blank_down rect_release drag_start drag_move drag_end"`
	NodeID   string   `json:"nodeId,omitempty"`
	EdgeID   string   `json:"edgeId,omitempty"`
	NodeIDs  []string `json:"nodeIds,omitempty"`
	Position *XY      `json:"position,omitempty"`
	Additive bool     `json:"additive,omitempty"`
}

// CommandResponse is the outcome of a session command. Version is the
// graph version after the command ran.
type CommandResponse struct {
	Type    string      `json:"type"`
	Result  interface{} `json:"result,omitempty"`
	Version int         `json:"version"`
}
