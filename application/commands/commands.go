package commands

import (
	"math"
	"strings"

	"cognitivediary/application/interaction"
	pkgerrors "cognitivediary/pkg/errors"
)

// CreateNode adds a node at a canvas position. Think asks the model about
// the new node straight away; Annotation creates an unconnectable text
// block.
type CreateNode struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Content    string  `json:"content" validate:"required,max=50000"`
	Annotation bool    `json:"annotation"`
	Think      bool    `json:"think"`
}

// Validate validates the command
func (c CreateNode) Validate() error {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
		return pkgerrors.NewValidation("position must be finite")
	}
	if strings.TrimSpace(c.Content) == "" {
		return pkgerrors.NewValidation("content cannot be blank")
	}
	if c.Annotation && c.Think {
		return pkgerrors.NewValidation("annotations cannot be sent to the model")
	}
	return nil
}

// EditNode replaces the content and optionally the width of a node
type EditNode struct {
	NodeID  string   `json:"node_id" validate:"required"`
	Content *string  `json:"content" validate:"omitempty,max=50000"`
	Width   *float64 `json:"width" validate:"omitempty,gt=0"`
}

// Validate validates the command
func (c EditNode) Validate() error {
	if c.Content == nil && c.Width == nil {
		return pkgerrors.NewValidation("nothing to edit")
	}
	return nil
}

// ToggleCollapse flips a node between its full and collapsed rendering
type ToggleCollapse struct {
	NodeID string `json:"node_id" validate:"required"`
}

// Validate validates the command
func (c ToggleCollapse) Validate() error { return nil }

// DeleteNodes removes nodes and their edges. The batch is refused if any
// node is locked.
type DeleteNodes struct {
	NodeIDs []string `json:"node_ids" validate:"required,min=1,dive,required"`
}

// Validate validates the command
func (c DeleteNodes) Validate() error { return nil }

// DeleteEdges removes edges
type DeleteEdges struct {
	EdgeIDs []string `json:"edge_ids" validate:"required,min=1,dive,required"`
}

// Validate validates the command
func (c DeleteEdges) Validate() error { return nil }

// DeleteSelection removes the selected nodes, or the selected edges when no
// node is selected.
type DeleteSelection struct{}

// Validate validates the command
func (c DeleteSelection) Validate() error { return nil }

// ConnectNodes draws a user edge from Source to Target
type ConnectNodes struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// Validate validates the command
func (c ConnectNodes) Validate() error {
	if c.Source == c.Target {
		return pkgerrors.NewValidation("cannot connect node to itself")
	}
	return nil
}

// AskLLM asks the model about a single node
type AskLLM struct {
	NodeID string `json:"node_id" validate:"required"`
}

// Validate validates the command
func (c AskLLM) Validate() error { return nil }

// ChainedQuery asks the model about a node in the context of every node
// that leads to it.
type ChainedQuery struct {
	NodeID string `json:"node_id" validate:"required"`
}

// Validate validates the command
func (c ChainedQuery) Validate() error { return nil }

// CancelEnrichment aborts a running ask or chained query
type CancelEnrichment struct {
	OperationID string `json:"operation_id" validate:"required,uuid"`
}

// Validate validates the command
func (c CancelEnrichment) Validate() error { return nil }

// ClearHighlight removes the chain highlight
type ClearHighlight struct{}

// Validate validates the command
func (c ClearHighlight) Validate() error { return nil }

// SaveNow saves immediately and tells the user the outcome
type SaveNow struct{}

// Validate validates the command
func (c SaveNow) Validate() error { return nil }

// Pointer feeds a pointer gesture to the interaction state machine
type Pointer struct {
	Event interaction.Event `json:"-"`
}

// Validate validates the command
func (c Pointer) Validate() error {
	if c.Event == nil {
		return pkgerrors.NewValidation("pointer event is required")
	}
	return nil
}
