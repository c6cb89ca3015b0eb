package enrichment

import (
	"context"
	"time"

	"cognitivediary/domain/core/valueobjects"
)

// Kind distinguishes the two enrichment flows
type Kind string

const (
	KindSingle Kind = "single"
	KindChain  Kind = "chain"
)

// State is a step of an enrichment operation
type State string

const (
	StateClearingPriorHighlight State = "CLEARING_PRIOR_HIGHLIGHT"
	StateTracing                State = "TRACING"
	StateHighlighting           State = "HIGHLIGHTING"
	StateLocking                State = "LOCKING"
	StateAwaitingResponse       State = "AWAITING_RESPONSE"
	StateCommitting             State = "COMMITTING"
	StateRollingBack            State = "ROLLING_BACK"
	StateCompleted              State = "COMPLETED"
	StateRolledBack             State = "ROLLED_BACK"
)

// Settings are read at the start of every operation so tuning changes
// apply to the next request.
type Settings struct {
	Timeout            time.Duration
	Temperature        float64
	MaxTokens          int
	DefaultNodeWidth   float64
	TransientGap       float64
	ThinkingLabel      string
	ChainThinkingLabel string
}

// DefaultSettings mirrors the domain defaults
func DefaultSettings() Settings {
	return Settings{
		Timeout:            30 * time.Second,
		Temperature:        0.7,
		MaxTokens:          1000,
		DefaultNodeWidth:   300,
		TransientGap:       50,
		ThinkingLabel:      "🤔 Thinking...",
		ChainThinkingLabel: "🔗 Chained Thinking...",
	}
}

// Ticket describes an operation that has been started
type Ticket struct {
	OperationID string                `json:"operationId"`
	Kind        Kind                  `json:"kind"`
	SourceID    valueobjects.NodeID   `json:"sourceId"`
	TransientID valueobjects.NodeID   `json:"transientId"`
	LockedIDs   []valueobjects.NodeID `json:"lockedIds"`
}

// operation is the in-flight bookkeeping of one enrichment
type operation struct {
	Ticket
	username  string
	edgeID    valueobjects.EdgeID
	startedAt time.Time
	cancel    context.CancelFunc
	call      func(ctx context.Context) (string, error)
	state     State
}

// involved returns every node the operation holds a lock on
func (op *operation) involved() []valueobjects.NodeID {
	ids := make([]valueobjects.NodeID, 0, len(op.LockedIDs)+1)
	ids = append(ids, op.LockedIDs...)
	return append(ids, op.TransientID)
}
