package events

import (
	"time"

	"github.com/google/uuid"
)

// Event sources
const (
	SourceEditor = "cognitivediary.editor"
)

// Event types
const (
	TypeGraphLoaded         = "graph.loaded"
	TypeGraphSaved          = "graph.saved"
	TypeNodesDeleted        = "nodes.deleted"
	TypeEnrichmentStarted   = "enrichment.started"
	TypeEnrichmentCompleted = "enrichment.completed"
	TypeEnrichmentFailed    = "enrichment.failed"
	TypeHighlightApplied    = "highlight.applied"
	TypeHighlightCleared    = "highlight.cleared"
)

// DomainEvent is something that happened in an editing session
type DomainEvent interface {
	EventID() string
	EventType() string
	// AggregateID is the username owning the graph.
	AggregateID() string
	Timestamp() time.Time
}

// BaseEvent carries the fields shared by every event
type BaseEvent struct {
	ID         string    `json:"eventId"`
	Type       string    `json:"eventType"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"timestamp"`
}

func newBase(eventType, username string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Username:   username,
		OccurredAt: time.Now(),
	}
}

// EventID returns the unique event identifier
func (e BaseEvent) EventID() string { return e.ID }

// EventType returns the event type
func (e BaseEvent) EventType() string { return e.Type }

// AggregateID returns the owning username
func (e BaseEvent) AggregateID() string { return e.Username }

// Timestamp returns when the event happened
func (e BaseEvent) Timestamp() time.Time { return e.OccurredAt }

// GraphLoaded is raised once per session bootstrap
type GraphLoaded struct {
	BaseEvent
	NodeCount int  `json:"nodeCount"`
	EdgeCount int  `json:"edgeCount"`
	Starter   bool `json:"starter"`
}

// NewGraphLoaded creates a GraphLoaded event
func NewGraphLoaded(username string, nodeCount, edgeCount int, starter bool) GraphLoaded {
	return GraphLoaded{BaseEvent: newBase(TypeGraphLoaded, username), NodeCount: nodeCount, EdgeCount: edgeCount, Starter: starter}
}

// GraphSaved is raised after the remote store acknowledged a snapshot
type GraphSaved struct {
	BaseEvent
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
}

// NewGraphSaved creates a GraphSaved event
func NewGraphSaved(username string, version int, savedAt time.Time) GraphSaved {
	return GraphSaved{BaseEvent: newBase(TypeGraphSaved, username), Version: version, SavedAt: savedAt}
}

// NodesDeleted is raised when the user removes nodes
type NodesDeleted struct {
	BaseEvent
	NodeIDs []string `json:"nodeIds"`
}

// NewNodesDeleted creates a NodesDeleted event
func NewNodesDeleted(username string, nodeIDs []string) NodesDeleted {
	return NodesDeleted{BaseEvent: newBase(TypeNodesDeleted, username), NodeIDs: nodeIDs}
}

// EnrichmentStarted is raised once nodes are locked and the request is sent
type EnrichmentStarted struct {
	BaseEvent
	OperationID string   `json:"operationId"`
	Kind        string   `json:"kind"`
	SourceID    string   `json:"sourceId"`
	TransientID string   `json:"transientId"`
	LockedIDs   []string `json:"lockedIds"`
}

// NewEnrichmentStarted creates an EnrichmentStarted event
func NewEnrichmentStarted(username, operationID, kind, sourceID, transientID string, locked []string) EnrichmentStarted {
	return EnrichmentStarted{
		BaseEvent:   newBase(TypeEnrichmentStarted, username),
		OperationID: operationID,
		Kind:        kind,
		SourceID:    sourceID,
		TransientID: transientID,
		LockedIDs:   locked,
	}
}

// EnrichmentFinished is raised when an enrichment commits or rolls back
type EnrichmentFinished struct {
	BaseEvent
	OperationID string        `json:"operationId"`
	Kind        string        `json:"kind"`
	NodeID      string        `json:"nodeId"`
	Duration    time.Duration `json:"durationNs"`
	Error       string        `json:"error,omitempty"`
}

// NewEnrichmentCompleted creates an event for a committed enrichment
func NewEnrichmentCompleted(username, operationID, kind, nodeID string, d time.Duration) EnrichmentFinished {
	return EnrichmentFinished{BaseEvent: newBase(TypeEnrichmentCompleted, username), OperationID: operationID, Kind: kind, NodeID: nodeID, Duration: d}
}

// NewEnrichmentFailed creates an event for a rolled back enrichment
func NewEnrichmentFailed(username, operationID, kind, nodeID string, d time.Duration, err error) EnrichmentFinished {
	e := EnrichmentFinished{BaseEvent: newBase(TypeEnrichmentFailed, username), OperationID: operationID, Kind: kind, NodeID: nodeID, Duration: d}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// HighlightChanged is raised when a chain highlight is applied or cleared
type HighlightChanged struct {
	BaseEvent
	NodeIDs []string `json:"nodeIds,omitempty"`
}

// NewHighlightApplied creates a HighlightChanged event for a new chain
func NewHighlightApplied(username string, nodeIDs []string) HighlightChanged {
	return HighlightChanged{BaseEvent: newBase(TypeHighlightApplied, username), NodeIDs: nodeIDs}
}

// NewHighlightCleared creates a HighlightChanged event for a cleared chain
func NewHighlightCleared(username string) HighlightChanged {
	return HighlightChanged{BaseEvent: newBase(TypeHighlightCleared, username)}
}
