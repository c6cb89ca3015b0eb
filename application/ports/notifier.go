package ports

import (
	"context"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/events"
	pkgerrors "cognitivediary/pkg/errors"
)

// NotificationLevel grades a user-facing message
type NotificationLevel string

const (
	NotificationInfo  NotificationLevel = "info"
	NotificationError NotificationLevel = "error"
)

// Notification is a message shown to the user of a session
type Notification struct {
	Level   NotificationLevel   `json:"level"`
	Kind    pkgerrors.ErrorType `json:"kind,omitempty"`
	Message string              `json:"message"`
}

// Notifier delivers user-facing messages and fresh snapshots to whoever is
// watching a session.
type Notifier interface {
	Notify(ctx context.Context, username string, n Notification)
	GraphChanged(ctx context.Context, username string, g *aggregates.Graph)
}

// EventPublisher forwards domain events to other systems
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
