// Package di wires the diary service together.
package di

import (
	"net/http"

	"cognitivediary/application/chat"
	"cognitivediary/application/editor"
	"cognitivediary/application/ports"
	"cognitivediary/infrastructure/config"
	"cognitivediary/infrastructure/observability"
	"cognitivediary/interfaces/websocket"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Tuning         *config.TuningWatcher
	Repo           ports.SnapshotRepository
	Publisher      ports.EventPublisher
	OperationStore ports.OperationStore
	Chat           *chat.Service
	Collector      *observability.Collector
	Tracing        *observability.Tracing
	Hub            *websocket.Hub
	Registry       *editor.Registry
	Handler        http.Handler
}
