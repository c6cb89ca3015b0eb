//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"cognitivediary/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideClock,
	ProvideTuning,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideSnapshotRepository,
	ProvideEventPublisher,
	ProvideOperationStore,
	ProvideCompletionProvider,
	ProvideChatService,
	ProvideCollector,
	ProvideMetrics,
	ProvideTracing,
	ProvideHub,
	ProvideRegistry,
	ProvideJWTService,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup
// function releases storage, watchers and the tracer.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
