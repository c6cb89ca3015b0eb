package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cognitivediary/application/chat"
	"cognitivediary/application/editor"
	"cognitivediary/application/ports"
	domainconfig "cognitivediary/domain/config"
	"cognitivediary/infrastructure/config"
	"cognitivediary/infrastructure/llm"
	"cognitivediary/infrastructure/messaging/eventbridge"
	"cognitivediary/infrastructure/observability"
	"cognitivediary/infrastructure/persistence/dynamodb"
	"cognitivediary/infrastructure/persistence/memory"
	"cognitivediary/infrastructure/persistence/sqlite"
	"cognitivediary/interfaces/http/rest"
	"cognitivediary/interfaces/http/rest/handlers"
	"cognitivediary/interfaces/websocket"
	"cognitivediary/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideClock provides the wall clock
func ProvideClock() ports.Clock {
	return ports.SystemClock{}
}

// ProvideTuning loads the domain rules and, when a tuning file is set,
// watches it for changes
func ProvideTuning(cfg *config.Config, logger *zap.Logger) (*config.TuningWatcher, func(), error) {
	base := domainconfig.LoadDomainConfig(cfg.Environment)
	base.EnrichmentTimeout = cfg.EnrichmentTimeout
	base.MinSaveInterval = cfg.SaveMinInterval
	if err := base.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid domain rules: %w", err)
	}

	watcher, err := config.NewTuningWatcher(cfg.TuningFile, base, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(c *domainconfig.DomainConfig) {
		logger.Info("Domain rules reloaded",
			zap.Duration("enrichment_timeout", c.EnrichmentTimeout),
			zap.Duration("min_save_interval", c.MinSaveInterval))
	})
	watcher.Start()
	return watcher, watcher.Stop, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideSnapshotRepository selects the storage backend
func ProvideSnapshotRepository(
	ctx context.Context,
	cfg *config.Config,
	client *awsdynamodb.Client,
	clock ports.Clock,
	logger *zap.Logger,
) (ports.SnapshotRepository, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageDynamoDB:
		logger.Info("Using DynamoDB snapshot storage", zap.String("table", cfg.DynamoDBTable))
		return dynamodb.NewSnapshotRepository(client, cfg.DynamoDBTable, clock, logger), func() {}, nil
	case config.StorageSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath, clock, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using SQLite snapshot storage", zap.String("path", cfg.SQLitePath))
		return repo, func() { _ = repo.Close() }, nil
	default:
		logger.Warn("Using in-memory snapshot storage; diaries are lost on restart")
		return memory.NewSnapshotRepository(clock), func() {}, nil
	}
}

// ProvideEventPublisher publishes domain events to EventBridge when
// enabled. A nil publisher turns publishing off.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideOperationStore creates an operation store for enrichment tracking
func ProvideOperationStore(clock ports.Clock) (ports.OperationStore, func()) {
	store := memory.NewOperationStore(time.Hour, 10*time.Minute, clock)
	return store, store.Stop
}

// ProvideCompletionProvider creates the upstream model client
func ProvideCompletionProvider(cfg *config.Config, logger *zap.Logger) *llm.Provider {
	return llm.NewProvider(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.EnrichmentTimeout + 5*time.Second,
	}, &http.Client{}, logger)
}

// ProvideChatService answers /chat and /chain_chat. Sessions hosted in the
// same process call it directly.
func ProvideChatService(provider *llm.Provider, logger *zap.Logger) *chat.Service {
	return chat.NewService(provider, logger)
}

// ProvideCollector creates the Prometheus collector, or nil when metrics
// are off
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("cognitive_diary")
}

// ProvideMetrics adapts the collector to the application port
func ProvideMetrics(collector *observability.Collector) ports.Metrics {
	if collector == nil {
		return ports.NopMetrics{}
	}
	return collector
}

// ProvideTracing installs the tracer provider
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.Tracing, func(), error) {
	tracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.EnableTracing,
		ServiceName: "cognitive-diary",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  1.0,
	})
	if err != nil {
		return nil, nil, err
	}
	return tracing, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}, nil
}

// ProvideHub creates the websocket hub. The caller runs it.
func ProvideHub(logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(logger)
}

// ProvideRegistry creates the session registry
func ProvideRegistry(
	repo ports.SnapshotRepository,
	chatService *chat.Service,
	hub *websocket.Hub,
	publisher ports.EventPublisher,
	operations ports.OperationStore,
	metrics ports.Metrics,
	clock ports.Clock,
	tuning *config.TuningWatcher,
	logger *zap.Logger,
) *editor.Registry {
	return editor.NewRegistry(editor.Dependencies{
		Repo:       repo,
		LLM:        chatService,
		Notifier:   hub,
		Publisher:  publisher,
		Operations: operations,
		Metrics:    metrics,
		Clock:      clock,
		Tuning:     tuning.Current,
	}, logger)
}

// ProvideJWTService creates the token validator, or nil when no secret is
// configured
func ProvideJWTService(cfg *config.Config, logger *zap.Logger) (*auth.JWTService, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; requests are not authenticated")
		return nil, nil
	}
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideRouter assembles the HTTP handler
func ProvideRouter(
	cfg *config.Config,
	repo ports.SnapshotRepository,
	chatService *chat.Service,
	registry *editor.Registry,
	hub *websocket.Hub,
	operations ports.OperationStore,
	collector *observability.Collector,
	jwt *auth.JWTService,
	logger *zap.Logger,
) http.Handler {
	var origins []string
	if cfg.EnableCORS {
		origins = rest.DefaultAllowedOrigins
	}
	var checkOrigin func(*http.Request) bool
	if cfg.IsProduction() {
		checkOrigin = sameOrigin
	}

	router := rest.NewRouter(rest.Dependencies{
		Backend:     handlers.NewBackendHandler(repo, chatService, logger),
		Sessions:    handlers.NewSessionHandler(registry, websocket.NewServer(hub, checkOrigin, logger), logger),
		Operations:  handlers.NewOperationHandler(operations, logger),
		Metrics:     collector,
		Auth:        jwt,
		CORSOrigins: origins,
		Ready: func(ctx context.Context) error {
			_, _, err := repo.Load(ctx, "__readiness__")
			return err
		},
	}, logger)
	return router.Setup()
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == "https://"+r.Host || origin == "http://"+r.Host
}
