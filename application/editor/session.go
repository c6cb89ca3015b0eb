// Package editor assembles the per-user editing session: the graph store,
// the id allocator, persistence, enrichment and pointer interaction, all
// driven through one command bus.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cognitivediary/application/commands/bus"
	"cognitivediary/application/commands/handlers"
	"cognitivediary/application/enrichment"
	"cognitivediary/application/interaction"
	"cognitivediary/application/persistence"
	"cognitivediary/application/ports"
	"cognitivediary/application/store"
	"cognitivediary/domain/config"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/services"

	"go.uber.org/zap"
)

// Dependencies are shared by every session of a process
type Dependencies struct {
	Repo       ports.SnapshotRepository
	LLM        ports.LLMClient
	Notifier   ports.Notifier
	Publisher  ports.EventPublisher
	Operations ports.OperationStore
	Metrics    ports.Metrics
	Clock      ports.Clock
	// Tuning returns the current domain rules; it is read on every
	// operation so reloaded values apply to the next request.
	Tuning func() *config.DomainConfig
}

// Session is one user's live editing state
type Session struct {
	username     string
	store        *store.GraphStore
	allocator    *services.IDAllocator
	sync         *persistence.Synchronizer
	orchestrator *enrichment.Orchestrator
	bus          *bus.CommandBus
	logger       *zap.Logger
}

// NewSession wires a session for username. Nothing is loaded until
// Bootstrap is called.
func NewSession(username string, deps Dependencies, logger *zap.Logger) (*Session, error) {
	if deps.Repo == nil || deps.LLM == nil || deps.Notifier == nil {
		return nil, errors.New("editor session requires a repository, an LLM client and a notifier")
	}
	if deps.Tuning == nil {
		deps.Tuning = config.DefaultDomainConfig
	}
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}
	logger = logger.With(zap.String("username", username))

	st := store.NewGraphStore(nil)
	st.Subscribe(func(g *aggregates.Graph) {
		deps.Notifier.GraphChanged(context.Background(), username, g)
	})
	alloc := services.NewIDAllocator()

	syncer := persistence.NewSynchronizer(username, deps.Repo, deps.Notifier, persistence.Options{
		Publisher:   deps.Publisher,
		Metrics:     deps.Metrics,
		Clock:       deps.Clock,
		MinInterval: func() time.Duration { return deps.Tuning().MinSaveInterval },
	}, logger)

	orch := enrichment.NewOrchestrator(username, enrichment.Dependencies{
		Store:      st,
		Allocator:  alloc,
		LLM:        deps.LLM,
		Saver:      syncer,
		Notifier:   deps.Notifier,
		Publisher:  deps.Publisher,
		Operations: deps.Operations,
		Metrics:    deps.Metrics,
		Settings:   func() enrichment.Settings { return SettingsFrom(deps.Tuning()) },
	}, logger)

	b := bus.NewCommandBus(bus.RecoveryMiddleware(logger), bus.LoggingMiddleware(logger))
	h := handlers.New(handlers.Dependencies{
		Username:  username,
		Store:     st,
		Allocator: alloc,
		Enricher:  orch,
		Persister: syncer,
		Machine:   interaction.NewMachine(),
		Publisher: deps.Publisher,
		Metrics:   deps.Metrics,
		Config:    deps.Tuning,
	}, logger)
	if err := h.Register(b); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}

	return &Session{
		username:     username,
		store:        st,
		allocator:    alloc,
		sync:         syncer,
		orchestrator: orch,
		bus:          b,
		logger:       logger,
	}, nil
}

// SettingsFrom converts domain rules into enrichment settings
func SettingsFrom(cfg *config.DomainConfig) enrichment.Settings {
	return enrichment.Settings{
		Timeout:            cfg.EnrichmentTimeout,
		Temperature:        cfg.Temperature,
		MaxTokens:          cfg.MaxTokens,
		DefaultNodeWidth:   cfg.DefaultNodeWidth,
		TransientGap:       cfg.TransientGap,
		ThinkingLabel:      cfg.ThinkingLabel,
		ChainThinkingLabel: cfg.ChainThinkingLabel,
	}
}

// Username returns the owner of the session
func (s *Session) Username() string { return s.username }

// Bootstrap loads the user's graph once. A failed load leaves the session
// usable with an empty graph and returns the error.
func (s *Session) Bootstrap(ctx context.Context) (persistence.LoadResult, error) {
	return s.sync.Load(ctx, s.store, s.allocator)
}

// Bootstrapped reports whether the initial load has run
func (s *Session) Bootstrapped() bool {
	return s.sync.Bootstrapped()
}

// Snapshot returns the current graph
func (s *Session) Snapshot() *aggregates.Graph {
	return s.store.Snapshot()
}

// Dispatch runs a command against the session
func (s *Session) Dispatch(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return s.bus.Send(ctx, cmd)
}

// InFlight returns the number of running enrichments
func (s *Session) InFlight() int {
	return s.orchestrator.InFlight()
}

// Settle waits for every running enrichment and scheduled save
func (s *Session) Settle() {
	s.orchestrator.Wait()
	s.sync.Wait()
}

// Close rolls back running enrichments and flushes any save that was
// dropped, so the last edit reaches storage.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if err := s.orchestrator.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("enrichments did not stop: %w", err))
	}
	s.sync.Wait()
	if s.sync.Bootstrapped() {
		if err := s.sync.Flush(ctx, s.store.Snapshot()); err != nil {
			errs = append(errs, fmt.Errorf("final save failed: %w", err))
		}
	}
	s.logger.Info("Session closed", zap.Bool("clean", len(errs) == 0))
	return errors.Join(errs...)
}
