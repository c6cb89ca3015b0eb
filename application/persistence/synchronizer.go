package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/application/store"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/events"
	"cognitivediary/domain/services"
	pkgerrors "cognitivediary/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const saveTimeout = 15 * time.Second

// Save outcomes reported to metrics
const (
	OutcomeSaved   = "saved"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// SaveOptions tunes a single save
type SaveOptions struct {
	// Announce sends a success notification, used for saves the user asked for.
	Announce bool
}

// Synchronizer keeps one user's graph in step with the snapshot repository.
// At most one save is in flight at a time and saves closer together than
// the minimum interval are dropped, not queued.
type Synchronizer struct {
	username    string
	repo        ports.SnapshotRepository
	notifier    ports.Notifier
	publisher   ports.EventPublisher
	metrics     ports.Metrics
	clock       ports.Clock
	minInterval func() time.Duration
	logger      *zap.Logger

	inflight  *semaphore.Weighted
	mu        sync.Mutex
	lastStart time.Time
	dirty     atomic.Bool
	scheduled sync.WaitGroup

	loadOnce     sync.Once
	bootstrapped atomic.Bool
}

// Options bundles the optional collaborators of a Synchronizer
type Options struct {
	Publisher   ports.EventPublisher
	Metrics     ports.Metrics
	Clock       ports.Clock
	MinInterval func() time.Duration
}

// NewSynchronizer creates a synchronizer for username
func NewSynchronizer(username string, repo ports.SnapshotRepository, notifier ports.Notifier, opts Options, logger *zap.Logger) *Synchronizer {
	if opts.Metrics == nil {
		opts.Metrics = ports.NopMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.MinInterval == nil {
		opts.MinInterval = func() time.Duration { return 50 * time.Millisecond }
	}
	return &Synchronizer{
		username:    username,
		repo:        repo,
		notifier:    notifier,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		clock:       opts.Clock,
		minInterval: opts.MinInterval,
		logger:      logger.With(zap.String("username", username)),
		inflight:    semaphore.NewWeighted(1),
	}
}

// Save writes g to the repository. It returns a SaveConflict error when
// the request was dropped because another save is running or the previous
// one started less than the minimum interval ago.
func (s *Synchronizer) Save(ctx context.Context, g *aggregates.Graph, opts SaveOptions) error {
	if !s.inflight.TryAcquire(1) {
		return s.skip(g, "save already in flight")
	}
	defer s.inflight.Release(1)

	s.mu.Lock()
	now := s.clock.Now()
	if !s.lastStart.IsZero() && now.Sub(s.lastStart) < s.minInterval() {
		s.mu.Unlock()
		return s.skip(g, "save interval not elapsed")
	}
	s.lastStart = now
	s.mu.Unlock()

	return s.write(ctx, g, opts)
}

// Flush saves g even inside the minimum interval, waiting for any save in
// flight first. Used when a session closes so the last edit is not lost.
func (s *Synchronizer) Flush(ctx context.Context, g *aggregates.Graph) error {
	s.scheduled.Wait()
	if !s.dirty.Load() {
		return nil
	}
	if err := s.inflight.Acquire(ctx, 1); err != nil {
		return pkgerrors.NewTimeout("waiting for save in flight", err)
	}
	defer s.inflight.Release(1)

	s.mu.Lock()
	s.lastStart = s.clock.Now()
	s.mu.Unlock()

	return s.write(ctx, g, SaveOptions{})
}

// Schedule saves g in the background. The caller is never blocked.
func (s *Synchronizer) Schedule(g *aggregates.Graph) {
	s.scheduled.Add(1)
	go func() {
		defer s.scheduled.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_ = s.Save(ctx, g, SaveOptions{})
	}()
}

// Wait blocks until every scheduled save has finished
func (s *Synchronizer) Wait() {
	s.scheduled.Wait()
}

// Dirty reports whether the latest requested save was dropped or failed
func (s *Synchronizer) Dirty() bool {
	return s.dirty.Load()
}

func (s *Synchronizer) skip(g *aggregates.Graph, reason string) error {
	s.dirty.Store(true)
	s.metrics.RecordSave(OutcomeSkipped, 0)
	s.logger.Info("Save skipped",
		zap.String("reason", reason),
		zap.Int("graph_version", g.Version()))
	return pkgerrors.NewSaveConflict(reason)
}

func (s *Synchronizer) write(ctx context.Context, g *aggregates.Graph, opts SaveOptions) error {
	start := time.Now()
	savedAt, err := s.repo.Save(ctx, s.username, services.Persistable(g))
	if err != nil {
		s.dirty.Store(true)
		s.metrics.RecordSave(OutcomeFailed, time.Since(start))
		s.logger.Error("Failed to save graph",
			zap.Int("nodes", g.NodeCount()),
			zap.Int("edges", g.EdgeCount()),
			zap.Error(err))
		s.notifier.Notify(ctx, s.username, ports.Notification{
			Level:   ports.NotificationError,
			Kind:    pkgerrors.TypeOf(err),
			Message: "Save failed: " + err.Error(),
		})
		return err
	}

	s.dirty.Store(false)
	s.metrics.RecordSave(OutcomeSaved, time.Since(start))
	s.logger.Debug("Graph saved",
		zap.Int("graph_version", g.Version()),
		zap.Time("saved_at", savedAt))
	if opts.Announce {
		s.notifier.Notify(ctx, s.username, ports.Notification{Level: ports.NotificationInfo, Message: "Saved"})
	}
	s.publish(ctx, events.NewGraphSaved(s.username, g.Version(), savedAt))
	return nil
}

// LoadResult describes how a session was bootstrapped
type LoadResult struct {
	Starter     bool
	LastUpdated time.Time
}

// Load installs the user's saved graph into st, or the starter graph when
// nothing has been saved. It runs once; later calls return immediately. A
// failed load still completes the bootstrap with the starter graph and is
// reported to the user.
func (s *Synchronizer) Load(ctx context.Context, st *store.GraphStore, alloc *services.IDAllocator) (LoadResult, error) {
	var (
		result LoadResult
		err    error
	)
	s.loadOnce.Do(func() {
		defer s.bootstrapped.Store(true)
		result, err = s.load(ctx, st, alloc)
	})
	return result, err
}

// Bootstrapped reports whether Load has run
func (s *Synchronizer) Bootstrapped() bool {
	return s.bootstrapped.Load()
}

func (s *Synchronizer) load(ctx context.Context, st *store.GraphStore, alloc *services.IDAllocator) (LoadResult, error) {
	snap, found, err := s.repo.Load(ctx, s.username)
	if err != nil {
		s.logger.Error("Failed to load graph", zap.Error(err))
		s.notifier.Notify(ctx, s.username, ports.Notification{
			Level:   ports.NotificationError,
			Kind:    pkgerrors.TypeOf(err),
			Message: "Load failed: " + err.Error(),
		})
		// The user still gets a working canvas.
		g := aggregates.StarterGraph()
		st.Replace(g)
		alloc.Observe(g)
		return LoadResult{Starter: true}, err
	}

	g := snap.Graph
	result := LoadResult{LastUpdated: snap.LastUpdated}
	if !found || g == nil {
		g = aggregates.StarterGraph()
		result = LoadResult{Starter: true}
	}

	g = services.Persistable(g)
	st.Replace(g)
	alloc.Observe(g)
	s.logger.Info("Graph loaded",
		zap.Bool("starter", result.Starter),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()))
	s.publish(ctx, events.NewGraphLoaded(s.username, g.NodeCount(), g.EdgeCount(), result.Starter))
	return result, nil
}

func (s *Synchronizer) publish(ctx context.Context, evt events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", evt.EventType()),
			zap.Error(err))
	}
}
