// Package memory provides in-process implementations of the storage ports,
// used in development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/infrastructure/persistence"
)

type storedDocument struct {
	data        []byte
	lastUpdated time.Time
}

// SnapshotRepository keeps encoded snapshots in a map
type SnapshotRepository struct {
	mu    sync.RWMutex
	docs  map[string]storedDocument
	clock ports.Clock
}

// NewSnapshotRepository creates an empty repository
func NewSnapshotRepository(clock ports.Clock) *SnapshotRepository {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SnapshotRepository{docs: make(map[string]storedDocument), clock: clock}
}

// Save replaces the user's snapshot
func (r *SnapshotRepository) Save(ctx context.Context, username string, g *aggregates.Graph) (time.Time, error) {
	data, err := persistence.Encode(g)
	if err != nil {
		return time.Time{}, err
	}
	now := r.clock.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[username] = storedDocument{data: data, lastUpdated: now}
	return now, nil
}

// Load returns the user's snapshot, found=false if none was saved
func (r *SnapshotRepository) Load(ctx context.Context, username string) (ports.StoredSnapshot, bool, error) {
	r.mu.RLock()
	doc, ok := r.docs[username]
	r.mu.RUnlock()
	if !ok {
		return ports.StoredSnapshot{}, false, nil
	}
	g, err := persistence.Decode(doc.data)
	if err != nil {
		return ports.StoredSnapshot{}, false, err
	}
	return ports.StoredSnapshot{Graph: g, LastUpdated: doc.lastUpdated}, true, nil
}

// Users lists users with a stored snapshot
func (r *SnapshotRepository) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.docs))
	for u := range r.docs {
		users = append(users, u)
	}
	return users
}
