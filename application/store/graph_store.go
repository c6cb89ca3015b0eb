package store

import (
	"sync"

	"cognitivediary/domain/core/aggregates"
)

// Observer is told about every new snapshot. Observers run while the store
// is held and must not call back into it.
type Observer func(g *aggregates.Graph)

// GraphStore holds the current snapshot of one editing session. All
// mutation goes through Update, which serializes writers, so a mutation
// always sees the result of the previous one.
type GraphStore struct {
	mu        sync.Mutex
	current   *aggregates.Graph
	observers []Observer
}

// NewGraphStore creates a store holding initial, or an empty graph
func NewGraphStore(initial *aggregates.Graph) *GraphStore {
	if initial == nil {
		initial = aggregates.NewGraph()
	}
	return &GraphStore{current: initial}
}

// Snapshot returns the current graph
func (s *GraphStore) Snapshot() *aggregates.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies fn to the current graph. If fn fails the store is left
// unchanged and the error is returned. The resulting snapshot is returned
// either way.
func (s *GraphStore) Update(fn func(g *aggregates.Graph) (*aggregates.Graph, error)) (*aggregates.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.current)
	if err != nil {
		return s.current, err
	}
	if next == nil || next == s.current {
		return s.current, nil
	}
	s.current = next
	for _, o := range s.observers {
		o(next)
	}
	return next, nil
}

// Replace installs g wholesale, used when a saved graph is loaded
func (s *GraphStore) Replace(g *aggregates.Graph) {
	_, _ = s.Update(func(*aggregates.Graph) (*aggregates.Graph, error) {
		return g, nil
	})
}

// Subscribe registers an observer for future snapshots
func (s *GraphStore) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}
