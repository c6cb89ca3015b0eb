package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cognitivediary/application/ports"
	pkgerrors "cognitivediary/pkg/errors"
)

// OperationStore keeps enrichment operation records in memory and expires
// them after ttl.
type OperationStore struct {
	mu         sync.RWMutex
	operations map[string]*ports.OperationResult
	ttl        time.Duration
	clock      ports.Clock

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewOperationStore creates a store and starts its cleanup routine when
// cleanupEvery is positive.
func NewOperationStore(ttl, cleanupEvery time.Duration, clock ports.Clock) *OperationStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	s := &OperationStore{
		operations: make(map[string]*ports.OperationResult),
		ttl:        ttl,
		clock:      clock,
		stopCh:     make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go s.cleanupRoutine(cleanupEvery)
	}
	return s
}

// Store saves an operation result
func (s *OperationStore) Store(ctx context.Context, result *ports.OperationResult) error {
	if result == nil || result.OperationID == "" {
		return pkgerrors.NewValidation("invalid operation result")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations[result.OperationID] = copyResult(result)
	return nil
}

// Get retrieves an operation result by ID
func (s *OperationStore) Get(ctx context.Context, operationID string) (*ports.OperationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.operations[operationID]
	if !exists || s.isExpired(result) {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("operation not found: %s", operationID))
	}
	return copyResult(result), nil
}

// Update replaces an existing operation result
func (s *OperationStore) Update(ctx context.Context, operationID string, result *ports.OperationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.operations[operationID]; !exists {
		return pkgerrors.NewNotFound(fmt.Sprintf("operation not found: %s", operationID))
	}
	s.operations[operationID] = copyResult(result)
	return nil
}

// Delete removes an operation result
func (s *OperationStore) Delete(ctx context.Context, operationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.operations, operationID)
	return nil
}

// CleanupExpired removes operations started more than olderThan ago
func (s *OperationStore) CleanupExpired(ctx context.Context, olderThan time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for id, op := range s.operations {
		if now.Sub(op.StartedAt) > olderThan {
			delete(s.operations, id)
		}
	}
	return nil
}

// Len returns the number of stored operations, expired or not
func (s *OperationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.operations)
}

// Stop ends the cleanup routine
func (s *OperationStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *OperationStore) isExpired(result *ports.OperationResult) bool {
	return s.ttl > 0 && s.clock.Now().Sub(result.StartedAt) > s.ttl
}

func (s *OperationStore) cleanupRoutine(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background(), s.ttl)
		}
	}
}

func copyResult(r *ports.OperationResult) *ports.OperationResult {
	c := *r
	if r.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
