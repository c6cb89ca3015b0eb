package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pkgerrors "cognitivediary/pkg/errors"

	"go.uber.org/zap"
)

// Registry owns the live sessions of a process, one per user
type Registry struct {
	deps   Dependencies
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry(deps Dependencies, logger *zap.Logger) *Registry {
	return &Registry{
		deps:     deps,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for username, creating and bootstrapping it on
// first use. A load failure is returned together with the usable session.
func (r *Registry) Open(ctx context.Context, username string) (*Session, error) {
	if username == "" {
		return nil, pkgerrors.NewValidation("username is required")
	}

	r.mu.Lock()
	s, ok := r.sessions[username]
	if !ok {
		var err error
		s, err = NewSession(username, r.deps, r.logger)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		r.sessions[username] = s
		r.logger.Info("Session opened", zap.String("username", username))
	}
	r.mu.Unlock()

	if _, err := s.Bootstrap(ctx); err != nil {
		return s, fmt.Errorf("failed to load graph for %s: %w", username, err)
	}
	return s, nil
}

// Lookup returns an open session without creating one
func (r *Registry) Lookup(username string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	return s, ok
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes and forgets the session for username
func (r *Registry) Close(ctx context.Context, username string) error {
	r.mu.Lock()
	s, ok := r.sessions[username]
	delete(r.sessions, username)
	r.mu.Unlock()
	if !ok {
		return pkgerrors.NewNotFound("no session for " + username)
	}
	return s.Close(ctx)
}

// Shutdown closes every session
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.Close(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("session %s: %w", s.Username(), err))
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()
	return errors.Join(errs...)
}
