package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "cognitivediary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBreaker_TripsOnUpstreamFailures(t *testing.T) {
	cfg := DefaultBreakerConfig("llm")
	cfg.MinRequests = 2
	cfg.Timeout = time.Hour
	b := NewBreaker(cfg, zap.NewNop())

	boom := pkgerrors.NewNetworkFailure("upstream down", nil)
	for i := 0; i < 2; i++ {
		_, err := b.Execute(func() (interface{}, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	}

	called := false
	_, err := b.Execute(func() (interface{}, error) { called = true; return nil, nil })
	assert.False(t, called)
	assert.True(t, pkgerrors.IsNetworkFailure(err))
	assert.Equal(t, "open", b.State())
}

func TestBreaker_IgnoresCallerErrors(t *testing.T) {
	cfg := DefaultBreakerConfig("backend")
	cfg.MinRequests = 1
	b := NewBreaker(cfg, zap.NewNop())

	callerErrors := []error{
		pkgerrors.NewValidation("bad request"),
		context.Canceled,
		pkgerrors.NewSaveConflict("stale"),
	}
	for _, e := range callerErrors {
		_, err := b.Execute(func() (interface{}, error) { return nil, e })
		assert.True(t, errors.Is(err, e))
	}
	assert.Equal(t, "closed", b.State())
}
