package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cognitivediary/application/ports"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProvider_Complete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"deeper thought"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "m"}, nil, zap.NewNop())
	answer, err := p.Complete(context.Background(), ports.CompletionRequest{
		Messages:    []ports.CompletionMessage{{Role: "user", Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   1000,
	})

	require.NoError(t, err)
	assert.Equal(t, "deeper thought", answer)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   pkgerrors.ErrorType
	}{
		{"server error", http.StatusBadGateway, `{}`, pkgerrors.ErrorTypeNetworkFailure},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, pkgerrors.ErrorTypeNetworkFailure},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"no"}}`, pkgerrors.ErrorTypeInternal},
		{"no choices", http.StatusOK, `{"choices":[]}`, pkgerrors.ErrorTypeNetworkFailure},
		{"malformed", http.StatusOK, `<html>`, pkgerrors.ErrorTypeNetworkFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewProvider(Config{BaseURL: srv.URL}, nil, zap.NewNop())
			_, err := p.Complete(context.Background(), ports.CompletionRequest{})
			assert.Equal(t, tt.want, pkgerrors.TypeOf(err))
		})
	}
}

func TestProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewProvider(Config{BaseURL: srv.URL}, nil, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, ports.CompletionRequest{})
	assert.True(t, pkgerrors.IsTimeout(err))
}
