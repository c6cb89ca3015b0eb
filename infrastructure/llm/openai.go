// Package llm talks to an OpenAI-compatible chat completion API
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/infrastructure/resilience"
	pkgerrors "cognitivediary/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config configures the provider
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds a single HTTP exchange; callers usually impose a
	// shorter deadline through the context.
	Timeout time.Duration
}

type completionRequest struct {
	Model       string                    `json:"model"`
	Messages    []ports.CompletionMessage `json:"messages"`
	Temperature float64                   `json:"temperature"`
	MaxTokens   int                       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Provider implements ports.CompletionProvider
type Provider struct {
	cfg     Config
	client  *http.Client
	breaker *resilience.Breaker
	tracer  trace.Tracer
	logger  *zap.Logger
}

var _ ports.CompletionProvider = (*Provider)(nil)

// NewProvider creates a provider. A nil client uses one with cfg.Timeout.
func NewProvider(cfg Config, client *http.Client, logger *zap.Logger) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Provider{
		cfg:     cfg,
		client:  client,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig("llm-upstream"), logger),
		tracer:  otel.Tracer("cognitivediary/llm"),
		logger:  logger,
	}
}

// Complete sends one completion request
func (p *Provider) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	ctx, span := p.tracer.Start(ctx, "llm.Complete", trace.WithAttributes(
		attribute.String("llm.model", p.cfg.Model),
		attribute.Int("llm.messages", len(req.Messages)),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	))
	defer span.End()

	start := time.Now()
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.do(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("Completion failed",
			zap.String("model", p.cfg.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}
	answer := out.(string)
	span.SetAttributes(attribute.Int("llm.answer_length", len(answer)))
	p.logger.Debug("Completion received",
		zap.String("model", p.cfg.Model),
		zap.Duration("elapsed", time.Since(start)))
	return answer, nil
}

func (p *Provider) do(ctx context.Context, req ports.CompletionRequest) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       p.cfg.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", transportError(ctx, err)
	}

	var parsed completionResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("upstream returned %d", resp.StatusCode)
		if decodeErr == nil && parsed.Error != nil {
			msg += ": " + parsed.Error.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", pkgerrors.NewNetworkFailure(msg, nil)
		}
		return "", pkgerrors.NewInternal(msg, nil)
	}
	if decodeErr != nil {
		return "", pkgerrors.NewNetworkFailure("upstream returned malformed JSON", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", pkgerrors.NewNetworkFailure("upstream returned no choices", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}

// transportError distinguishes deadlines from other transport failures
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.NewTimeout("completion timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return pkgerrors.NewNetworkFailure("completion request failed", err)
}
