// Package remote implements the editor's collaborator ports against a
// running backend over HTTP: /chat and /chain_chat for enrichment,
// /save-data and /load-data/{username} for snapshots.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cognitivediary/infrastructure/resilience"
	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Client is a JSON client for the backend
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *resilience.Breaker
	tracer  trace.Tracer
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithToken sends a bearer token on every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
		tracer:  otel.Tracer("cognitivediary/remote"),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = resilience.NewBreaker(resilience.DefaultBreakerConfig("backend"), logger)
	return c
}

// do sends in (if not nil) as JSON and decodes the reply into out. A 404
// is returned as a NotFound error.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, in, out, span)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out interface{}, span trace.Span) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return pkgerrors.NewTimeout(path+" timed out", err)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return pkgerrors.NewNetworkFailure(path+" request failed", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 300 {
		return statusError(path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.NewNetworkFailure("malformed response from "+path, err)
	}
	return nil
}

// statusError rebuilds the application error the backend reported
func statusError(path string, resp *http.Response) error {
	var body api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := fmt.Sprintf("%s returned %d", path, resp.StatusCode)
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg += ": " + body.Error
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		// Plain-text and HTML error pages are passed on as they are.
		msg += ": " + text
	}

	switch pkgerrors.ErrorType(body.Kind) {
	case pkgerrors.ErrorTypeValidation:
		return pkgerrors.NewValidation(msg)
	case pkgerrors.ErrorTypeNotFound:
		return pkgerrors.NewNotFound(msg)
	case pkgerrors.ErrorTypeSaveConflict:
		return pkgerrors.NewSaveConflict(msg)
	case pkgerrors.ErrorTypeTimeout:
		return pkgerrors.NewTimeout(msg, nil)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.NewNotFound(msg)
	case resp.StatusCode == http.StatusBadRequest:
		return pkgerrors.NewValidation(msg)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return pkgerrors.NewTimeout(msg, nil)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return pkgerrors.NewNetworkFailure(msg, nil)
	default:
		return pkgerrors.NewInternal(msg, nil)
	}
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
