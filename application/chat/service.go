// Package chat answers enrichment requests with an upstream completion
// model. It is the server side of the /chat and /chain_chat endpoints.
package chat

import (
	"context"
	"fmt"
	"strings"

	"cognitivediary/application/ports"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Defaults applied when a request leaves a field unset
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// Service implements ports.LLMClient on top of a CompletionProvider
type Service struct {
	provider ports.CompletionProvider
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a chat service
func NewService(provider ports.CompletionProvider, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		validate: validator.New(),
		logger:   logger,
	}
}

// Chat answers a single thought
func (s *Service) Chat(ctx context.Context, req ports.ChatRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", pkgerrors.NewValidation(fmt.Sprintf("invalid chat request: %v", err))
	}
	return s.complete(ctx, "chat", ports.CompletionRequest{
		Messages: []ports.CompletionMessage{
			{Role: "system", Content: thoughtSystemPrompt},
			{Role: "user", Content: req.Message},
		},
		Temperature: req.Temperature,
		MaxTokens:   orDefault(req.MaxTokens, DefaultMaxTokens),
	})
}

// ChainChat answers the last thought of a chain in light of the thoughts
// leading to it.
func (s *Service) ChainChat(ctx context.Context, req ports.ChainChatRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", pkgerrors.NewValidation(fmt.Sprintf("invalid chain request: %v", err))
	}
	return s.complete(ctx, "chain_chat", ports.CompletionRequest{
		Messages: []ports.CompletionMessage{
			{Role: "system", Content: chainSystemPrompt},
			{Role: "user", Content: BuildChainPrompt(req.ChainNodes, req.TargetNodeContent)},
		},
		Temperature: req.Temperature,
		MaxTokens:   DefaultMaxTokens,
	})
}

func (s *Service) complete(ctx context.Context, endpoint string, req ports.CompletionRequest) (string, error) {
	answer, err := s.provider.Complete(ctx, req)
	if err != nil {
		s.logger.Warn("Completion failed", zap.String("endpoint", endpoint), zap.Error(err))
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", pkgerrors.NewNetworkFailure("model returned an empty answer", nil)
	}
	return answer, nil
}

// BuildChainPrompt lays the chain out root first, one numbered step per
// line, followed by the thought being asked about.
func BuildChainPrompt(chain []ports.ChainNode, target string) string {
	var b strings.Builder
	b.WriteString("Chain of thoughts, from the first to the last:\n\n")
	for i, n := range chain {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(n.Label))
	}
	if target != "" {
		fmt.Fprintf(&b, "\nContinue from this thought:\n%s\n", strings.TrimSpace(target))
	}
	return b.String()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

const thoughtSystemPrompt = `You help a person develop the thought they just wrote down.
Reply with one short paragraph that extends, questions or deepens the thought.
Answer in the language the thought is written in.`

const chainSystemPrompt = `You help a person follow a chain of connected thoughts.
Each thought led to the next one. Read the whole chain, then reply with one short
paragraph that continues the reasoning from the last thought.
Answer in the language the thoughts are written in.`
