package remote

import (
	"context"
	"net/http"

	"cognitivediary/application/ports"
	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"
)

// LLMClient implements ports.LLMClient against /chat and /chain_chat
type LLMClient struct {
	client *Client
}

var _ ports.LLMClient = (*LLMClient)(nil)

// NewLLMClient creates an enrichment client
func NewLLMClient(c *Client) *LLMClient {
	return &LLMClient{client: c}
}

// Chat asks about a single thought
func (l *LLMClient) Chat(ctx context.Context, req ports.ChatRequest) (string, error) {
	var resp api.ChatResponse
	if err := l.client.do(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return "", err
	}
	return answer(resp)
}

// ChainChat asks about a thought in light of its chain
func (l *LLMClient) ChainChat(ctx context.Context, req ports.ChainChatRequest) (string, error) {
	var resp api.ChatResponse
	if err := l.client.do(ctx, http.MethodPost, "/chain_chat", req, &resp); err != nil {
		return "", err
	}
	return answer(resp)
}

func answer(resp api.ChatResponse) (string, error) {
	if resp.Response == "" {
		return "", pkgerrors.NewNetworkFailure("backend returned an empty answer", nil)
	}
	return resp.Response, nil
}
