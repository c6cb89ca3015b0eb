package ports

import "context"

// ChatRequest asks the model about a single piece of text
type ChatRequest struct {
	Message     string  `json:"message" validate:"required"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" validate:"gte=0"`
}

// ChainNode is one step of a traced chain, sent as context
type ChainNode struct {
	ID    string `json:"id" validate:"required"`
	Label string `json:"label"`
}

// ChainChatRequest asks the model about a node in light of the chain that
// leads to it. ChainNodes are ordered from the root to the queried node.
type ChainChatRequest struct {
	ChainNodes        []ChainNode `json:"chain_nodes" validate:"required,min=1,dive"`
	TargetNodeContent string      `json:"target_node_content"`
	Temperature       float64     `json:"temperature" validate:"gte=0,lte=2"`
}

// LLMClient is the enrichment collaborator used by editing sessions
type LLMClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	ChainChat(ctx context.Context, req ChainChatRequest) (string, error)
}

// CompletionMessage is one turn of a completion prompt
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-neutral completion call
type CompletionRequest struct {
	Messages    []CompletionMessage
	Temperature float64
	MaxTokens   int
}

// CompletionProvider is the upstream model behind the chat endpoints
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
