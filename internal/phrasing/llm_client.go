package phrasing

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is a provider-neutral chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

type pinnedModelClient struct {
	LLMClient
	model string
}

// PinModel sends every request to model regardless of req.Model, so a
// fallback provider never receives the primary provider's model id.
func PinModel(client LLMClient, model string) LLMClient {
	if client == nil || model == "" {
		return client
	}
	return pinnedModelClient{LLMClient: client, model: model}
}

func (c pinnedModelClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	req.Model = c.model
	return c.LLMClient.Complete(ctx, req)
}
