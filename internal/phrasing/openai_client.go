package phrasing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAILLMClient implements LLMClient with the Chat Completions API.
type OpenAILLMClient struct {
	client *openai.Client
	model  string
}

// NewOpenAILLMClient builds a client. baseURL may be empty for the public API.
func NewOpenAILLMClient(apiKey, baseURL, model string, opts ...option.RequestOption) (*OpenAILLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("phrasing: openai api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	client := openai.NewClient(reqOpts...)
	return &OpenAILLMClient{client: &client, model: model}, nil
}

func (c *OpenAILLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := c.model
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			messages = append(messages, openai.SystemMessage(block))
		}
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			messages = append(messages, openai.SystemMessage(content))
		case ChatRoleUser:
			messages = append(messages, openai.UserMessage(content))
		case ChatRoleAssistant:
			messages = append(messages, openai.AssistantMessage(content))
		default:
			return LLMResponse{}, fmt.Errorf("phrasing: unsupported role %q", msg.Role)
		}
	}
	if len(messages) == 0 {
		return LLMResponse{}, errors.New("phrasing: openai requires at least one message")
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(model),
	}
	if req.Temperature >= 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(float64(req.TopP))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("phrasing: openai completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return LLMResponse{}, errors.New("phrasing: openai returned no choices")
	}

	choice := completion.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: choice.FinishReason,
		Usage: TokenUsage{
			InputTokens:  int32(completion.Usage.PromptTokens),
			OutputTokens: int32(completion.Usage.CompletionTokens),
			TotalTokens:  int32(completion.Usage.TotalTokens),
		},
	}, nil
}
