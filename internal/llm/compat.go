package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// CompatClient implements Client against any OpenAI-compatible chat
// completions endpoint (local model servers, proxies in front of other
// providers) — a second transport implementation alongside AnthropicClient,
// mirroring the idea of more than one backend behind one interface.
type CompatClient struct {
	chat  openai.ChatCompletionService
	model string
}

// NewCompatClient builds a client against baseURL (empty uses the SDK's
// default OpenAI endpoint) using apiKey and model.
func NewCompatClient(apiKey, baseURL, model string) (*CompatClient, error) {
	if model == "" {
		return nil, errors.New("compat: model is required")
	}
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &CompatClient{chat: client.Chat.Completions, model: model}, nil
}

func (c *CompatClient) Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(Preamble(role)),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("compat chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("compat: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
