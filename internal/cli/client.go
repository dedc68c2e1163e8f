package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/synapse-cir/cirrepair/internal/config"
	"github.com/synapse-cir/cirrepair/internal/llm"
)

// buildLLMClient picks a transport by model name: anything prefixed
// "claude" goes through the native Anthropic Messages API, everything
// else through the OpenAI-compatible chat completions transport, so a
// local model server or another provider's proxy works by pointing
// llm.baseUrl/llm.model at it. The API key falls back to the provider's
// usual environment variable when config.yaml leaves it blank.
func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	apiKey := cfg.LLM.APIKey
	model := cfg.LLM.Model

	var inner llm.Client
	var err error

	if strings.HasPrefix(model, "claude") {
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		inner, err = llm.NewAnthropicClient(apiKey, cfg.LLM.BaseURL, model)
	} else {
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		inner, err = llm.NewCompatClient(apiKey, cfg.LLM.BaseURL, model)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build llm client: %w", err)
	}

	timeout := cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return llm.NewRetryingClient(inner, timeout), nil
}
