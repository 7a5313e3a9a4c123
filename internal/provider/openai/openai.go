// Package openai implements the completion provider for OpenAI-compatible
// endpoints, which covers the OpenAI API itself as well as Ollama, vLLM and
// Hugging Face inference endpoints.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/completionist-ai/completionist/internal/provider"
)

// Provider implements provider.Provider using the OpenAI chat completions API.
type Provider struct {
	name   string
	client *openai.Client
	config *provider.Config
}

// NewProvider creates an OpenAI-compatible provider for the given endpoint.
// Some OpenAI-compatible servers reject requests without an Authorization
// header, so an empty token is replaced with a placeholder.
func NewProvider(config *provider.Config) (*Provider, error) {
	if config == nil || config.BaseURL == "" {
		return nil, fmt.Errorf("an API base URL is required")
	}

	apiKey := config.APIToken
	if apiKey == "" {
		apiKey = "dummy"
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(config.BaseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(provider.RequestTimeout),
	)

	return &Provider{
		name:   "openai",
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return p.name
}

// Complete performs a single chat completion request and returns the trimmed
// response text. Any transport, timeout or non-2xx error is returned to the
// caller after a diagnostic log line; the caller decides whether to drop the
// item.
func (p *Provider) Complete(ctx context.Context, req *provider.Request) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	response, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               req.Model,
		Messages:            messages,
		Temperature:         openai.Float(req.Temperature),
		TopP:                openai.Float(req.TopP),
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
		N:                   openai.Int(1),
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("model", req.Model).
			Str("prompt", provider.TruncatePrompt(req.Prompt, 50)).
			Msg("completion request failed")
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		log.Warn().
			Str("model", req.Model).
			Str("prompt", provider.TruncatePrompt(req.Prompt, 50)).
			Msg("completion response contained no choices")
		return "", fmt.Errorf("completion response contained no choices")
	}

	log.Debug().
		Str("model", req.Model).
		Int("prompt_tokens", int(response.Usage.PromptTokens)).
		Int("completion_tokens", int(response.Usage.CompletionTokens)).
		Msg("completion request finished")

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
