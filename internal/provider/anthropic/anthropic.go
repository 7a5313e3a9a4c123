// Package anthropic implements the completion provider for the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/completionist-ai/completionist/internal/provider"
)

// Provider implements provider.Provider using the Anthropic API.
type Provider struct {
	name   string
	client *anthropic.Client
	config *provider.Config
}

// NewProvider creates an Anthropic provider. Unlike the OpenAI-compatible
// path there is no anonymous access, so a missing token is a configuration
// error.
func NewProvider(config *provider.Config) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("provider configuration is required")
	}
	if config.APIToken == "" {
		return nil, fmt.Errorf("an Anthropic API key is required (set ANTHROPIC_API_KEY or pass --api-token)")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIToken),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(provider.RequestTimeout),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &Provider{
		name:   "anthropic",
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return p.name
}

// Complete performs a single Messages API call and returns the concatenated
// text blocks of the response, trimmed.
func (p *Provider) Complete(ctx context.Context, req *provider.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
		TopP:        anthropic.Float(req.TopP),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		log.Warn().
			Err(err).
			Str("model", req.Model).
			Str("prompt", provider.TruncatePrompt(req.Prompt, 50)).
			Msg("completion request failed")
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	log.Debug().
		Str("model", req.Model).
		Int("input_tokens", int(response.Usage.InputTokens)).
		Int("output_tokens", int(response.Usage.OutputTokens)).
		Msg("completion request finished")

	return strings.TrimSpace(sb.String()), nil
}
