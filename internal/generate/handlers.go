package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/completionist-ai/completionist/internal/provider"
	"github.com/completionist-ai/completionist/internal/runner"
)

// CompleteHandler returns the task handler for the complete command: one
// dataset row in, one prompt/completion/reasoning record out. All per-item
// failures resolve to nil so the batch keeps going.
func CompleteHandler(cfg *Config) runner.Handler[map[string]any] {
	return func(ctx context.Context, row map[string]any) runner.Result {
		prompt, err := buildPrompt(cfg, row)
		if err != nil {
			log.Warn().Err(err).Msg("skipping sample")
			return nil
		}

		completion, err := cfg.Provider.Complete(ctx, cfg.request(prompt))
		if err != nil || completion == "" {
			// The provider already logged the failure with a truncated
			// prompt prefix.
			return nil
		}

		text, reasoning := ExtractReasoning(completion)
		return runner.Result{
			cfg.PromptOutputField:     prompt,
			cfg.CompletionOutputField: text,
			"reasoning":               reasoning,
		}
	}
}

func buildPrompt(cfg *Config, row map[string]any) (string, error) {
	if cfg.PromptTemplate != "" {
		return FormatTemplate(cfg.PromptTemplate, row)
	}
	value, ok := row[cfg.PromptInputField]
	if !ok {
		return "", fmt.Errorf("row has no %q field (available columns: %s)",
			cfg.PromptInputField, strings.Join(columnNames(row), ", "))
	}
	return Stringify(value), nil
}

// BuildHandler returns the task handler for the build command: one topic in,
// one schema-validated structured sample out. The JSON schema is appended to
// the system prompt to steer the model; the response is then parsed and
// validated, and anything that does not decode cleanly drops the item.
func BuildHandler(cfg *Config) (runner.Handler[string], error) {
	rendered, err := cfg.Schema.JSONSchema()
	if err != nil {
		return nil, err
	}

	systemPrompt := cfg.SystemPrompt +
		"\n\nRespond with a single JSON object that conforms to this JSON schema, and nothing else:\n" +
		rendered

	return func(ctx context.Context, topic string) runner.Result {
		prompt := strings.ReplaceAll(cfg.UserPromptTemplate, "{topic}", topic)

		req := cfg.request(prompt)
		req.SystemPrompt = systemPrompt

		raw, err := cfg.Provider.Complete(ctx, req)
		if err != nil || raw == "" {
			return nil
		}

		sample, err := cfg.Schema.Decode(raw)
		if err != nil {
			log.Warn().
				Err(err).
				Str("topic", provider.TruncatePrompt(topic, 50)).
				Str("schema", cfg.Schema.Name).
				Msg("failed to generate a valid sample")
			return nil
		}
		return sample
	}, nil
}
