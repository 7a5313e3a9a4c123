// Package generate builds the task handlers that turn one work item into one
// generated output record.
package generate

import (
	"github.com/completionist-ai/completionist/internal/provider"
	"github.com/completionist-ai/completionist/internal/schema"
)

// Config holds the per-run generation parameters. It is constructed once
// before processing starts and shared read-only by every worker.
type Config struct {
	Provider provider.Provider

	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	TopP         float64

	// complete: prompt construction and output field mapping.
	PromptTemplate        string
	PromptInputField      string
	PromptOutputField     string
	CompletionOutputField string

	// build: structured generation.
	UserPromptTemplate string
	Schema             *schema.Definition
}

func (c *Config) request(prompt string) *provider.Request {
	return &provider.Request{
		Prompt:       prompt,
		SystemPrompt: c.SystemPrompt,
		Model:        c.Model,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
		TopP:         c.TopP,
	}
}
