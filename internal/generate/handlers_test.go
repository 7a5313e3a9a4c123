package generate

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/completionist-ai/completionist/internal/provider"
	"github.com/completionist-ai/completionist/internal/schema"
)

// fakeProvider records the last request and replies with a canned response.
type fakeProvider struct {
	mu       sync.Mutex
	response string
	err      error
	lastReq  *provider.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *provider.Request) (string, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	return f.response, f.err
}

func completeConfig(p provider.Provider) *Config {
	return &Config{
		Provider:              p,
		Model:                 "test-model",
		MaxTokens:             128,
		Temperature:           0.7,
		TopP:                  0.95,
		PromptInputField:      "q",
		PromptOutputField:     "prompt",
		CompletionOutputField: "completion",
	}
}

func TestCompleteHandler(t *testing.T) {
	fake := &fakeProvider{response: "<think>r</think>ans"}
	handler := CompleteHandler(completeConfig(fake))

	result := handler(context.Background(), map[string]any{"q": "what is up?"})

	require.NotNil(t, result)
	assert.Equal(t, "what is up?", result["prompt"])
	assert.Equal(t, "ans", result["completion"])
	assert.Equal(t, "r", result["reasoning"])
	assert.Equal(t, "what is up?", fake.lastReq.Prompt)
	assert.Equal(t, "test-model", fake.lastReq.Model)
}

func TestCompleteHandlerWithoutReasoning(t *testing.T) {
	fake := &fakeProvider{response: "plain answer"}
	handler := CompleteHandler(completeConfig(fake))

	result := handler(context.Background(), map[string]any{"q": "hi"})

	require.NotNil(t, result)
	assert.Equal(t, "plain answer", result["completion"])
	assert.Equal(t, "", result["reasoning"])
}

func TestCompleteHandlerMissingInputField(t *testing.T) {
	fake := &fakeProvider{response: "unused"}
	handler := CompleteHandler(completeConfig(fake))

	result := handler(context.Background(), map[string]any{"other": "field"})

	assert.Nil(t, result)
	assert.Nil(t, fake.lastReq, "no request should be issued for an unusable row")
}

func TestCompleteHandlerProviderFailure(t *testing.T) {
	fake := &fakeProvider{err: fmt.Errorf("boom")}
	handler := CompleteHandler(completeConfig(fake))

	assert.Nil(t, handler(context.Background(), map[string]any{"q": "hi"}))
}

func TestCompleteHandlerPromptTemplate(t *testing.T) {
	fake := &fakeProvider{response: "ok"}
	cfg := completeConfig(fake)
	cfg.PromptTemplate = "Answer {q} about {subject}"
	handler := CompleteHandler(cfg)

	result := handler(context.Background(), map[string]any{"q": "this", "subject": "go"})

	require.NotNil(t, result)
	assert.Equal(t, "Answer this about go", result["prompt"])
}

func TestCompleteHandlerPromptTemplateMissingColumn(t *testing.T) {
	fake := &fakeProvider{response: "ok"}
	cfg := completeConfig(fake)
	cfg.PromptTemplate = "Answer {missing}"
	handler := CompleteHandler(cfg)

	assert.Nil(t, handler(context.Background(), map[string]any{"q": "this"}))
}

func buildConfig(t *testing.T, p provider.Provider) *Config {
	t.Helper()
	def, err := schema.Resolve("default")
	require.NoError(t, err)
	return &Config{
		Provider:           p,
		Model:              "test-model",
		MaxTokens:          128,
		SystemPrompt:       "You generate samples.",
		UserPromptTemplate: "Write a sample about {topic}.",
		Schema:             def,
	}
}

func TestBuildHandler(t *testing.T) {
	fake := &fakeProvider{response: `{"prompt": "p1", "completion": "c1"}`}
	handler, err := BuildHandler(buildConfig(t, fake))
	require.NoError(t, err)

	result := handler(context.Background(), "gophers")

	require.NotNil(t, result)
	assert.Equal(t, "p1", result["prompt"])
	assert.Equal(t, "c1", result["completion"])
	assert.Equal(t, "Write a sample about gophers.", fake.lastReq.Prompt)
	assert.Contains(t, fake.lastReq.SystemPrompt, "You generate samples.")
	assert.Contains(t, fake.lastReq.SystemPrompt, `"properties"`)
}

func TestBuildHandlerFencedResponse(t *testing.T) {
	fake := &fakeProvider{response: "```json\n{\"prompt\": \"p\", \"completion\": \"c\"}\n```"}
	handler, err := BuildHandler(buildConfig(t, fake))
	require.NoError(t, err)

	result := handler(context.Background(), "gophers")

	require.NotNil(t, result)
	assert.Equal(t, "p", result["prompt"])
}

func TestBuildHandlerInvalidResponse(t *testing.T) {
	for _, response := range []string{"not json at all", `{"prompt": "p"}`, `{"prompt": 1, "completion": "c"}`} {
		fake := &fakeProvider{response: response}
		handler, err := BuildHandler(buildConfig(t, fake))
		require.NoError(t, err)

		assert.Nil(t, handler(context.Background(), "gophers"), "response %q must be dropped", response)
	}
}
