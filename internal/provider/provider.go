// Package provider contains the completion clients used to generate samples.
// Each provider performs exactly one request/response cycle per call: no
// retries, no rate limiting, a single best-effort attempt bounded by
// RequestTimeout.
package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RequestTimeout is the upper bound for a single completion call. Calls that
// exceed it are treated as per-item failures by the task handlers.
const RequestTimeout = 120 * time.Second

// managedInferenceDomains are endpoint hosts that refuse anonymous requests.
// A Hugging Face token is mandatory when the endpoint matches one of these.
var managedInferenceDomains = []string{
	"huggingface.cloud",
	"api-inference.huggingface.co",
}

// Request describes a single completion call. One optional system message
// followed by exactly one user message.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float64
	TopP         float64
}

// Provider issues one completion request per Complete call and returns the
// raw response text. Implementations must be safe for concurrent use.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (string, error)
}

// Config carries the endpoint settings shared by all provider
// implementations. It is constructed once per run and never mutated.
type Config struct {
	BaseURL  string
	APIToken string
}

// IsManagedInference reports whether the endpoint belongs to a managed
// inference service that requires authentication.
func IsManagedInference(endpoint string) bool {
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, domain := range managedInferenceDomains {
		if strings.Contains(host, domain) {
			return true
		}
	}
	return false
}

// ResolveAPIToken picks the token to attach to requests against endpoint.
// Managed inference endpoints require the hub token; its absence is a
// configuration error, not a per-request failure. Everywhere else the
// explicit API token wins and may be empty.
func ResolveAPIToken(endpoint, hubToken, apiToken string) (string, error) {
	if IsManagedInference(endpoint) {
		if hubToken == "" {
			return "", fmt.Errorf("a Hugging Face token is required to use the managed inference endpoint %q", endpoint)
		}
		return hubToken, nil
	}
	return apiToken, nil
}

// TruncatePrompt shortens a prompt for failure logs. Full prompts never make
// it into log output.
func TruncatePrompt(prompt string, n int) string {
	if len(prompt) <= n {
		return prompt
	}
	return prompt[:n] + "..."
}
