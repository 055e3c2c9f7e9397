// Package llm provides clients for the language-model service used by the
// planner and the composer. Model output is always untrusted text; parsing
// and validation happen in the callers, never here.
package llm

import "context"

// Client is the text-in/text-out capability the pipeline depends on.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// Complete generates a completion for the prompt under the given
	// system message.
	Complete(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)

	// Model returns the configured model name.
	Model() string
}

// Ensure both providers implement Client at compile time.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
)
