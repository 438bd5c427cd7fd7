// Package llm wraps the completion providers behind a single prompt-in,
// text-out interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexivanou/placematch-api/internal/config"
)

// ErrMissingCredential is returned when the active provider has no API key.
var ErrMissingCredential = errors.New("missing LLM API credential")

// Request is a single completion request.
type Request struct {
	System    string
	User      string
	MaxTokens int
	// JSONMode asks the provider to force syntactically valid JSON output
	// where it supports that.
	JSONMode bool
}

// Completer sends a prompt to a completion provider and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Code, e.Body)
}

// New builds the completer selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingCredential, cfg.CredentialEnv())
	}

	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicBaseURL, cfg.AnthropicKey, cfg.AnthropicModel, client), nil
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel, "", cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel, client), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
}

func truncateBody(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
