package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alexivanou/placematch-api/internal/metrics"
)

const anthropicVersion = "2023-06-01"

// Anthropic calls the messages API.
type Anthropic struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewAnthropic creates an Anthropic completer. baseURL is the full
// messages endpoint.
func NewAnthropic(baseURL, apiKey, model string, client *http.Client) *Anthropic {
	if client == nil {
		client = &http.Client{}
	}
	return &Anthropic{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  client,
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Name returns the provider name
func (c *Anthropic) Name() string { return "anthropic" }

// Complete implements Completer. The messages API has no JSON mode, so
// JSONMode only tightens the system prompt.
func (c *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	system := req.System
	if req.JSONMode {
		system += "\nRespond with a single JSON object and nothing else."
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: req.User}},
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	res, err := c.client.Do(httpReq)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("anthropic", "error").Inc()
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read anthropic response: %w", err)
	}
	if res.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues("anthropic", "error").Inc()
		return "", &StatusError{Provider: "anthropic", Code: res.StatusCode, Body: truncateBody(body)}
	}
	metrics.UpstreamRequests.WithLabelValues("anthropic", "ok").Inc()

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode anthropic response: %w", err)
	}
	var sb strings.Builder
	for _, part := range out.Content {
		if part.Type == "" || part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic: empty content")
	}
	return sb.String(), nil
}
