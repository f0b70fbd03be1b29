// Package llm routes text-generation requests to OpenAI, Anthropic or Ollama
// with optional retry and a fallback provider.
package llm

import (
	"context"
)

// Provider is one text-generation backend.
type Provider interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
	// Models lists known models; the first is used when a request names none.
	Models() []string
}

// Gateway picks a provider per request and applies retry and fallback.
type Gateway interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Provider(name string) (Provider, error)
	ListModels() []ModelInfo
}

type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest is a single non-streaming completion. Zero Temperature and
// MaxTokens leave the provider defaults in place.
type ChatRequest struct {
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatResponse is a completed generation. Truncated is set when output
// stopped at MaxTokens.
type ChatResponse struct {
	ID           string  `json:"id"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
	Truncated    bool    `json:"truncated"`
}

type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Default  bool   `json:"default"`
}

// SystemUser builds the two-message conversation used by the summarizer.
func SystemUser(system, user string) []Message {
	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

func modelOrDefault(p Provider, model string) string {
	if model != "" {
		return model
	}
	if ms := p.Models(); len(ms) > 0 {
		return ms[0]
	}
	return ""
}

func supportsModel(p Provider, model string) bool {
	for _, m := range p.Models() {
		if m == model {
			return true
		}
	}
	return false
}
