// Package summary turns a transcript into the final structured English text:
// a best-effort structuring call followed by minimum-length enforcement.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/audiobrief/internal/llm"
	"github.com/nikhilbhutani/audiobrief/internal/metrics"
)

// Structuring call limits.
const (
	MaxStructureInputChars = 12000
	StructureTemperature   = 0.2
	StructureMaxTokens     = 4000

	truncationMarker = "\n\n[... transcript truncated for length ...]"
)

var (
	errEmptyTranscript = errors.New("empty transcript")
	errEmptyResponse   = errors.New("model returned empty text")
)

// ChatClient is the text-generation dependency. llm.Gateway satisfies it.
type ChatClient interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Structurer reorganizes a transcript into English list sections.
type Structurer struct {
	chat  ChatClient
	model string
}

func NewStructurer(chat ChatClient, model string) *Structurer {
	return &Structurer{chat: chat, model: model}
}

// Structure returns the structured text or an error. Callers that treat
// structuring as optional use StructureOrRaw.
func (s *Structurer) Structure(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", errEmptyTranscript
	}

	resp, err := s.chat.Chat(ctx, llm.ChatRequest{
		Model:       s.model,
		Messages:    llm.SystemUser(structureSystemPrompt, structureUserPrompt(truncateRunes(transcript, MaxStructureInputChars, truncationMarker))),
		Temperature: StructureTemperature,
		MaxTokens:   StructureMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("structure transcript: %w", err)
	}

	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", errEmptyResponse
	}
	if resp.Truncated {
		slog.Warn("structured summary stopped at the token limit", "max_tokens", StructureMaxTokens)
	}
	return out, nil
}

// StructureOrRaw degrades to the unchanged transcript when structuring fails.
// The bool reports whether structuring succeeded.
func (s *Structurer) StructureOrRaw(ctx context.Context, transcript string) (string, bool) {
	out, err := s.Structure(ctx, transcript)
	if err != nil {
		metrics.RecordStructuringDegraded()
		slog.Warn("structuring degraded, using raw transcript", "error", err)
		return transcript, false
	}
	return out, true
}

// truncateRunes cuts s to max runes and appends marker when it had to cut.
func truncateRunes(s string, max int, marker string) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + marker
}
