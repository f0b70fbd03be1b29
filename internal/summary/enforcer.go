package summary

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/nikhilbhutani/audiobrief/internal/llm"
	"github.com/nikhilbhutani/audiobrief/internal/metrics"
)

// MaxExpansionAttempts bounds the paid expansion calls per Enforce.
const MaxExpansionAttempts = 2

// Expansion call parameters.
const (
	ExpandTemperature = 0.3
	SourceSampleChars = 1200
	maxExpandTokens   = 3500
	targetHeadroom    = 1.1
)

const placeholderDraft = "Initial summary not available. Please produce a faithful and detailed summary."

// FillerClause is appended, repeated and truncated, when expansion cannot
// reach the minimum length.
const FillerClause = "\n\n(Expansion) Additional details from the content: elaborates on ideas, relationships, " +
	"and nuances already present in the original text, preserving fidelity and accuracy in English. "

// Outcome describes what Expand did.
type Outcome struct {
	Text   string
	Calls  int
	Padded bool
}

// Enforcer guarantees a minimum text length. It never fails.
type Enforcer struct {
	chat  ChatClient
	model string
}

func NewEnforcer(chat ChatClient, model string) *Enforcer {
	return &Enforcer{chat: chat, model: model}
}

// Enforce returns draft unchanged if it is long enough, otherwise an expanded
// or padded text of at least minChars characters.
func (e *Enforcer) Enforce(ctx context.Context, draft, source string, minChars int) string {
	return e.Expand(ctx, draft, source, minChars).Text
}

// Expand is Enforce with call accounting.
func (e *Enforcer) Expand(ctx context.Context, draft, source string, minChars int) Outcome {
	if runeLen(draft) >= minChars {
		return Outcome{Text: draft}
	}

	current := strings.TrimSpace(draft)
	if current == "" {
		current = placeholderDraft
	}

	sample := truncateRunes(source, SourceSampleChars, "")
	target := TargetChars(minChars)
	tokens := TokenBudget(target)

	var out Outcome
	for attempt := 0; attempt < MaxExpansionAttempts; attempt++ {
		if runeLen(current) >= minChars {
			break
		}

		out.Calls++
		resp, err := e.chat.Chat(ctx, llm.ChatRequest{
			Model:       e.model,
			Messages:    llm.SystemUser(expandSystemPrompt, expandUserPrompt(target, sample, current)),
			Temperature: ExpandTemperature,
			MaxTokens:   tokens,
		})
		if err != nil {
			metrics.RecordExpansionCall("error")
			slog.Error("expansion call failed", "attempt", attempt+1, "error", err)
			break
		}

		expanded := strings.TrimSpace(resp.Content)
		if expanded == "" {
			metrics.RecordExpansionCall("empty")
			slog.Warn("expansion returned empty text", "attempt", attempt+1)
			break
		}
		metrics.RecordExpansionCall("expanded")
		if resp.Truncated {
			slog.Warn("expansion stopped at the token limit", "attempt", attempt+1, "max_tokens", tokens)
		}
		current = expanded
	}

	if runeLen(current) < minChars {
		slog.Warn("padding summary to minimum length",
			"have_chars", runeLen(current),
			"min_chars", minChars,
		)
		metrics.RecordPaddingApplied()
		current = Pad(current, minChars)
		out.Padded = true
	}

	out.Text = current
	return out
}

// TargetChars adds headroom above the minimum.
func TargetChars(minChars int) int {
	return max(minChars, int(math.Floor(float64(minChars)*targetHeadroom)))
}

// TokenBudget estimates output tokens for target characters, capped.
func TokenBudget(target int) int {
	return min(maxExpandTokens, int(math.Ceil(float64(target)/4))+200)
}

// Pad appends FillerClause until text covers minChars, then cuts the result
// to exactly minChars characters.
func Pad(text string, minChars int) string {
	deficit := minChars - runeLen(text)
	if deficit <= 0 {
		return text
	}
	n := (deficit + runeLen(FillerClause) - 1) / runeLen(FillerClause)
	padded := []rune(text + strings.Repeat(FillerClause, n))
	return string(padded[:minChars])
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
