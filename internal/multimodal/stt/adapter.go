package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/config"
)

// DefaultLanguage is the recognition hint sent with every request.
const DefaultLanguage = "es"

// Result is a non-empty transcript.
type Result struct {
	Text string
}

// Adapter sends an audio.Asset to an STTProvider. Calls are never retried.
type Adapter struct {
	provider STTProvider
	language string
}

func NewAdapter(provider STTProvider, language string) *Adapter {
	if language == "" {
		language = DefaultLanguage
	}
	return &Adapter{provider: provider, language: language}
}

// NewFromConfig picks the backend named by cfg.Backend.
func NewFromConfig(cfg config.STTConfig) (*Adapter, error) {
	var p STTProvider
	switch cfg.Backend {
	case "", "openai":
		p = NewOpenAISTT(OpenAISTTConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	case "local":
		p = NewLocalSTT(LocalSTTConfig{BaseURL: cfg.LocalBaseURL, Model: cfg.OpenAIModel})
	default:
		return nil, fmt.Errorf("unknown STT backend %q", cfg.Backend)
	}
	return NewAdapter(p, cfg.Language), nil
}

// Transcribe returns the transcript, or an error matching
// audio.ErrTranscription or audio.ErrTranscriptionEmpty.
func (a *Adapter) Transcribe(ctx context.Context, asset audio.Asset) (Result, error) {
	start := time.Now()
	slog.Info("transcribing audio",
		"provider", a.provider.Name(),
		"file", asset.FileName(),
		"mime", asset.MIMEType(),
		"bytes", asset.Size(),
	)

	resp, err := a.provider.Transcribe(ctx, TranscriptionRequest{
		Audio:    bytes.NewReader(asset.Data()),
		FileName: asset.FileName(),
		MIMEType: asset.MIMEType(),
		Language: a.language,
	})
	if err != nil {
		se := audio.NewStageError(audio.StageTranscribe, audio.ErrTranscription, a.provider.Name(), err)
		var pe *ProviderError
		if errors.As(err, &pe) {
			se.Status = pe.Status
			se.Detail = pe.Detail
		}
		slog.Error("transcription failed", "provider", a.provider.Name(), "status", se.Status, "error", err)
		return Result{}, se
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text)
	}
	if text == "" {
		return Result{}, audio.NewStageError(audio.StageTranscribe, audio.ErrTranscriptionEmpty, a.provider.Name(), nil)
	}

	slog.Info("transcription completed",
		"provider", a.provider.Name(),
		"chars", len([]rune(text)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{Text: text}, nil
}
