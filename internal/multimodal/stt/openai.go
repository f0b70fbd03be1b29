package stt

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
)

// OpenAISTTConfig holds configuration for the OpenAI STT backend.
type OpenAISTTConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "whisper-1"
}

// OpenAISTT transcribes audio using OpenAI's Whisper API (or a compatible endpoint).
type OpenAISTT struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAISTT creates an OpenAISTT with sensible defaults applied.
func NewOpenAISTT(cfg OpenAISTTConfig) *OpenAISTT {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: 300 * time.Second}

	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	return &OpenAISTT{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		name:   "openai-whisper",
	}
}

func (o *OpenAISTT) Name() string { return o.name }

// Transcribe uploads the audio and asks for a plain-text transcript.
func (o *OpenAISTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: uploadName(req),
		Reader:   req.Audio,
		Language: req.Language,
		Prompt:   req.Prompt,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return nil, o.wrapError(err)
	}

	return &TranscriptionResponse{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}

// uploadName gives the multipart file name an extension derived from the MIME
// type when the original name has none. Whisper detects the format from it.
func uploadName(req TranscriptionRequest) string {
	name := req.FileName
	if name == "" {
		name = "audio"
	}
	if filepath.Ext(name) != "" || req.MIMEType == "" {
		return name
	}
	if ext := audio.ExtensionFromMIME(req.MIMEType); ext != ".tmp" {
		return name + ext
	}
	return name
}

func (o *OpenAISTT) wrapError(err error) error {
	pe := &ProviderError{Provider: o.name, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.Status = apiErr.HTTPStatusCode
		pe.Detail = apiErr.Message
	case errors.As(err, &reqErr):
		pe.Status = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			pe.Detail = reqErr.Err.Error()
		}
	}
	return pe
}
