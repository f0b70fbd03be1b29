package stt

import (
	"context"
	"fmt"
	"io"
)

// TranscriptionRequest holds the parameters for audio transcription.
type TranscriptionRequest struct {
	Audio    io.Reader `json:"-"`
	FileName string    `json:"file_name"`
	MIMEType string    `json:"mime_type,omitempty"`
	Language string    `json:"language,omitempty"`
	Prompt   string    `json:"prompt,omitempty"`
}

// TranscriptionResponse holds the transcription result.
type TranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// STTProvider is the interface for speech-to-text backends.
type STTProvider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
	Name() string
}

// ProviderError carries the status and detail a backend reported.
type ProviderError struct {
	Provider string
	Status   int
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
