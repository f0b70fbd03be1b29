package stt

// LocalSTTConfig holds configuration for the local whisper.cpp STT backend.
type LocalSTTConfig struct {
	BaseURL string // default: "http://localhost:8178/v1"
	Model   string
}

// NewLocalSTT creates an OpenAISTT backed by a local whisper.cpp HTTP server,
// which speaks the same transcription API.
// Start the server with: ./server -m models/ggml-base.bin --port 8178
func NewLocalSTT(cfg LocalSTTConfig) *OpenAISTT {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8178/v1"
	}
	s := NewOpenAISTT(OpenAISTTConfig{
		BaseURL: baseURL,
		Model:   cfg.Model,
		// No API key needed for local server
	})
	s.name = "local-whisper"
	return s
}
