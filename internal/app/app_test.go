package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/config"
	"github.com/nikhilbhutani/audiobrief/internal/fetch"
)

func TestNewFetcher_NoStores(t *testing.T) {
	f, err := NewFetcher(context.Background(), config.StorageConfig{AWSRegion: "us-east-1"})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "https://bucket.s3.us-east-1.amazonaws.com/a.m4a")
	assert.ErrorIs(t, err, audio.ErrRemoteFetch)
	assert.Contains(t, err.Error(), "no s3 client configured")
}

func TestNewFetcher_Supabase(t *testing.T) {
	f, err := NewFetcher(context.Background(), config.StorageConfig{
		SupabaseURL: "https://proj.supabase.co/",
		SupabaseKey: "service-key",
	})
	require.NoError(t, err)

	loc, err := f.Parse("https://proj.supabase.co/storage/v1/object/public/notes/2024/memo.caf")
	require.NoError(t, err)
	assert.Equal(t, fetch.BackendSupabase, loc.Backend)
	assert.Equal(t, "notes", loc.Bucket)
	assert.Equal(t, "2024/memo.caf", loc.Key)
}

func TestBuildPipeline_UnknownSTTBackend(t *testing.T) {
	cfg := &config.Config{STT: config.STTConfig{Backend: "carrier-pigeon"}}

	_, err := BuildPipeline(context.Background(), cfg)
	assert.ErrorContains(t, err, "stt")
}

func TestBuildPipeline_LocalBackend(t *testing.T) {
	cfg := &config.Config{
		STT:     config.STTConfig{Backend: "local", LocalBaseURL: "http://localhost:8178/v1"},
		LLM:     config.LLMConfig{OllamaURL: "http://localhost:11434", DefaultProvider: "ollama"},
		Media:   config.MediaConfig{FFmpegPath: "/opt/ffmpeg/bin/ffmpeg", TempDir: t.TempDir()},
		Summary: config.SummaryConfig{MinRatioRaw: "2"},
	}

	built, err := BuildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, built.Pipeline)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", built.FFmpeg)
}
