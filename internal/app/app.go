// Package app wires configuration into a ready-to-run pipeline. The API
// server, the worker and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/nikhilbhutani/audiobrief/internal/config"
	"github.com/nikhilbhutani/audiobrief/internal/fetch"
	"github.com/nikhilbhutani/audiobrief/internal/llm"
	"github.com/nikhilbhutani/audiobrief/internal/multimodal/stt"
	"github.com/nikhilbhutani/audiobrief/internal/pipeline"
	"github.com/nikhilbhutani/audiobrief/internal/storage"
	"github.com/nikhilbhutani/audiobrief/internal/summary"
	"github.com/nikhilbhutani/audiobrief/internal/transcode"
)

// Built is the result of BuildPipeline.
type Built struct {
	Pipeline *pipeline.Pipeline
	FFmpeg   string // resolved engine path, empty when transcoding is off
	Gateway  llm.Gateway
}

// BuildPipeline constructs every pipeline stage from cfg.
func BuildPipeline(ctx context.Context, cfg *config.Config) (*Built, error) {
	transcriber, err := stt.NewFromConfig(cfg.STT)
	if err != nil {
		return nil, fmt.Errorf("stt: %w", err)
	}

	fetcher, err := NewFetcher(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	gw := llm.NewGateway(cfg.LLM)

	deps := pipeline.Deps{
		Transcriber: transcriber,
		Fetcher:     fetcher,
		Structurer:  summary.NewStructurer(gw, cfg.Summary.StructureModel),
		Enforcer:    summary.NewEnforcer(gw, cfg.Summary.ExpandModel),
	}

	bin := transcode.ResolveBinary(cfg.Media)
	if bin != "" {
		deps.Transcoder = transcode.NewFFmpeg(bin, nil, afero.NewOsFs(), cfg.Media.TempDir)
	}

	ratio := cfg.Summary.MinRatio()
	slog.Info("pipeline configured",
		"stt_backend", cfg.STT.Backend,
		"llm_provider", cfg.LLM.DefaultProvider,
		"min_ratio", ratio,
		"transcoding", bin != "",
	)

	return &Built{
		Pipeline: pipeline.New(deps, ratio),
		FFmpeg:   bin,
		Gateway:  gw,
	}, nil
}

// NewFetcher registers S3 when static credentials are set and Supabase when
// its URL and key are set. A Fetcher with no stores still rejects every URL
// with a remote-fetch error.
func NewFetcher(ctx context.Context, cfg config.StorageConfig) (*fetch.Fetcher, error) {
	var s3Store storage.ObjectStore
	if cfg.S3Enabled() {
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		s3Store = s3
	} else {
		slog.Warn("AWS credentials not set, S3 URLs will be rejected")
	}

	f := fetch.New(s3Store)
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		sb := storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey)
		f.WithSupabase(sb, sb.BaseURL())
	}
	return f, nil
}
