// Package pipeline sequences fetch, transcode, transcription, structuring
// and length enforcement for one audio input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/config"
	"github.com/nikhilbhutani/audiobrief/internal/metrics"
	"github.com/nikhilbhutani/audiobrief/internal/multimodal/stt"
	"github.com/nikhilbhutani/audiobrief/internal/summary"
)

// EmptyResultMessage replaces a final text that came out empty.
const EmptyResultMessage = "Could not improve the transcribed content."

// ErrNoInput is returned by Run when Input carries neither an asset nor a URL.
var ErrNoInput = errors.New("input needs an audio asset or a URL")

type Transcoder interface {
	Transcode(ctx context.Context, in audio.Asset) (audio.Asset, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, in audio.Asset) (stt.Result, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (audio.Asset, error)
}

type Structurer interface {
	StructureOrRaw(ctx context.Context, transcript string) (string, bool)
}

type Enforcer interface {
	Expand(ctx context.Context, draft, source string, minChars int) summary.Outcome
}

// Deps are the collaborators of a Pipeline. Transcoder is nil when no media
// engine is available; Fetcher is nil when no object store is configured.
type Deps struct {
	Transcoder  Transcoder
	Transcriber Transcriber
	Fetcher     Fetcher
	Structurer  Structurer
	Enforcer    Enforcer
}

// Pipeline is safe for concurrent use; it holds no per-run state.
type Pipeline struct {
	deps  Deps
	ratio float64
}

// New creates a Pipeline. ratio is clamped to the allowed range.
func New(deps Deps, ratio float64) *Pipeline {
	return &Pipeline{deps: deps, ratio: config.ClampRatio(ratio)}
}

// Input is either an uploaded asset or a remote object URL.
type Input struct {
	Asset *audio.Asset
	URL   string
}

// Result is the outcome of a successful run.
type Result struct {
	Text           string `json:"text"`
	Transcript     string `json:"transcript"`
	FileName       string `json:"file_name"`
	MinChars       int    `json:"min_chars"`
	Transcoded     bool   `json:"transcoded"`
	Structured     bool   `json:"structured"`
	Padded         bool   `json:"padded"`
	ExpansionCalls int    `json:"expansion_calls"`
}

// MinChars is floor(transcript characters * ratio), ratio clamped.
func MinChars(transcript string, ratio float64) int {
	n := utf8.RuneCountInString(transcript)
	return int(math.Floor(float64(n) * config.ClampRatio(ratio)))
}

func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	switch {
	case in.Asset != nil:
		return p.RunAsset(ctx, *in.Asset)
	case strings.TrimSpace(in.URL) != "":
		return p.RunURL(ctx, in.URL)
	default:
		return nil, ErrNoInput
	}
}

// RunURL downloads the object behind url and processes it.
func (p *Pipeline) RunURL(ctx context.Context, url string) (*Result, error) {
	if p.deps.Fetcher == nil {
		err := audio.NewStageError(audio.StageFetch, audio.ErrRemoteFetch, "no object store configured", nil)
		metrics.RecordPipelineRun("url", "error")
		return nil, err
	}

	var asset audio.Asset
	err := timed(audio.StageFetch, func() error {
		var err error
		asset, err = p.deps.Fetcher.Fetch(ctx, url)
		return err
	})
	if err != nil {
		metrics.RecordPipelineRun("url", "error")
		return nil, err
	}
	return p.process(ctx, "url", asset)
}

// RunAsset processes an in-memory asset.
func (p *Pipeline) RunAsset(ctx context.Context, asset audio.Asset) (*Result, error) {
	return p.process(ctx, "upload", asset)
}

func (p *Pipeline) process(ctx context.Context, source string, asset audio.Asset) (*Result, error) {
	start := time.Now()
	res, err := p.runStages(ctx, asset)
	if err != nil {
		metrics.RecordPipelineRun(source, "error")
		slog.Error("audio pipeline failed",
			"source", source,
			"file", asset.FileName(),
			"stage", audio.StageOf(err),
			"error", err,
		)
		return nil, err
	}

	metrics.RecordPipelineRun(source, "success")
	slog.Info("audio pipeline completed",
		"source", source,
		"file", asset.FileName(),
		"transcript_chars", utf8.RuneCountInString(res.Transcript),
		"text_chars", utf8.RuneCountInString(res.Text),
		"min_chars", res.MinChars,
		"transcoded", res.Transcoded,
		"structured", res.Structured,
		"padded", res.Padded,
		"expansion_calls", res.ExpansionCalls,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) runStages(ctx context.Context, asset audio.Asset) (*Result, error) {
	res := &Result{FileName: asset.FileName()}

	var prepared audio.Asset
	err := timed(audio.StageTranscode, func() error {
		var err error
		prepared, res.Transcoded, err = p.prepare(ctx, asset)
		return err
	})
	if err != nil {
		return nil, err
	}

	var tr stt.Result
	err = timed(audio.StageTranscribe, func() error {
		var err error
		tr, err = p.deps.Transcriber.Transcribe(ctx, prepared)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Transcript = tr.Text

	var draft string
	_ = timed(audio.StageStructure, func() error {
		draft, res.Structured = p.deps.Structurer.StructureOrRaw(ctx, tr.Text)
		return nil
	})

	res.MinChars = MinChars(tr.Text, p.ratio)
	_ = timed(audio.StageEnforce, func() error {
		out := p.deps.Enforcer.Expand(ctx, draft, tr.Text, res.MinChars)
		res.Text, res.Padded, res.ExpansionCalls = out.Text, out.Padded, out.Calls
		return nil
	})

	if strings.TrimSpace(res.Text) == "" {
		res.Text = EmptyResultMessage
	}
	return res, nil
}

// prepare returns the asset to send for transcription and whether it was
// transcoded. Without a media engine, or when transcoding fails, the original
// is used only if the service accepts it natively.
func (p *Pipeline) prepare(ctx context.Context, in audio.Asset) (audio.Asset, bool, error) {
	hint := audio.Classify(in.MIMEType(), in.FileName())
	native := audio.IsNativelyAcceptable(in.MIMEType(), in.FileName())
	slog.Info("audio received",
		"file", in.FileName(),
		"mime", in.MIMEType(),
		"bytes", in.Size(),
		"format", hint.String(),
		"native", native,
	)

	if p.deps.Transcoder == nil {
		if native {
			slog.Info("media engine unavailable, sending original audio", "file", in.FileName())
			return in, false, nil
		}
		return audio.Asset{}, false, unsupported(audio.StageClassify, in, nil)
	}

	out, err := p.deps.Transcoder.Transcode(ctx, in)
	if err == nil {
		return out, true, nil
	}
	if ctx.Err() != nil {
		return audio.Asset{}, false, err
	}
	if native {
		metrics.RecordNativeFallback()
		slog.Warn("transcoding failed, sending original audio", "file", in.FileName(), "error", err)
		return in, false, nil
	}
	return audio.Asset{}, false, unsupported(audio.StageTranscode, in, err)
}

func unsupported(stage string, in audio.Asset, cause error) error {
	msg := fmt.Sprintf("%q (%s) cannot be transcoded and is not one of: %s",
		in.FileName(), in.MIMEType(), audio.NativeFormats)
	return audio.NewStageError(stage, audio.ErrUnsupportedFormat, msg, cause)
}

func timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStageDuration(stage, time.Since(start).Seconds())
	return err
}
