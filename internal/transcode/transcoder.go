// Package transcode normalizes arbitrary input audio to stereo 44.1 kHz
// 128k CBR MP3 with ffmpeg, trying an in-memory stream first and a temp-file
// run second.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/metrics"
)

// Transcoder runs its strategies in order and returns the first success.
type Transcoder struct {
	strategies []Strategy
}

// New creates a Transcoder over explicit strategies.
func New(strategies ...Strategy) *Transcoder {
	return &Transcoder{strategies: strategies}
}

// NewFFmpeg creates the standard stream-then-tempfile Transcoder.
func NewFFmpeg(bin string, runner Runner, fs afero.Fs, tempDir string) *Transcoder {
	if runner == nil {
		runner = ExecRunner{}
	}
	return New(
		NewStreamStrategy(bin, runner),
		NewTempFileStrategy(bin, runner, fs, tempDir),
	)
}

// Transcode returns a new MP3 asset, or an error matching audio.ErrTranscode
// when every strategy failed.
func (t *Transcoder) Transcode(ctx context.Context, in audio.Asset) (audio.Asset, error) {
	if len(t.strategies) == 0 {
		return audio.Asset{}, audio.NewStageError(audio.StageTranscode, audio.ErrTranscode, "no strategies configured", nil)
	}

	var errs []error
	for _, s := range t.strategies {
		start := time.Now()
		out, err := t.attempt(ctx, s, in)
		if err == nil {
			metrics.RecordTranscodeAttempt(s.Name(), "success")
			slog.Info("transcoding completed",
				"strategy", s.Name(),
				"file", in.FileName(),
				"input_bytes", in.Size(),
				"output_bytes", len(out),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return audio.NewAsset(out, OutputMIME, in.Stem()+"."+OutputFormat), nil
		}

		metrics.RecordTranscodeAttempt(s.Name(), "failed")
		slog.Warn("transcoding strategy failed",
			"strategy", s.Name(),
			"file", in.FileName(),
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))

		if ctx.Err() != nil {
			break
		}
	}

	return audio.Asset{}, audio.NewStageError(audio.StageTranscode, audio.ErrTranscode, "all strategies failed", errors.Join(errs...))
}

// attempt isolates a strategy panic so the next strategy still runs.
func (t *Transcoder) attempt(ctx context.Context, s Strategy, in audio.Asset) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Transcode(ctx, in)
}
