package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
)

// Output encoding shared by both strategies.
const (
	OutputCodec      = "libmp3lame"
	OutputBitrate    = "128k"
	OutputChannels   = 2
	OutputSampleRate = 44100
	OutputFormat     = "mp3"
	OutputMIME       = "audio/mpeg"
)

var errEmptyOutput = errors.New("ffmpeg produced no output")

// Strategy is one way of running the media engine over an asset.
type Strategy interface {
	Name() string
	Transcode(ctx context.Context, in audio.Asset) ([]byte, error)
}

func encodeArgs() []string {
	return []string{
		"-vn",
		"-acodec", OutputCodec,
		"-b:a", OutputBitrate,
		"-ac", fmt.Sprint(OutputChannels),
		"-ar", fmt.Sprint(OutputSampleRate),
		"-f", OutputFormat,
	}
}

// inputArgs forces the demuxer when the format is known; some mobile
// containers are misdetected by probing alone.
func inputArgs(in audio.Asset, src string) []string {
	args := []string{"-hide_banner", "-nostats"}
	if hint := audio.Classify(in.MIMEType(), in.FileName()); hint != audio.FormatUnknown {
		slog.Debug("ffmpeg input format", "format", hint.String(), "file", in.FileName())
		args = append(args, "-f", string(hint))
	}
	return append(args, "-i", src)
}

// StreamStrategy pipes the input through stdin and collects stdout.
type StreamStrategy struct {
	bin    string
	runner Runner
}

func NewStreamStrategy(bin string, runner Runner) *StreamStrategy {
	return &StreamStrategy{bin: bin, runner: runner}
}

func (s *StreamStrategy) Name() string { return "stream" }

func (s *StreamStrategy) Transcode(ctx context.Context, in audio.Asset) ([]byte, error) {
	args := inputArgs(in, "pipe:0")
	args = append(args, encodeArgs()...)
	args = append(args, "pipe:1")

	out, err := s.runner.Run(ctx, s.bin, args, bytes.NewReader(in.Data()))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errEmptyOutput
	}
	return out, nil
}

// TempFileStrategy writes the input to disk so demuxers that need seekable
// input can read it. Both temp files are removed on every return path.
type TempFileStrategy struct {
	bin    string
	runner Runner
	fs     afero.Fs
	dir    string
}

func NewTempFileStrategy(bin string, runner Runner, fs afero.Fs, dir string) *TempFileStrategy {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &TempFileStrategy{bin: bin, runner: runner, fs: fs, dir: dir}
}

func (s *TempFileStrategy) Name() string { return "tempfile" }

func (s *TempFileStrategy) Transcode(ctx context.Context, in audio.Asset) (out []byte, err error) {
	var created []string
	defer func() {
		for _, p := range created {
			if rmErr := s.fs.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
				slog.Warn("could not remove temp file", "path", p, "error", rmErr)
			}
		}
	}()

	inPath, err := s.writeTemp("audio_input_*"+inputExt(in), in.Data())
	if inPath != "" {
		created = append(created, inPath)
	}
	if err != nil {
		return nil, fmt.Errorf("write input temp file: %w", err)
	}

	outPath, err := s.writeTemp("audio_output_*."+OutputFormat, nil)
	if outPath != "" {
		created = append(created, outPath)
	}
	if err != nil {
		return nil, fmt.Errorf("create output temp file: %w", err)
	}
	slog.Debug("ffmpeg temp files", "input", inPath, "output", outPath)

	args := inputArgs(in, inPath)
	args = append([]string{"-y"}, args...)
	args = append(args, encodeArgs()...)
	args = append(args, outPath)

	if _, err := s.runner.Run(ctx, s.bin, args, nil); err != nil {
		return nil, err
	}

	out, err = afero.ReadFile(s.fs, outPath)
	if err != nil {
		return nil, fmt.Errorf("read output temp file: %w", err)
	}
	if len(out) == 0 {
		return nil, errEmptyOutput
	}
	return out, nil
}

// writeTemp creates a uniquely named file. The returned path is set whenever
// the file exists on disk, even if writing failed.
func (s *TempFileStrategy) writeTemp(pattern string, data []byte) (string, error) {
	f, err := afero.TempFile(s.fs, s.dir, pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if len(data) > 0 {
		if _, err := f.Write(data); err != nil {
			f.Close()
			return path, err
		}
	}
	return path, f.Close()
}

func inputExt(in audio.Asset) string {
	if ext := filepath.Ext(in.FileName()); ext != "" {
		return ext
	}
	return audio.ExtensionFromMIME(in.MIMEType())
}
