package transcode

import (
	"log/slog"
	"os"
	"os/exec"

	"github.com/nikhilbhutani/audiobrief/internal/config"
)

// ResolveBinary finds the ffmpeg binary: explicit override, then the bundled
// static location, then PATH. An empty result means transcoding is unavailable.
func ResolveBinary(cfg config.MediaConfig) string {
	if cfg.FFmpegPath != "" {
		slog.Info("ffmpeg configured", "path", cfg.FFmpegPath, "source", "FFMPEG_PATH")
		return cfg.FFmpegPath
	}
	if cfg.FFmpegStaticPath != "" {
		if fi, err := os.Stat(cfg.FFmpegStaticPath); err == nil && !fi.IsDir() {
			slog.Info("ffmpeg configured", "path", cfg.FFmpegStaticPath, "source", "static")
			return cfg.FFmpegStaticPath
		}
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		slog.Info("ffmpeg configured", "path", p, "source", "PATH")
		return p
	}
	slog.Warn("ffmpeg not found, transcoding disabled; only natively accepted formats will be processed")
	return ""
}
