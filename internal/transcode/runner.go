package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	execute "github.com/alexellis/go-execute/v2"
)

// Runner executes the media engine. stdin may be nil. It returns stdout.
type Runner interface {
	Run(ctx context.Context, bin string, args []string, stdin io.Reader) ([]byte, error)
}

// ExecRunner runs the engine as a subprocess.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, bin string, args []string, stdin io.Reader) ([]byte, error) {
	slog.Debug("ffmpeg start", "bin", bin, "args", strings.Join(args, " "))

	task := execute.ExecTask{
		Command: bin,
		Args:    args,
		Stdin:   stdin,
	}

	result, err := task.Execute(ctx)
	logStderr(result.Stderr)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", bin, err)
	}
	if result.Cancelled {
		return nil, fmt.Errorf("run %s: %w", bin, context.Canceled)
	}
	if result.ExitCode != 0 {
		return nil, &ExitError{Code: result.ExitCode, Stderr: lastLines(result.Stderr, 5)}
	}

	return []byte(result.Stdout), nil
}

// ExitError reports a non-zero engine exit.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.Code)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.Code, e.Stderr)
}

// IsExitError reports whether err came from a non-zero engine exit.
func IsExitError(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee)
}

// logStderr surfaces error lines and keeps the rest at debug level.
func logStderr(stderr string) {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "error") || strings.Contains(line, "Error") || strings.Contains(line, "Invalid") {
			slog.Error("ffmpeg stderr", "line", line)
		} else {
			slog.Debug("ffmpeg stderr", "line", line)
		}
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
