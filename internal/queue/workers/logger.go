package workers

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
)

var _ asynq.Logger = (*Logger)(nil)

// Logger routes asynq's internal logging through slog.
type Logger struct {
	l *slog.Logger
}

func NewLogger(l *slog.Logger) *Logger {
	return &Logger{l: l.With("component", "asynq")}
}

func (l *Logger) Debug(args ...interface{}) { l.l.Debug(fmt.Sprint(args...)) }
func (l *Logger) Info(args ...interface{})  { l.l.Info(fmt.Sprint(args...)) }
func (l *Logger) Warn(args ...interface{})  { l.l.Warn(fmt.Sprint(args...)) }
func (l *Logger) Error(args ...interface{}) { l.l.Error(fmt.Sprint(args...)) }

func (l *Logger) Fatal(args ...interface{}) {
	l.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}
