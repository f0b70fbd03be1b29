package audio

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is against any error returned by the
// pipeline.
var (
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrTranscode          = errors.New("transcoding failed")
	ErrRemoteFetch        = errors.New("remote fetch failed")
	ErrTranscription      = errors.New("transcription failed")
	ErrTranscriptionEmpty = errors.New("transcription returned empty text")
)

// Stage names used in errors, logs and metrics.
const (
	StageFetch      = "fetch"
	StageClassify   = "classify"
	StageTranscode  = "transcode"
	StageTranscribe = "transcribe"
	StageStructure  = "structure"
	StageEnforce    = "enforce"
)

// StageError is a fatal pipeline failure. Kind is one of the sentinel errors
// above; Status and Detail carry what a remote service reported, if anything.
type StageError struct {
	Stage   string
	Kind    error
	Message string
	Status  int
	Detail  string
	Err     error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() error { return e.Err }

// Is matches the error kind so callers can use errors.Is(err, ErrTranscode).
func (e *StageError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewStageError creates a StageError of the given kind.
func NewStageError(stage string, kind error, message string, cause error) *StageError {
	return &StageError{
		Stage:   stage,
		Kind:    kind,
		Message: message,
		Err:     cause,
	}
}

// StageOf returns the stage name of the first StageError in err's chain.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
