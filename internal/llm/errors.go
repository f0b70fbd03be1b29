package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure reported by a provider. Status is the HTTP status, or 0
// when the request never got a response.
type Error struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Provider + " chat"
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call could succeed: rate limits,
// server errors and transport failures are; other client errors and
// cancellation are not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Status == 0 {
		return true
	}
	return pe.Status == http.StatusTooManyRequests || pe.Status >= 500
}
