package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a run failure. The kind decides how the failure is
// surfaced: Cancelled fires the cancel event and is never reported as an
// error, everything else aborts the run and fires the error event.
type ErrorKind string

const (
	// ErrorKindUnsupportedEnvironment means a required capability is absent
	// (e.g. no ffmpeg for video input). Surfaced before any work begins.
	ErrorKindUnsupportedEnvironment ErrorKind = "unsupported_environment"
	ErrorKindFileRead               ErrorKind = "file_read_failure"
	ErrorKindDecode                 ErrorKind = "decode_failure"
	ErrorKindEngineLoad             ErrorKind = "engine_load_failure"
	ErrorKindEngineInference        ErrorKind = "engine_inference_failure"
	ErrorKindMediaPlayback          ErrorKind = "media_playback_failure"
	ErrorKindCancelled              ErrorKind = "cancelled"
)

// Error wraps a phase failure with its kind. It unwraps to the underlying
// cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// ErrCancelled is the distinguished outcome of a cancelled run.
var ErrCancelled = &Error{Kind: ErrorKindCancelled, Err: errors.New("transcription cancelled")}

// ErrBusy is returned when Transcribe is called while a run is already in
// flight on the same instance.
var ErrBusy = errors.New("transcription already in progress")

// KindOf extracts the error kind, or the empty string for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsCancelled reports whether err represents a cancelled run rather than a
// true failure.
func IsCancelled(err error) bool {
	return KindOf(err) == ErrorKindCancelled
}
