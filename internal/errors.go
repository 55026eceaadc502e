package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrInput marks a missing or unusable URL argument or flag value
	ErrInput = errors.New("invalid input")
	// ErrDownload marks a failed audio download or metadata extraction
	ErrDownload = errors.New("download failed")
	// ErrTranscription marks a failed speech-to-text run
	ErrTranscription = errors.New("transcription failed")
	// ErrFileAccess marks an I/O failure reading input or writing output
	ErrFileAccess = errors.New("file access failed")
)

// JobError is a stage-aware error for a single job
type JobError struct {
	Stage JobState
	URL   string
	Kind  error
	Err   error
}

// NewJobError wraps err with the stage it happened in and its error kind
func NewJobError(stage JobState, url string, kind, err error) *JobError {
	return &JobError{Stage: stage, URL: url, Kind: kind, Err: err}
}

func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	// the cause already names its kind
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the error kind and the cause to errors.Is / errors.As
func (e *JobError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{e.Kind, e.Err}
}

// inputErrorf builds an ErrInput with a formatted message
func inputErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInput, fmt.Sprintf(format, args...))
}

// fileAccessError wraps an I/O error on path as ErrFileAccess
func fileAccessError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrFileAccess, op, path, err)
}
