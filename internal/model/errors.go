package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories the core reports
type ErrorKind string

const (
	// KindExtraction means the media engine could not produce an artifact
	KindExtraction ErrorKind = "extraction"

	// KindFilesystem means a local filesystem operation failed
	KindFilesystem ErrorKind = "filesystem"
)

// Error carries a kind, the failed operation, a human-readable detail that is
// safe to show to users, and the underlying cause for logs.
type Error struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewExtractionError wraps err as an extraction failure
func NewExtractionError(op, detail string, err error) *Error {
	return &Error{Kind: KindExtraction, Op: op, Detail: detail, Err: err}
}

// NewFilesystemError wraps err as a filesystem failure
func NewFilesystemError(op, detail string, err error) *Error {
	return &Error{Kind: KindFilesystem, Op: op, Detail: detail, Err: err}
}

// KindOf returns the kind of err, or "" when err carries no *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsExtraction reports whether err is an extraction failure
func IsExtraction(err error) bool {
	return KindOf(err) == KindExtraction
}

// IsFilesystem reports whether err is a filesystem failure
func IsFilesystem(err error) bool {
	return KindOf(err) == KindFilesystem
}

// UserMessage returns the text that may be shown to an end user for err.
// Causes not wrapped in *Error are reduced to a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Detail != "" {
			return e.Detail
		}
		return fmt.Sprintf("%s failure", e.Kind)
	}
	return "unexpected failure"
}
