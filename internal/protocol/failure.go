package protocol

import (
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Failure is the wire representation of a plugin-reported error: a kind
// drawn from the fixed taxonomy, a human-readable message, and an optional
// cause chain rendered as a string (errors do not survive gob encoding, so
// the cause is carried as text once it crosses the process boundary).
type Failure struct {
	Kind    streamyerrors.Kind
	Message string
	Cause   string
}

// NewFailure builds a wire Failure from a kind, message, and optional cause.
func NewFailure(kind streamyerrors.Kind, message string, cause error) *Failure {
	f := &Failure{Kind: kind, Message: message}
	if cause != nil {
		f.Cause = cause.Error()
	}
	return f
}

// ToError converts the wire Failure back into an engine-side *errors.Failure.
func (f *Failure) ToError() *streamyerrors.Failure {
	if f == nil {
		return nil
	}
	var cause error
	if f.Cause != "" {
		cause = plainError(f.Cause)
	}
	return streamyerrors.New(f.Kind, f.Message, cause)
}

type plainError string

func (p plainError) Error() string { return string(p) }
