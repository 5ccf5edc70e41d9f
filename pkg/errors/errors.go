// Package errors defines the release engine's structured error taxonomy.
//
// Every failure surfaced to a user carries one of a fixed set of kinds
// (Config, Precondition, Io, Network, Logic, Protocol). Plugins communicate
// failures across the wire as protocol.Failure; this package is the
// engine-side representation used for Go-native error wrapping (errors.As,
// errors.Unwrap) and for the taxonomy prefixes printed on exit.
package errors

import (
	"fmt"
	"strings"
)

// Kind enumerates the fixed failure taxonomy from the release pipeline spec.
type Kind string

const (
	Config       Kind = "config"
	Precondition Kind = "precondition"
	Io           Kind = "io"
	Network      Kind = "network"
	Logic        Kind = "logic"
	Protocol     Kind = "protocol"
)

// Failure is the engine-side error type for every taxonomy kind.
type Failure struct {
	Kind    Kind
	Message string
	Cause   error
}

// New constructs a Failure of the given kind.
func New(kind Kind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Cause: cause}
}

// NewConfigError constructs a Config failure.
func NewConfigError(message string, cause error) *Failure { return New(Config, message, cause) }

// NewPreconditionError constructs a Precondition failure.
func NewPreconditionError(message string, cause error) *Failure {
	return New(Precondition, message, cause)
}

// NewIoError constructs an Io failure.
func NewIoError(message string, cause error) *Failure { return New(Io, message, cause) }

// NewNetworkError constructs a Network failure.
func NewNetworkError(message string, cause error) *Failure { return New(Network, message, cause) }

// NewLogicError constructs a Logic failure.
func NewLogicError(message string, cause error) *Failure { return New(Logic, message, cause) }

// NewProtocolError constructs a Protocol failure.
func NewProtocolError(message string, cause error) *Failure { return New(Protocol, message, cause) }

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes the underlying cause for errors.As/errors.Is chains.
func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Cause
}

// Is matches any Failure of the same Kind, letting callers write
// errors.Is(err, &Failure{Kind: Config}).
func (f *Failure) Is(target error) bool {
	other, ok := target.(*Failure)
	if !ok {
		return false
	}
	return other.Kind == f.Kind
}

// MultiFailure aggregates independent failures collected during the
// pre_flight fan-out, where the engine keeps gathering every plugin's
// failure instead of stopping at the first (spec: "fail-fast across
// plugins is disabled for pre_flight").
type MultiFailure struct {
	Failures []*Failure
}

// Add appends a failure, coercing a plain error into a Logic failure if it
// isn't already typed.
func (m *MultiFailure) Add(err error) {
	if err == nil {
		return
	}
	if f, ok := err.(*Failure); ok {
		m.Failures = append(m.Failures, f)
		return
	}
	m.Failures = append(m.Failures, New(Logic, err.Error(), err))
}

// Len reports how many failures have been collected.
func (m *MultiFailure) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Failures)
}

func (m *MultiFailure) Error() string {
	lines := make([]string, 0, len(m.Failures))
	for _, f := range m.Failures {
		lines = append(lines, f.Error())
	}
	return strings.Join(lines, "\n")
}

// AsFailure unwraps err into a *Failure if the chain contains one.
func AsFailure(err error) (*Failure, bool) {
	for err != nil {
		if f, ok := err.(*Failure); ok {
			return f, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
