// Package kirkerr implements the single sum-typed error surface Kirk
// exposes to callers (spec.md §6 "Error surface", §7).
package kirkerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies where in the pipeline a failure occurred (spec.md §7).
type Kind int

const (
	TransportFailure Kind = iota
	MintFailure
	CodecError
	CommitmentError
	GameRuleViolation
	TimeoutViolation
	ReplayDetected
	InternalError
)

func (k Kind) String() string {
	switch k {
	case TransportFailure:
		return "TransportFailure"
	case MintFailure:
		return "MintFailure"
	case CodecError:
		return "CodecError"
	case CommitmentError:
		return "CommitmentError"
	case GameRuleViolation:
		return "GameRuleViolation"
	case TimeoutViolation:
		return "TimeoutViolation"
	case ReplayDetected:
		return "ReplayDetected"
	case InternalError:
		return "InternalError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Retryable reports whether the propagation policy (spec.md §7) treats
// this kind as locally recoverable with bounded retries.
func (k Kind) Retryable() bool {
	return k == TransportFailure || k == MintFailure
}

// Error is Kirk's sum-typed error. It wraps a cause with pkg/errors so
// callers keep a stack trace through errors.Cause, the way the teacher
// wraps failures with fmt.Errorf("...: %w", err) but with an added Kind
// tag so the sequence state machine can route the failure without
// string-matching the message.
type Error struct {
	Kind    Kind
	EventID string // offending event, if any
	cause   error
}

func New(kind Kind, eventID string, msg string) *Error {
	return &Error{Kind: kind, EventID: eventID, cause: errors.New(msg)}
}

func Wrap(kind Kind, eventID string, err error, msg string) *Error {
	return &Error{Kind: kind, EventID: eventID, cause: errors.Wrap(err, msg)}
}

func (e *Error) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.EventID, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Cause returns the innermost wrapped error, skipping pkg/errors frames.
func (e *Error) Cause() error { return errors.Cause(e.cause) }
