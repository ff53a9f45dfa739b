// Package sequence implements the per-game state machine (C5, spec.md
// §3 "GameSequence", §4.5) and the fraud-detector-driven timeout
// bookkeeping (C6, §4.6) that folds an event list into a terminal
// verdict. It is the engine's only mutable-looking core: in practice
// every operation consumes a GameSequence value and returns a new one,
// per spec.md §9 "Sequence ownership".
package sequence

import (
	"github.com/nbd-wtf/go-nostr"
)

// State is one of GameSequence's five lifecycle states (spec.md §3
// "GameSequence").
type State int

const (
	StateWaitingForAccept State = iota
	StateInProgress
	StateWaitingForFinal
	StateComplete
	StateForfeited
)

func (s State) String() string {
	switch s {
	case StateWaitingForAccept:
		return "WaitingForAccept"
	case StateInProgress:
		return "InProgress"
	case StateWaitingForFinal:
		return "WaitingForFinal"
	case StateComplete:
		return "Complete"
	case StateForfeited:
		return "Forfeited"
	default:
		return "Unknown"
	}
}

func (s State) Terminal() bool {
	return s == StateComplete || s == StateForfeited
}

// Verdict names the outcome of a terminated sequence (spec.md §3
// "Complete{winner?}", "Forfeited{winner, offender}", §4.6 "Forfeit
// verdict").
type Verdict struct {
	// Winner is "" for a draw. A dissolved challenge names the
	// challenger here nominally (see Dissolved).
	Winner string
	// Offender is "" unless this verdict resolved a fraud or timeout
	// class (spec.md §4.6).
	Offender string
	// Draw is true when the game's DetermineWinner reports a draw, or
	// when both players were simultaneously delinquent (spec.md §4.6
	// "the sequence is declared drawn with no rewards").
	Draw bool
	// Dissolved is true only for a Challenge that expired before any
	// ChallengeAccept arrived: the sequence terminates naming the
	// challenger nominally but issues no reward (spec.md §4.5 table,
	// "actually dissolved, no reward").
	Dissolved bool
}

// GameSequence is the in-memory reassembly of one game (spec.md §3).
type GameSequence struct {
	Root         string
	GameType     string
	Players      [2]string // [0] = challenger, [1] = accepter (once fixed)
	Events       []nostr.Event
	State        State
	Verdict      Verdict
	CreatedAt    int64
	LastActivity int64
}

// ErrorKind tags the class of a ValidationError (spec.md §3
// "ValidationError").
type ErrorKind string

const (
	ErrInvalidToken      ErrorKind = "InvalidToken"
	ErrInvalidCommitment ErrorKind = "InvalidCommitment"
	ErrInvalidSequence   ErrorKind = "InvalidSequence"
	ErrInvalidMove       ErrorKind = "InvalidMove"
	ErrTimeoutViolation  ErrorKind = "TimeoutViolation"
	ErrReplay            ErrorKind = "Replay"
	// ErrMintUnavailable marks a fold that made no progress because the
	// mint itself could not answer (kirkerr.MintFailure is Retryable) —
	// never a verdict against either player. Apply returns this kind
	// with the sequence unchanged.
	ErrMintUnavailable ErrorKind = "MintUnavailable"
)

// ValidationError names one offending event and why it failed a
// transition (spec.md §3 "ValidationError").
type ValidationError struct {
	EventID string
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Kind) + "[" + e.EventID + "]: " + e.Message
}

// otherPlayer returns the player in players that is not p, or "" if p
// is not recognized or the peer slot is still unset.
func otherPlayer(players [2]string, p string) string {
	switch p {
	case players[0]:
		return players[1]
	case players[1]:
		return players[0]
	default:
		return ""
	}
}

func appendEvent(seq GameSequence, ev nostr.Event) GameSequence {
	next := seq
	next.Events = make([]nostr.Event, len(seq.Events)+1)
	copy(next.Events, seq.Events)
	next.Events[len(seq.Events)] = ev
	next.LastActivity = int64(ev.CreatedAt)
	return next
}
