// Package game declares Kirk's game capability surface (spec.md §4.4,
// §9 "Game polymorphism"): the abstract operations a concrete game must
// provide so the sequence state machine (internal/sequence) can drive
// any two-player game without knowing its rules. Concrete games live in
// their own subpackages (internal/game/coinflip, internal/game/rps) and
// register themselves in a Registry keyed by game_type string, never a
// class hierarchy.
package game

import (
	"encoding/json"

	"github.com/nbd-wtf/go-nostr"
)

// Piece is the decoded shape of one 32-byte c value. The engine places
// no constraints on it beyond equal inputs yielding equal outputs
// (spec.md §4.4 "decode_c_value").
type Piece = any

// RevealedToken is the game-visible shape of a revealed token: its
// per-proof c values, which is all DecodeCValue needs.
type RevealedToken struct {
	// CValues holds one 32-byte c value per proof in the token, in the
	// token's native order (spec.md §4.1 "proof order is part of the
	// token's identity").
	CValues [][32]byte
}

// MoveInput is what ValidateMove sees of the candidate move: enough of
// event.MoveContent to judge legality, without this package importing
// internal/event (games are leaves; the event schema depends on
// nothing game-specific).
type MoveInput struct {
	MoveType       string
	MoveData       json.RawMessage
	RevealedTokens []RevealedToken
}

// Game is the capability set every concrete game implements (spec.md
// §4.4). All operations are pure functions of the event list the
// sequence has accumulated so far — games must not consult wall-clock
// time or hold private state (spec.md §4.4 "Games must not rely on...").
type Game interface {
	// Type is the game_type string a Challenge names to select this
	// game from a Registry.
	Type() string

	// DecodeCValue decodes one token's c value into game pieces.
	DecodeCValue(c [32]byte) []Piece

	// ValidateMove checks a Move against the events accumulated so
	// far in the sequence (not including the candidate move itself)
	// and the move's own content. It returns nil if the move is
	// legal, or an error describing the violation (spec.md §4.4
	// "validate_move", surfaced as GameRuleViolation, §4.6 "Illegal
	// move").
	ValidateMove(events []nostr.Event, move MoveInput, author string) error

	// IsComplete decides whether events (the full post-Accept chain)
	// has reached a terminal game position.
	IsComplete(events []nostr.Event) bool

	// DetermineWinner is total on a complete sequence. winner=="" with
	// draw==true encodes a draw (spec.md §4.4 "None encodes a draw").
	DetermineWinner(events []nostr.Event) (winner string, draw bool, err error)

	// RequiredFinalEvents reports whether the sequence machine must
	// wait for both players' Final (2) or may complete on the first
	// (1) (spec.md §4.4).
	RequiredFinalEvents() int

	// ValidateParameters checks Challenge.game_parameters against the
	// game's schema. A game with no parameter constraints returns nil
	// unconditionally (spec.md §4.4 "parameters_schema()", optional).
	ValidateParameters(params json.RawMessage) error
}
