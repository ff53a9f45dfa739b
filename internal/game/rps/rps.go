// Package rps implements RockPaperScissors, the engine's multi-phase
// commit-reveal reference game (spec.md §8 scenario 2's shape): each
// player commits to a throw, then reveals the token whose c value
// decodes it, and both must sign Final for the sequence to complete.
package rps

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/game"
)

// GameType is the string a Challenge names to select RockPaperScissors.
const GameType = "rock_paper_scissors"

// Throw is the decoded shape of an RPS token's c value.
type Throw int

const (
	Rock Throw = iota
	Paper
	Scissors
)

func (t Throw) String() string {
	switch t {
	case Paper:
		return "Paper"
	case Scissors:
		return "Scissors"
	default:
		return "Rock"
	}
}

// beats reports whether t beats other under standard rules.
func (t Throw) beats(other Throw) bool {
	return (t == Rock && other == Scissors) ||
		(t == Paper && other == Rock) ||
		(t == Scissors && other == Paper)
}

// RockPaperScissors implements game.Game (spec.md §4.4).
type RockPaperScissors struct{}

func (RockPaperScissors) Type() string { return GameType }

// DecodeCValue maps the c value's leading byte mod 3 onto a Throw.
func (RockPaperScissors) DecodeCValue(c [32]byte) []game.Piece {
	return []game.Piece{Throw(c[0] % 3)}
}

func (RockPaperScissors) ValidateParameters(json.RawMessage) error { return nil }

// ValidateMove enforces the commit-then-reveal order per author: a
// Commit carries no reveal; a Reveal must follow exactly one of that
// author's own, not-yet-revealed Commits, and carries exactly one
// single-proof token (spec.md §4.4 "may accept Commit/Reveal
// semantics").
func (RockPaperScissors) ValidateMove(events []nostr.Event, move game.MoveInput, author string) error {
	switch move.MoveType {
	case string(event.MoveTypeCommit):
		if len(move.RevealedTokens) != 0 {
			return fmt.Errorf("rps: a commit must not reveal any token")
		}
		if hasOwnCommit(events, author) {
			return fmt.Errorf("rps: %s already committed", author)
		}
		return nil
	case string(event.MoveTypeReveal):
		if !hasOwnCommit(events, author) {
			return fmt.Errorf("rps: %s revealed without a prior commit", author)
		}
		if hasOwnReveal(events, author) {
			return fmt.Errorf("rps: %s already revealed", author)
		}
		if len(move.RevealedTokens) != 1 || len(move.RevealedTokens[0].CValues) != 1 {
			return fmt.Errorf("rps: a reveal must carry exactly one single-proof token")
		}
		return nil
	default:
		return fmt.Errorf("rps: unsupported move_type %q", move.MoveType)
	}
}

func hasOwnCommit(events []nostr.Event, author string) bool {
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove || ev.PubKey != author {
			continue
		}
		if mv, err := event.ParseMove(ev); err == nil && mv.MoveType == event.MoveTypeCommit {
			return true
		}
	}
	return false
}

func hasOwnReveal(events []nostr.Event, author string) bool {
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove || ev.PubKey != author {
			continue
		}
		if mv, err := event.ParseMove(ev); err == nil && mv.MoveType == event.MoveTypeReveal {
			return true
		}
	}
	return false
}

// IsComplete reports true once both players have revealed.
func (RockPaperScissors) IsComplete(events []nostr.Event) bool {
	revealed := map[string]bool{}
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove {
			continue
		}
		if mv, err := event.ParseMove(ev); err == nil && mv.MoveType == event.MoveTypeReveal {
			revealed[ev.PubKey] = true
		}
	}
	return len(revealed) >= 2
}

func throwsByAuthor(events []nostr.Event) (map[string]Throw, error) {
	out := map[string]Throw{}
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove {
			continue
		}
		mv, err := event.ParseMove(ev)
		if err != nil || mv.MoveType != event.MoveTypeReveal {
			continue
		}
		toks, err := event.FromWireTokens(mv.RevealedTokens)
		if err != nil {
			return nil, err
		}
		if len(toks) != 1 || len(toks[0].Proofs) != 1 {
			return nil, fmt.Errorf("rps: reveal by %s did not carry exactly one proof", ev.PubKey)
		}
		out[ev.PubKey] = Throw(toks[0].Proofs[0].C[0] % 3)
	}
	return out, nil
}

// DetermineWinner decodes both players' revealed throws and applies
// standard Rock-Paper-Scissors rules; equal throws draw.
func (RockPaperScissors) DetermineWinner(events []nostr.Event) (string, bool, error) {
	throws, err := throwsByAuthor(events)
	if err != nil {
		return "", false, err
	}
	if len(throws) != 2 {
		return "", false, fmt.Errorf("rps: determine_winner requires exactly two reveals, got %d", len(throws))
	}
	var players []string
	for p := range throws {
		players = append(players, p)
	}
	a, b := players[0], players[1]
	ta, tb := throws[a], throws[b]
	switch {
	case ta == tb:
		return "", true, nil
	case ta.beats(tb):
		return a, false, nil
	default:
		return b, false, nil
	}
}

func (RockPaperScissors) RequiredFinalEvents() int { return 2 }
