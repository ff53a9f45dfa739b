// Package coinflip implements CoinFlip, the engine's single-token,
// direct-move reference game (spec.md §8 scenario 1): each player
// reveals one Game token whose proof's c value decides Heads or Tails.
package coinflip

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/game"
)

// GameType is the string a Challenge names to select CoinFlip.
const GameType = "coinflip"

// Side is the decoded shape of a CoinFlip token's c value.
type Side int

const (
	Heads Side = iota
	Tails
)

func (s Side) String() string {
	if s == Tails {
		return "Tails"
	}
	return "Heads"
}

// CoinFlip implements game.Game (spec.md §4.4).
type CoinFlip struct{}

func (CoinFlip) Type() string { return GameType }

// DecodeCValue reports Heads if the c value's leading byte is even,
// Tails otherwise (spec.md §8 scenario 1).
func (CoinFlip) DecodeCValue(c [32]byte) []game.Piece {
	if c[0]%2 == 0 {
		return []game.Piece{Heads}
	}
	return []game.Piece{Tails}
}

func (CoinFlip) ValidateParameters(json.RawMessage) error { return nil }

// ValidateMove requires exactly one revealed token carrying exactly
// one proof, move_type "move" (no commit-reveal phase for CoinFlip).
func (CoinFlip) ValidateMove(events []nostr.Event, move game.MoveInput, author string) error {
	if move.MoveType != string(event.MoveTypeMove) {
		return fmt.Errorf("coinflip: expects a direct move, got move_type %q", move.MoveType)
	}
	if len(move.RevealedTokens) != 1 || len(move.RevealedTokens[0].CValues) != 1 {
		return fmt.Errorf("coinflip: a move must reveal exactly one single-proof token")
	}
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove || ev.PubKey != author {
			continue
		}
		return fmt.Errorf("coinflip: %s already revealed their coin", author)
	}
	return nil
}

// IsComplete reports true once both players have revealed (spec.md §4.4
// "is_complete").
func (CoinFlip) IsComplete(events []nostr.Event) bool {
	authors := map[string]bool{}
	for _, ev := range events {
		if event.Kind(ev.Kind) == event.KindMove {
			authors[ev.PubKey] = true
		}
	}
	return len(authors) >= 2
}

// DetermineWinner compares the two revealed coins' raw byte-0 values:
// the lower value wins, and equal bytes are a draw (spec.md §8 scenario
// 1). The decoded Side is not consulted, so 0x00 (Heads) beats 0x01
// (Tails), and 0x01 (Tails) also beats 0x02 (Heads).
func (CoinFlip) DetermineWinner(events []nostr.Event) (string, bool, error) {
	type reveal struct {
		author string
		c0     byte
	}
	var reveals []reveal
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove {
			continue
		}
		mv, err := event.ParseMove(ev)
		if err != nil {
			return "", false, err
		}
		toks, err := event.FromWireTokens(mv.RevealedTokens)
		if err != nil {
			return "", false, err
		}
		if len(toks) != 1 || len(toks[0].Proofs) != 1 {
			return "", false, fmt.Errorf("coinflip: move by %s did not reveal exactly one proof", ev.PubKey)
		}
		reveals = append(reveals, reveal{author: ev.PubKey, c0: toks[0].Proofs[0].C[0]})
	}
	if len(reveals) != 2 {
		return "", false, fmt.Errorf("coinflip: determine_winner requires exactly two reveals, got %d", len(reveals))
	}
	a, b := reveals[0], reveals[1]
	switch {
	case a.c0 == b.c0:
		return "", true, nil
	case a.c0 < b.c0:
		return a.author, false, nil
	default:
		return b.author, false, nil
	}
}

func (CoinFlip) RequiredFinalEvents() int { return 1 }
