// Package event implements Kirk's wire event schema (spec.md §3, §4.3):
// the five game-protocol event kinds, their JSON content shapes, and the
// codec that builds/parses/chains them. The wire event itself is a
// github.com/nbd-wtf/go-nostr Event — Kirk borrows nostr's id derivation
// and signature scheme wholesale rather than inventing its own, per
// spec.md §6 ("the transport's canonical id").
package event

import "fmt"

// Kind is one of Kirk's five game-protocol event kinds (spec.md §3, §6).
// The numeric values are fixed for interoperability and must never change.
type Kind int

const (
	KindChallenge       Kind = 9259
	KindChallengeAccept Kind = 9260
	KindMove            Kind = 9261
	KindFinal           Kind = 9262
	KindReward          Kind = 9263
)

func (k Kind) String() string {
	switch k {
	case KindChallenge:
		return "Challenge"
	case KindChallengeAccept:
		return "ChallengeAccept"
	case KindMove:
		return "Move"
	case KindFinal:
		return "Final"
	case KindReward:
		return "Reward"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsGameKind reports whether k is one of Kirk's five kinds.
func IsGameKind(k int) bool {
	switch Kind(k) {
	case KindChallenge, KindChallengeAccept, KindMove, KindFinal, KindReward:
		return true
	default:
		return false
	}
}

// MoveType distinguishes a direct Move from the two halves of a
// commit-reveal exchange (spec.md §3 "Move").
type MoveType string

const (
	MoveTypeMove   MoveType = "move"
	MoveTypeCommit MoveType = "commit"
	MoveTypeReveal MoveType = "reveal"
)

func (mt MoveType) Valid() bool {
	switch mt {
	case MoveTypeMove, MoveTypeCommit, MoveTypeReveal:
		return true
	default:
		return false
	}
}
