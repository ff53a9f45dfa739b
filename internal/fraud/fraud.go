// Package fraud implements the fraud detector (C6, spec.md §4.6): given
// a deviation class and the event that committed it, it names the
// honest party and produces a forfeit verdict. It holds no state of its
// own — every fraud class the sequence state machine detects resolves
// through this package so the "honest party is the other player" rule
// (and its timeout-specific exceptions) lives in exactly one place.
package fraud

// Class identifies which of spec.md §4.6's deviation classes was
// detected.
type Class string

const (
	ClassInvalidToken       Class = "invalid_token"
	ClassCommitmentMismatch Class = "commitment_mismatch"
	ClassIllegalMove        Class = "illegal_move"
	ClassChainViolation     Class = "chain_violation"
	ClassReplay             Class = "replay"
	ClassTimeout            Class = "timeout"
)

// Verdict names a forfeit outcome: who benefits, who caused it. It is
// deliberately shaped like sequence.Verdict but lives here to avoid a
// package cycle (sequence imports fraud, not the reverse) — the
// sequence state machine converts one into the other at the call site.
type Verdict struct {
	Winner   string
	Offender string
	Draw     bool
}

// Resolve returns the forfeit verdict for a single offender detected
// under class (spec.md §4.6: "On any class except Timeout, the honest
// party is the other player. On Timeout, the honest party is the one
// whose last act satisfied the game").
func Resolve(players [2]string, class Class, offender string) Verdict {
	return Verdict{Winner: otherPlayer(players, offender), Offender: offender}
}

// Draw is the verdict for simultaneous Timeout delinquency by both
// players (spec.md §4.6 "the sequence is declared drawn with no
// rewards").
func Draw() Verdict {
	return Verdict{Draw: true}
}

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
