// Package reward implements the reward distributor (C8, spec.md §4.8):
// computing a payout from a sequence's burn set, driving the mint to
// mint P2PK-locked tokens, and publishing the Reward event.
package reward

import (
	"fmt"

	"github.com/kirk-protocol/kirk/internal/token"
)

// Policy computes a reward amount from the burn set — every Game token
// revealed in a 9261 Move by either player (spec.md §4.8 step 2). It is
// a function of the sequence's burned proofs, not part of the Game
// capability bundle (spec.md §9 Open Questions, SPEC_FULL.md §D): a
// policy change never touches game rule code.
type Policy func(burn []token.Proof) (amount uint64, err error)

// DefaultPolicy sums the burn-set proof amounts and subtracts feeBps
// basis points as the mint fee (spec.md §4.8 "default: sum of burn-set
// proof amounts, minus mint fee"; SPEC_FULL.md §D fee formula, mirroring
// the teacher's basis-point slash math).
func DefaultPolicy(feeBps uint32) Policy {
	return func(burn []token.Proof) (uint64, error) {
		if feeBps > 10000 {
			return 0, fmt.Errorf("reward: fee_bps must be <= 10000, got %d", feeBps)
		}
		var sum uint64
		for _, p := range burn {
			if sum > ^uint64(0)-p.Amount {
				return 0, fmt.Errorf("reward: burn-set amount overflow")
			}
			sum += p.Amount
		}
		multiplier := uint64(10000 - feeBps)
		if multiplier > 0 && sum > ^uint64(0)/multiplier {
			return 0, fmt.Errorf("reward: burn-set amount overflow")
		}
		return sum * multiplier / 10000, nil
	}
}
