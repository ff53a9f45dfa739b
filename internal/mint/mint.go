// Package mint declares the ecash mint service boundary the engine
// consumes (spec.md §6 "Mint (ecash service)"). The mint's internals —
// minting, swap, melt, P2PK spend verification — are explicitly out of
// scope (spec.md §1); this package only names the interface the reward
// distributor (C8) and validator (C7) call through.
package mint

import (
	"context"

	"github.com/kirk-protocol/kirk/internal/token"
)

// Mint is the engine's view of an ecash mint. Implementations are
// expected to be safe for concurrent use across sequences and to
// serialize their idempotency writes on sequence root (spec.md §5
// "Shared resources").
type Mint interface {
	// MintGameTokens mints amount of freely-spendable Game tokens,
	// used by a player driver to fund a commitment.
	MintGameTokens(ctx context.Context, amount uint64) ([]token.Token, error)

	// MintP2PKTokens mints amount of tokens locked to pubkey, used by
	// the reward distributor to pay a winner (spec.md §4.8 step 3).
	MintP2PKTokens(ctx context.Context, amount uint64, pubkey string) ([]token.Token, error)

	// Verify checks a token's proofs against the mint's signing keys.
	Verify(ctx context.Context, t token.Token) (bool, error)

	// IsSpent reports whether any proof in t has already been spent.
	IsSpent(ctx context.Context, t token.Token) (bool, error)

	// Melt redeems tokens for their amount, marking them spent
	// (spec.md §4.8 step 1, "mark-and-melt").
	Melt(ctx context.Context, tokens []token.Token) (amountReclaimed uint64, err error)

	// Swap exchanges tokens for a fresh, equal-value set with new
	// secrets, used by the mint service layer's own bookkeeping; the
	// engine does not call this directly but the interface is part of
	// the consumer contract (spec.md §6).
	Swap(ctx context.Context, tokens []token.Token) ([]token.Token, error)

	// WouldIssueFor reports whether a reward has already been issued
	// for sequence root, the persistent half of the at-most-once
	// contract the distributor's would_issue_for gates on (spec.md
	// §4.8 "At-most-once guarantee").
	WouldIssueFor(ctx context.Context, root string) (bool, error)

	// MarkIssued records that a reward for root has been issued,
	// called by the distributor immediately after a successful
	// publish so a duplicate Complete observation is rejected by a
	// later WouldIssueFor call.
	MarkIssued(ctx context.Context, root string) error
}
