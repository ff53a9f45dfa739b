package fraud

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"github.com/kirk-protocol/kirk/internal/kirkerr"
	"github.com/kirk-protocol/kirk/internal/mint"
	"github.com/kirk-protocol/kirk/internal/token"
)

// Ledger is the mint-backed half of fraud detection (spec.md §4.6
// "Invalid token" and "Replay"): a revealed token must still verify
// against the mint and must not have already been revealed, by anyone,
// in a different sequence. The sequence state machine holds no memory
// across sequences of its own, so this bookkeeping lives here rather
// than in GameSequence.
type Ledger struct {
	mu       deadlock.Mutex
	mint     mint.Mint
	revealed map[[32]byte]string // canonical token hash -> root that first revealed it
}

// NewLedger constructs a Ledger backed by m, the mint every sequence's
// validator shares (spec.md §5 "Shared resources").
func NewLedger(m mint.Mint) *Ledger {
	return &Ledger{mint: m, revealed: make(map[[32]byte]string)}
}

// CheckReveal verifies t against the mint and records it against root,
// returning a *kirkerr.Error tagged GameRuleViolation if the mint
// rejects or reports t already spent (spec.md §4.6 "Invalid token: mint
// refuses a revealed token"), or ReplayDetected if t's canonical hash
// was already revealed under a different root (spec.md §4.6 "Replay",
// T5, §8 scenario 4). A nil return means the reveal is fresh and the
// mint accepted it.
func (l *Ledger) CheckReveal(ctx context.Context, root, eventID string, t token.Token) error {
	ok, err := l.mint.Verify(ctx, t)
	if err != nil {
		return kirkerr.Wrap(kirkerr.MintFailure, eventID, err, "fraud: verify revealed token")
	}
	if !ok {
		return kirkerr.New(kirkerr.GameRuleViolation, eventID, "fraud: mint rejected revealed token")
	}
	spent, err := l.mint.IsSpent(ctx, t)
	if err != nil {
		return kirkerr.Wrap(kirkerr.MintFailure, eventID, err, "fraud: check revealed token spent state")
	}
	if spent {
		return kirkerr.New(kirkerr.GameRuleViolation, eventID, "fraud: revealed token already spent")
	}

	hash := token.Hash(t)
	l.mu.Lock()
	defer l.mu.Unlock()
	if prior, seen := l.revealed[hash]; seen && prior != root {
		return kirkerr.New(kirkerr.ReplayDetected, eventID, "fraud: token already revealed under sequence "+prior)
	}
	l.revealed[hash] = root
	return nil
}
