package fraud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirk-protocol/kirk/internal/kirkerr"
	"github.com/kirk-protocol/kirk/internal/token"
)

// fakeMint is a controllable mint.Mint double: each of Verify and
// IsSpent can be told to return a fixed answer or to fail outright, so
// a test can drive every branch CheckReveal takes.
type fakeMint struct {
	verifyOK  bool
	verifyErr error
	spent     bool
	spentErr  error
}

func (m *fakeMint) MintGameTokens(ctx context.Context, amount uint64) ([]token.Token, error) {
	return nil, nil
}
func (m *fakeMint) MintP2PKTokens(ctx context.Context, amount uint64, pubkey string) ([]token.Token, error) {
	return nil, nil
}
func (m *fakeMint) Verify(ctx context.Context, t token.Token) (bool, error) {
	return m.verifyOK, m.verifyErr
}
func (m *fakeMint) IsSpent(ctx context.Context, t token.Token) (bool, error) {
	return m.spent, m.spentErr
}
func (m *fakeMint) Melt(ctx context.Context, toks []token.Token) (uint64, error) { return 0, nil }
func (m *fakeMint) Swap(ctx context.Context, toks []token.Token) ([]token.Token, error) {
	return toks, nil
}
func (m *fakeMint) WouldIssueFor(ctx context.Context, root string) (bool, error) {
	return false, nil
}
func (m *fakeMint) MarkIssued(ctx context.Context, root string) error { return nil }

func mkToken(seed byte) token.Token {
	return token.Token{Proofs: []token.Proof{{Amount: 10, ID: "p", Secret: []byte{seed}, C: [32]byte{seed}}}}
}

func kindOf(t *testing.T, err error) kirkerr.Kind {
	t.Helper()
	var kerr *kirkerr.Error
	require.True(t, errors.As(err, &kerr), "expected a *kirkerr.Error, got %T: %v", err, err)
	return kerr.Kind
}

func TestLedger_FreshRevealAccepted(t *testing.T) {
	l := NewLedger(&fakeMint{verifyOK: true, spent: false})
	err := l.CheckReveal(context.Background(), "root1", "ev1", mkToken(1))
	require.NoError(t, err)
}

func TestLedger_RejectsMintRefused(t *testing.T) {
	l := NewLedger(&fakeMint{verifyOK: false})
	err := l.CheckReveal(context.Background(), "root1", "ev1", mkToken(1))
	require.Error(t, err)
	require.Equal(t, kirkerr.GameRuleViolation, kindOf(t, err))
}

func TestLedger_RejectsAlreadySpent(t *testing.T) {
	l := NewLedger(&fakeMint{verifyOK: true, spent: true})
	err := l.CheckReveal(context.Background(), "root1", "ev1", mkToken(1))
	require.Error(t, err)
	require.Equal(t, kirkerr.GameRuleViolation, kindOf(t, err))
}

func TestLedger_TransientVerifyFailureSurfacesAsMintFailure(t *testing.T) {
	l := NewLedger(&fakeMint{verifyErr: errors.New("mint unreachable")})
	err := l.CheckReveal(context.Background(), "root1", "ev1", mkToken(1))
	require.Error(t, err)
	require.Equal(t, kirkerr.MintFailure, kindOf(t, err))
}

func TestLedger_TransientIsSpentFailureSurfacesAsMintFailure(t *testing.T) {
	l := NewLedger(&fakeMint{verifyOK: true, spentErr: errors.New("mint unreachable")})
	err := l.CheckReveal(context.Background(), "root1", "ev1", mkToken(1))
	require.Error(t, err)
	require.Equal(t, kirkerr.MintFailure, kindOf(t, err))
}

func TestLedger_SameRootRevealTwiceIsNotReplay(t *testing.T) {
	l := NewLedger(&fakeMint{verifyOK: true})
	require.NoError(t, l.CheckReveal(context.Background(), "root1", "ev1", mkToken(1)))
	require.NoError(t, l.CheckReveal(context.Background(), "root1", "ev2", mkToken(1)))
}

func TestLedger_CrossSequenceReplayRejected(t *testing.T) {
	l := NewLedger(&fakeMint{verifyOK: true})
	require.NoError(t, l.CheckReveal(context.Background(), "root1", "ev1", mkToken(1)))

	err := l.CheckReveal(context.Background(), "root2", "ev2", mkToken(1))
	require.Error(t, err)
	require.Equal(t, kirkerr.ReplayDetected, kindOf(t, err))
}
