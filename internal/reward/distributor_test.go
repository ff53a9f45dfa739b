package reward

import (
	"context"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/kirklog"
	"github.com/kirk-protocol/kirk/internal/sequence"
	"github.com/kirk-protocol/kirk/internal/token"
	"github.com/kirk-protocol/kirk/internal/transport"
)

type fakeMint struct {
	melted  []token.Token
	issued  map[string]bool
	minted  []token.Token
	mintErr error
}

func newFakeMint() *fakeMint { return &fakeMint{issued: map[string]bool{}} }

func (m *fakeMint) MintGameTokens(ctx context.Context, amount uint64) ([]token.Token, error) {
	return nil, nil
}
func (m *fakeMint) MintP2PKTokens(ctx context.Context, amount uint64, pubkey string) ([]token.Token, error) {
	if m.mintErr != nil {
		return nil, m.mintErr
	}
	t := token.Token{Kind: token.Reward, Proofs: []token.Proof{{Amount: amount, ID: "p2pk", C: [32]byte{1}}}}
	m.minted = append(m.minted, t)
	return []token.Token{t}, nil
}
func (m *fakeMint) Verify(ctx context.Context, t token.Token) (bool, error)  { return true, nil }
func (m *fakeMint) IsSpent(ctx context.Context, t token.Token) (bool, error) { return false, nil }
func (m *fakeMint) Melt(ctx context.Context, toks []token.Token) (uint64, error) {
	var sum uint64
	for _, t := range toks {
		sum += t.TotalAmount()
		m.melted = append(m.melted, t)
	}
	return sum, nil
}
func (m *fakeMint) Swap(ctx context.Context, toks []token.Token) ([]token.Token, error) { return toks, nil }
func (m *fakeMint) WouldIssueFor(ctx context.Context, root string) (bool, error) {
	return m.issued[root], nil
}
func (m *fakeMint) MarkIssued(ctx context.Context, root string) error {
	m.issued[root] = true
	return nil
}

type fakeTransport struct {
	published []nostr.Event
}

func (tr *fakeTransport) Publish(ctx context.Context, ev nostr.Event) error {
	tr.published = append(tr.published, ev)
	return nil
}
func (tr *fakeTransport) Subscribe(ctx context.Context, filter transport.Filter) (<-chan nostr.Event, error) {
	ch := make(chan nostr.Event)
	close(ch)
	return ch, nil
}
func (tr *fakeTransport) Fetch(ctx context.Context, filter transport.Filter, deadline time.Time) ([]nostr.Event, error) {
	return nil, nil
}
func (tr *fakeTransport) VerifySignature(ev nostr.Event) bool { return event.VerifySignature(ev) }

func makeMoveWithReveal(t *testing.T, sk, prev string, amount uint64) nostr.Event {
	t.Helper()
	tok := token.Token{Proofs: []token.Proof{{Amount: amount, ID: "g1", C: [32]byte{9}}}}
	ev, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: prev,
		MoveType:        event.MoveTypeMove,
		RevealedTokens:  []event.WireToken{event.ToWireToken(tok)},
	}, sk)
	require.NoError(t, err)
	return ev
}

func TestDistributor_DistributesRewardForWinner(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skMint := nostr.GeneratePrivateKey()

	challenge, err := event.Build(event.KindChallenge, event.ChallengeContent{
		GameType:         "x",
		CommitmentHashes: []string{"0"},
	}, skA)
	require.NoError(t, err)
	move := makeMoveWithReveal(t, skA, challenge.ID, 100)

	seq := sequence.GameSequence{
		Root:    challenge.ID,
		Events:  []nostr.Event{challenge, move},
		State:   sequence.StateComplete,
		Verdict: sequence.Verdict{Winner: skA},
	}

	m := newFakeMint()
	tr := &fakeTransport{}
	d := New(kirklog.Nop(), m, tr, skMint, DefaultPolicy(0))

	ok, err := d.Distribute(context.Background(), seq, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, m.melted, 1)
	require.Len(t, tr.published, 1)
	require.True(t, m.issued[challenge.ID])
}

func TestDistributor_SkipsAlreadyIssued(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skMint := nostr.GeneratePrivateKey()
	m := newFakeMint()
	m.issued["root1"] = true
	tr := &fakeTransport{}
	d := New(kirklog.Nop(), m, tr, skMint, DefaultPolicy(0))

	seq := sequence.GameSequence{
		Root:    "root1",
		State:   sequence.StateComplete,
		Verdict: sequence.Verdict{Winner: skA},
	}
	ok, err := d.Distribute(context.Background(), seq, nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, tr.published)
}

func TestDistributor_SkipsDraw(t *testing.T) {
	skMint := nostr.GeneratePrivateKey()
	m := newFakeMint()
	tr := &fakeTransport{}
	d := New(kirklog.Nop(), m, tr, skMint, DefaultPolicy(0))

	seq := sequence.GameSequence{Root: "root2", State: sequence.StateForfeited, Verdict: sequence.Verdict{Draw: true}}
	ok, err := d.Distribute(context.Background(), seq, nil)
	require.NoError(t, err)
	require.False(t, ok)
}
