package sequence

import (
	"encoding/json"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/kirklog"
)

func newTM(cfg config.Config) *TimeoutManager {
	return NewTimeoutManager(kirklog.Nop(), cfg)
}

func inProgressSeq(t *testing.T, skA, skB string, extra ...nostr.Event) GameSequence {
	t.Helper()
	challenge := buildChallenge(t, skA)
	seq, err := NewSequence(challenge)
	require.NoError(t, err)
	accept := buildAccept(t, skB, challenge.ID)
	seq = appendEvent(seq, accept)
	seq.Players[1] = accept.PubKey
	seq.State = StateInProgress
	for _, ev := range extra {
		seq = appendEvent(seq, ev)
	}
	return seq
}

func TestTimeoutManager_CommitNotRevealedForfeits(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	cfg := config.Default()
	cfg.CommitRevealDeadlineSecs = 100

	challenge := buildChallenge(t, skA)
	commit, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: challenge.ID,
		MoveType:        event.MoveTypeCommit,
		MoveData:        json.RawMessage(`{}`),
	}, skA)
	require.NoError(t, err)
	commit.CreatedAt = challenge.CreatedAt
	require.NoError(t, commit.Sign(skA))

	seq := inProgressSeq(t, skA, skB, commit)

	tm := newTM(cfg)
	now := int64(commit.CreatedAt) + 101
	next, ok := tm.Tick(seq, now)
	require.True(t, ok)
	require.Equal(t, StateForfeited, next.State)
	require.Equal(t, commit.PubKey, next.Verdict.Offender)
}

func TestTimeoutManager_RevealBeforeDeadlineDoesNotForfeit(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	cfg := config.Default()
	cfg.CommitRevealDeadlineSecs = 100
	cfg.MoveInactivityDeadlineSecs = 100000

	challenge := buildChallenge(t, skA)
	commit, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: challenge.ID,
		MoveType:        event.MoveTypeCommit,
		MoveData:        json.RawMessage(`{}`),
	}, skA)
	require.NoError(t, err)
	commit.CreatedAt = challenge.CreatedAt
	require.NoError(t, commit.Sign(skA))

	reveal, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: commit.ID,
		MoveType:        event.MoveTypeReveal,
		MoveData:        json.RawMessage(`{}`),
	}, skA)
	require.NoError(t, err)
	reveal.CreatedAt = commit.CreatedAt + 10
	require.NoError(t, reveal.Sign(skA))

	seq := inProgressSeq(t, skA, skB, commit, reveal)

	tm := newTM(cfg)
	now := int64(commit.CreatedAt) + 101
	_, ok := tm.Tick(seq, now)
	require.False(t, ok)
}

func TestTimeoutManager_DoubleDelinquencyDraws(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	cfg := config.Default()
	cfg.MoveInactivityDeadlineSecs = 60

	seq := inProgressSeq(t, skA, skB)
	tm := newTM(cfg)

	now := seq.CreatedAt + 1000
	next, ok := tm.Tick(seq, now)
	require.True(t, ok)
	require.Equal(t, StateForfeited, next.State)
	require.True(t, next.Verdict.Draw)
	require.Empty(t, next.Verdict.Offender)
}

func TestTimeoutManager_SingleDelinquentForfeits(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	cfg := config.Default()
	cfg.MoveInactivityDeadlineSecs = 60

	challenge := buildChallenge(t, skA)
	move, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: challenge.ID,
		MoveType:        event.MoveTypeMove,
		MoveData:        json.RawMessage(`{}`),
	}, skB)
	require.NoError(t, err)
	move.CreatedAt = challenge.CreatedAt + 500
	require.NoError(t, move.Sign(skB))

	seq := inProgressSeq(t, skA, skB, move)
	tm := newTM(cfg)

	now := int64(move.CreatedAt) + 30
	next, ok := tm.Tick(seq, now)
	require.True(t, ok)
	require.Equal(t, StateForfeited, next.State)
	require.Equal(t, skToPub(t, skA), next.Verdict.Offender)
	require.Equal(t, skToPub(t, skB), next.Verdict.Winner)
}
