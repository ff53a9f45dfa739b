package rps

import (
	"encoding/json"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/token"
)

func buildCommit(t *testing.T, sk, prev string) nostr.Event {
	t.Helper()
	ev, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: prev,
		MoveType:        event.MoveTypeCommit,
		MoveData:        json.RawMessage(`{}`),
	}, sk)
	require.NoError(t, err)
	return ev
}

func buildReveal(t *testing.T, sk, prev string, c0 byte) nostr.Event {
	t.Helper()
	tok := token.Token{Proofs: []token.Proof{{Amount: 1, ID: "t", C: [32]byte{c0}}}}
	ev, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: prev,
		MoveType:        event.MoveTypeReveal,
		RevealedTokens:  []event.WireToken{event.ToWireToken(tok)},
	}, sk)
	require.NoError(t, err)
	return ev
}

func fullSequence(t *testing.T, skA, skB string, c0A, c0B byte) []nostr.Event {
	t.Helper()
	commitA := buildCommit(t, skA, "root")
	commitB := buildCommit(t, skB, commitA.ID)
	revealA := buildReveal(t, skA, commitB.ID, c0A)
	revealB := buildReveal(t, skB, revealA.ID, c0B)
	return []nostr.Event{commitA, commitB, revealA, revealB}
}

func TestRPS_RockBeatsScissors(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	events := fullSequence(t, skA, skB, 0, 2) // Rock vs Scissors

	g := RockPaperScissors{}
	require.True(t, g.IsComplete(events))
	winner, draw, err := g.DetermineWinner(events)
	require.NoError(t, err)
	require.False(t, draw)
	require.Equal(t, skToPub(t, skA), winner)
}

func TestRPS_Draw(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	events := fullSequence(t, skA, skB, 1, 1)

	g := RockPaperScissors{}
	_, draw, err := g.DetermineWinner(events)
	require.NoError(t, err)
	require.True(t, draw)
}

func TestRPS_RevealWithoutCommitRejected(t *testing.T) {
	g := RockPaperScissors{}
	err := g.ValidateMove(nil, game.MoveInput{
		MoveType:       string(event.MoveTypeReveal),
		RevealedTokens: []game.RevealedToken{{CValues: [][32]byte{{0}}}},
	}, "nobody")
	require.Error(t, err)
}

func TestRPS_DoubleCommitRejected(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	commitA := buildCommit(t, skA, "root")

	g := RockPaperScissors{}
	err := g.ValidateMove([]nostr.Event{commitA}, game.MoveInput{
		MoveType: string(event.MoveTypeCommit),
	}, commitA.PubKey)
	require.Error(t, err)
}

func skToPub(t *testing.T, sk string) string {
	t.Helper()
	pub, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	return pub
}
