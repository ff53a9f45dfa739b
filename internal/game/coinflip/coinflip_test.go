package coinflip

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/token"
)

func buildReveal(t *testing.T, sk, prev string, c0 byte) nostr.Event {
	t.Helper()
	tok := token.Token{Proofs: []token.Proof{{Amount: 1, ID: "t", C: [32]byte{c0}}}}
	ev, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: prev,
		MoveType:        event.MoveTypeMove,
		RevealedTokens:  []event.WireToken{event.ToWireToken(tok)},
	}, sk)
	require.NoError(t, err)
	return ev
}

func TestCoinFlip_HeadsBeatsTails(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	moveA := buildReveal(t, skA, "root", 0x00)
	moveB := buildReveal(t, skB, moveA.ID, 0x01)

	g := CoinFlip{}
	events := []nostr.Event{moveA, moveB}
	require.True(t, g.IsComplete(events))
	winner, draw, err := g.DetermineWinner(events)
	require.NoError(t, err)
	require.False(t, draw)
	require.Equal(t, moveA.PubKey, winner)
}

func TestCoinFlip_TieDraws(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	skB := nostr.GeneratePrivateKey()
	moveA := buildReveal(t, skA, "root", 0x04)
	moveB := buildReveal(t, skB, moveA.ID, 0x04)

	g := CoinFlip{}
	_, draw, err := g.DetermineWinner([]nostr.Event{moveA, moveB})
	require.NoError(t, err)
	require.True(t, draw)
}

func TestCoinFlip_RejectsSecondMoveFromSamePlayer(t *testing.T) {
	skA := nostr.GeneratePrivateKey()
	moveA := buildReveal(t, skA, "root", 0x00)

	g := CoinFlip{}
	err := g.ValidateMove([]nostr.Event{moveA}, game.MoveInput{
		MoveType:       string(event.MoveTypeMove),
		RevealedTokens: []game.RevealedToken{{CValues: [][32]byte{{0x01}}}},
	}, moveA.PubKey)
	require.Error(t, err)
}

func TestCoinFlip_RejectsMultiProofReveal(t *testing.T) {
	g := CoinFlip{}
	err := g.ValidateMove(nil, game.MoveInput{
		MoveType:       string(event.MoveTypeMove),
		RevealedTokens: []game.RevealedToken{{CValues: [][32]byte{{0x01}, {0x02}}}},
	}, "someone")
	require.Error(t, err)
}
