package player

import (
	"context"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/kirklog"
	"github.com/kirk-protocol/kirk/internal/sequence"
)

func TestObserver_InspectReportsValidatorResult(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	challenge, err := event.Build(event.KindChallenge, event.ChallengeContent{
		GameType:         "noop",
		CommitmentHashes: []string{strings.Repeat("a", 64)},
	}, sk)
	require.NoError(t, err)

	tr := &fakeTransport{fetched: []nostr.Event{challenge}}
	reg := game.NewRegistry()
	reg.Register(noopGame{}, nil)
	obs := NewObserver(kirklog.Nop(), config.Default(), tr, reg)

	res, err := obs.Inspect(context.Background(), challenge.ID, int64(challenge.CreatedAt))
	require.NoError(t, err)
	require.Equal(t, sequence.StateWaitingForAccept, res.Sequence.State)
}
