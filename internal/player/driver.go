// Package player implements the player driver (C9, spec.md §4.9): the
// four operations a participant uses to build, pre-validate, and
// publish its own signed events. The driver never judges game outcome
// — that is the validator's job — it only refuses to publish an event
// that is malformed on its face.
package player

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kirk-protocol/kirk/internal/commitment"
	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/kirkcrypto"
	"github.com/kirk-protocol/kirk/internal/kirkerr"
	"github.com/kirk-protocol/kirk/internal/token"
	"github.com/kirk-protocol/kirk/internal/transport"
)

// Driver signs and publishes events on behalf of one player (spec.md
// §4.9). It holds the player's own signing key, never another's.
type Driver struct {
	log       zerolog.Logger
	sk        string
	transport transport.Transport
	games     *game.Registry
}

// New constructs a Driver. sk is a hex nostr private key; the driver
// never exposes it, only the pubkey it derives from.
func New(log zerolog.Logger, sk string, tr transport.Transport, games *game.Registry) *Driver {
	return &Driver{log: log, sk: sk, transport: tr, games: games}
}

// CreateChallenge builds and publishes a Challenge committing to
// tokens via method, with an optional expiry deadline (spec.md §4.9
// "create_challenge").
func (d *Driver) CreateChallenge(ctx context.Context, gameType string, tokens []token.Token, method commitment.Method, expirySecs *uint64) (string, error) {
	if _, ok := d.games.Lookup(gameType); !ok {
		return "", kirkerr.New(kirkerr.GameRuleViolation, "", "player: unregistered game_type "+gameType)
	}
	hash, err := commitmentHash(tokens, method)
	if err != nil {
		return "", kirkerr.Wrap(kirkerr.CommitmentError, "", err, "player: build commitment")
	}

	ts := event.ReserveTimestamp()
	content := event.ChallengeContent{
		GameType:         gameType,
		CommitmentHashes: []string{kirkcrypto.Hash32ToHex(hash)},
	}
	if expirySecs != nil {
		expiry := uint64(ts) + *expirySecs
		content.Expiry = &expiry
	}

	ev, err := event.BuildAt(event.KindChallenge, content, d.sk, ts)
	if err != nil {
		return "", kirkerr.Wrap(kirkerr.CodecError, "", err, "player: build challenge")
	}
	if err := d.transport.Publish(ctx, ev); err != nil {
		return "", kirkerr.Wrap(kirkerr.TransportFailure, ev.ID, err, "player: publish challenge")
	}
	return ev.ID, nil
}

// AcceptChallenge builds and publishes a ChallengeAccept for
// challengeID, committing to tokens the same way the challenger did
// (spec.md §4.9 "accept_challenge").
func (d *Driver) AcceptChallenge(ctx context.Context, challengeID string, gameType string, tokens []token.Token, method commitment.Method) (string, error) {
	if _, ok := d.games.Lookup(gameType); !ok {
		return "", kirkerr.New(kirkerr.GameRuleViolation, "", "player: unregistered game_type "+gameType)
	}
	hash, err := commitmentHash(tokens, method)
	if err != nil {
		return "", kirkerr.Wrap(kirkerr.CommitmentError, "", err, "player: build commitment")
	}
	ev, err := event.Build(event.KindChallengeAccept, event.ChallengeAcceptContent{
		ChallengeID:      challengeID,
		CommitmentHashes: []string{kirkcrypto.Hash32ToHex(hash)},
	}, d.sk)
	if err != nil {
		return "", kirkerr.Wrap(kirkerr.CodecError, "", err, "player: build challenge_accept")
	}
	if err := d.transport.Publish(ctx, ev); err != nil {
		return "", kirkerr.Wrap(kirkerr.TransportFailure, ev.ID, err, "player: publish challenge_accept")
	}
	return ev.ID, nil
}

// MakeMove builds and publishes a Move chained off prevID, optionally
// revealing tokens (the Reveal half of a commit-reveal exchange, or a
// direct move's own value carriers) (spec.md §4.9 "make_move").
func (d *Driver) MakeMove(ctx context.Context, prevID string, moveType event.MoveType, moveData json.RawMessage, revealed []token.Token) (string, error) {
	if !moveType.Valid() {
		return "", kirkerr.New(kirkerr.CodecError, "", "player: unknown move_type "+string(moveType))
	}
	ev, err := event.Build(event.KindMove, event.MoveContent{
		PreviousEventID: prevID,
		MoveType:        moveType,
		MoveData:        moveData,
		RevealedTokens:  event.ToWireTokens(revealed),
	}, d.sk)
	if err != nil {
		return "", kirkerr.Wrap(kirkerr.CodecError, "", err, "player: build move")
	}
	if err := d.transport.Publish(ctx, ev); err != nil {
		return "", kirkerr.Wrap(kirkerr.TransportFailure, ev.ID, err, "player: publish move")
	}
	return ev.ID, nil
}

// Finalize builds and publishes a Final for root (spec.md §4.9
// "finalize"). method must be supplied iff this player's own
// commitment covered more than one token (spec.md T8).
func (d *Driver) Finalize(ctx context.Context, root string, method *commitment.Method, finalState json.RawMessage) (string, error) {
	content := event.FinalContent{GameSequenceRoot: root, FinalState: finalState}
	if method != nil {
		wire, err := event.CommitmentMethodToWire(*method)
		if err != nil {
			return "", kirkerr.Wrap(kirkerr.CommitmentError, "", err, "player: encode commitment_method")
		}
		content.CommitmentMethod = &wire
	}
	ev, err := event.Build(event.KindFinal, content, d.sk)
	if err != nil {
		return "", kirkerr.Wrap(kirkerr.CodecError, "", err, "player: build final")
	}
	if err := d.transport.Publish(ctx, ev); err != nil {
		return "", kirkerr.Wrap(kirkerr.TransportFailure, ev.ID, err, "player: publish final")
	}
	return ev.ID, nil
}

func commitmentHash(tokens []token.Token, method commitment.Method) ([32]byte, error) {
	switch len(tokens) {
	case 0:
		return [32]byte{}, fmt.Errorf("player: at least one token is required")
	case 1:
		return commitment.Single(tokens[0]).Hash, nil
	default:
		c, err := commitment.Multi(tokens, method)
		if err != nil {
			return [32]byte{}, err
		}
		return c.Hash, nil
	}
}
