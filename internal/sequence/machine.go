package sequence

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"

	"github.com/kirk-protocol/kirk/internal/commitment"
	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/fraud"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/kirkerr"
	"github.com/kirk-protocol/kirk/internal/token"
)

// Machine drives GameSequence transitions per spec.md §4.5's table. It
// holds no per-sequence state — every call takes the sequence's current
// value and returns its successor, per spec.md §9 "Sequence ownership".
type Machine struct {
	log    zerolog.Logger
	cfg    config.Config
	ledger *fraud.Ledger
}

// NewMachine constructs a Machine bound to cfg's timeouts and clock-skew
// tolerance (spec.md §4.5).
func NewMachine(log zerolog.Logger, cfg config.Config) *Machine {
	return &Machine{log: log, cfg: cfg}
}

// WithLedger attaches the mint-backed fraud ledger every subsequent
// applyMove call consults before accepting a revealed token (spec.md
// §4.6 "Invalid token", "Replay"). Passing nil (the default) skips the
// mint-backed checks entirely, which is what a Machine under test with
// no live mint wants.
func (m *Machine) WithLedger(l *fraud.Ledger) *Machine {
	m.ledger = l
	return m
}

// ValidateChallengeParameters checks the root Challenge's
// game_parameters against g's schema (spec.md §4.4
// "parameters_schema()"). Called once the validator has resolved
// challenge.GameType to a concrete Game, since NewSequence itself runs
// before that resolution.
func ValidateChallengeParameters(challenge nostr.Event, g game.Game) error {
	c, err := event.ParseChallenge(challenge)
	if err != nil {
		return err
	}
	return g.ValidateParameters(c.GameParameters)
}

// NewSequence creates a sequence in WaitingForAccept from an observed
// Challenge event (spec.md §3 "created when a validator first observes
// a Challenge").
func NewSequence(challenge nostr.Event) (GameSequence, error) {
	if event.Kind(challenge.Kind) != event.KindChallenge {
		return GameSequence{}, fmt.Errorf("sequence: root event must be kind %s, got %d", event.KindChallenge, challenge.Kind)
	}
	c, err := event.ParseChallenge(challenge)
	if err != nil {
		return GameSequence{}, err
	}
	return GameSequence{
		Root:         challenge.ID,
		GameType:     c.GameType,
		Players:      [2]string{challenge.PubKey, ""},
		Events:       []nostr.Event{challenge},
		State:        StateWaitingForAccept,
		CreatedAt:    int64(challenge.CreatedAt),
		LastActivity: int64(challenge.CreatedAt),
	}, nil
}

// Apply folds ev into seq, returning the successor sequence and, if the
// event violated a guard, the ValidationError that caused a transition
// to Forfeited (or, for a duplicate/post-terminal event, no error and
// an unchanged sequence — spec.md §5 "the engine deduplicates by event
// id").
func (m *Machine) Apply(ctx context.Context, seq GameSequence, g game.Game, ev nostr.Event, now int64) (GameSequence, *ValidationError) {
	for _, e := range seq.Events {
		if e.ID == ev.ID {
			return seq, nil
		}
	}
	if seq.State.Terminal() {
		return seq, nil
	}
	if !event.VerifySignature(ev) {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "event signature verification failed")
	}
	if len(seq.Events) > 0 {
		last := seq.Events[len(seq.Events)-1]
		if int64(ev.CreatedAt) < int64(last.CreatedAt) {
			return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "created_at is not monotone in chain order")
		}
	}
	if int64(ev.CreatedAt) > now+int64(m.cfg.ClockSkewToleranceSecs) {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "created_at exceeds clock-skew tolerance")
	}

	switch seq.State {
	case StateWaitingForAccept:
		return m.applyWaitingForAccept(seq, ev)
	case StateInProgress:
		return m.applyInProgress(ctx, seq, g, ev)
	case StateWaitingForFinal:
		return m.applyWaitingForFinal(seq, g, ev)
	default:
		return seq, nil
	}
}

func (m *Machine) forfeitAgainst(seq GameSequence, ev nostr.Event, kind ErrorKind, msg string) (GameSequence, *ValidationError) {
	v := fraud.Resolve(seq.Players, classForKind(kind), ev.PubKey)
	next := appendEvent(seq, ev)
	next.State = StateForfeited
	next.Verdict = Verdict{Winner: v.Winner, Offender: v.Offender}
	m.log.Info().Str("root", seq.Root).Str("offender", ev.PubKey).Str("kind", string(kind)).Msg("sequence forfeited")
	return next, &ValidationError{EventID: ev.ID, Kind: kind, Message: msg}
}

func classForKind(k ErrorKind) fraud.Class {
	switch k {
	case ErrInvalidToken:
		return fraud.ClassInvalidToken
	case ErrInvalidCommitment:
		return fraud.ClassCommitmentMismatch
	case ErrInvalidMove:
		return fraud.ClassIllegalMove
	case ErrTimeoutViolation:
		return fraud.ClassTimeout
	case ErrReplay:
		return fraud.ClassReplay
	default:
		return fraud.ClassChainViolation
	}
}

func (m *Machine) applyWaitingForAccept(seq GameSequence, ev nostr.Event) (GameSequence, *ValidationError) {
	if event.Kind(ev.Kind) != event.KindChallengeAccept {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, fmt.Sprintf("expected ChallengeAccept while WaitingForAccept, got %s", event.Kind(ev.Kind)))
	}
	acc, err := event.ParseChallengeAccept(ev)
	if err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, err.Error())
	}
	if acc.ChallengeID != seq.Root {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "challenge_accept.challenge_id does not match sequence root")
	}
	if ev.PubKey == seq.Players[0] {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "challenger cannot accept their own challenge")
	}

	challenge, err := event.ParseChallenge(seq.Events[0])
	if err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "root challenge no longer parses: "+err.Error())
	}
	if challenge.Expiry != nil && int64(ev.CreatedAt) > int64(*challenge.Expiry) {
		next := appendEvent(seq, ev)
		next.State = StateForfeited
		next.Verdict = Verdict{Winner: seq.Players[0], Dissolved: true}
		m.log.Info().Str("root", seq.Root).Msg("challenge dissolved: accept arrived after expiry")
		return next, &ValidationError{EventID: ev.ID, Kind: ErrTimeoutViolation, Message: "challenge expired before accept"}
	}

	next := appendEvent(seq, ev)
	next.Players[1] = ev.PubKey
	next.State = StateInProgress
	m.log.Debug().Str("root", seq.Root).Str("accepter", ev.PubKey).Msg("challenge accepted")
	return next, nil
}

func hasParent(events []nostr.Event, parentID string, upTo int) bool {
	for i := 0; i < upTo; i++ {
		if events[i].ID == parentID {
			return true
		}
	}
	return false
}

func authorInPlayers(players [2]string, author string) bool {
	return author == players[0] || (players[1] != "" && author == players[1])
}

func (m *Machine) applyInProgress(ctx context.Context, seq GameSequence, g game.Game, ev nostr.Event) (GameSequence, *ValidationError) {
	if !authorInPlayers(seq.Players, ev.PubKey) {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "event author is not a player of this sequence")
	}
	switch event.Kind(ev.Kind) {
	case event.KindMove:
		return m.applyMove(ctx, seq, g, ev)
	case event.KindFinal:
		return m.applyFinal(seq, g, ev)
	default:
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, fmt.Sprintf("unexpected kind %s while InProgress", event.Kind(ev.Kind)))
	}
}

func (m *Machine) applyMove(ctx context.Context, seq GameSequence, g game.Game, ev nostr.Event) (GameSequence, *ValidationError) {
	mv, err := event.ParseMove(ev)
	if err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, err.Error())
	}
	if !hasParent(seq.Events, mv.PreviousEventID, len(seq.Events)) {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "previous_event_id is not present in the sequence")
	}

	toks, wireErr := event.FromWireTokens(mv.RevealedTokens)
	if wireErr != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidToken, wireErr.Error())
	}
	if m.ledger != nil {
		for _, t := range toks {
			if err := m.ledger.CheckReveal(ctx, seq.Root, ev.ID, t); err != nil {
				var kerr *kirkerr.Error
				if !errors.As(err, &kerr) {
					return m.forfeitAgainst(seq, ev, ErrInvalidToken, err.Error())
				}
				switch kerr.Kind {
				case kirkerr.ReplayDetected:
					return m.forfeitAgainst(seq, ev, ErrReplay, kerr.Error())
				case kirkerr.MintFailure:
					m.log.Warn().Str("root", seq.Root).Str("event_id", ev.ID).Err(kerr).Msg("mint unavailable while checking revealed token, retry")
					return seq, &ValidationError{EventID: ev.ID, Kind: ErrMintUnavailable, Message: kerr.Error()}
				default:
					return m.forfeitAgainst(seq, ev, ErrInvalidToken, err.Error())
				}
			}
		}
	}
	revealed := revealedFromTokens(toks)

	input := game.MoveInput{MoveType: string(mv.MoveType), MoveData: mv.MoveData, RevealedTokens: revealed}
	if err := g.ValidateMove(seq.Events, input, ev.PubKey); err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidMove, err.Error())
	}

	next := appendEvent(seq, ev)
	m.log.Debug().Str("root", seq.Root).Str("author", ev.PubKey).Str("move_type", string(mv.MoveType)).Msg("move accepted")
	return next, nil
}

func revealedFromTokens(toks []token.Token) []game.RevealedToken {
	out := make([]game.RevealedToken, len(toks))
	for i, t := range toks {
		cvs := make([][32]byte, len(t.Proofs))
		for j, p := range t.Proofs {
			cvs[j] = p.C
		}
		out[i] = game.RevealedToken{CValues: cvs}
	}
	return out
}

// revealedTokensByAuthor collects every token revealed by author across
// all Move events in events, in publication order (spec.md §4.5
// "Commitment binding check": "the engine collects all such reveals by
// that player across the sequence").
func revealedTokensByAuthor(events []nostr.Event, author string) ([]token.Token, error) {
	var out []token.Token
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove || ev.PubKey != author {
			continue
		}
		mv, err := event.ParseMove(ev)
		if err != nil {
			return nil, err
		}
		toks, err := event.FromWireTokens(mv.RevealedTokens)
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
	}
	return out, nil
}

// declaredCommitmentHash returns the commitment hash a player published
// at Challenge or ChallengeAccept time — the first entry of their
// commitment_hashes list, which is what §4.2's single/multi builders
// bind (spec.md §3 "Challenge"/"ChallengeAccept").
func declaredCommitmentHash(seq GameSequence, player string) ([32]byte, error) {
	var raw string
	switch player {
	case seq.Players[0]:
		c, err := event.ParseChallenge(seq.Events[0])
		if err != nil {
			return [32]byte{}, err
		}
		if len(c.CommitmentHashes) == 0 {
			return [32]byte{}, fmt.Errorf("challenge has no commitment hashes")
		}
		raw = c.CommitmentHashes[0]
	case seq.Players[1]:
		for _, ev := range seq.Events {
			if event.Kind(ev.Kind) == event.KindChallengeAccept {
				a, err := event.ParseChallengeAccept(ev)
				if err != nil {
					return [32]byte{}, err
				}
				if len(a.CommitmentHashes) == 0 {
					return [32]byte{}, fmt.Errorf("challenge_accept has no commitment hashes")
				}
				raw = a.CommitmentHashes[0]
			}
		}
	default:
		return [32]byte{}, fmt.Errorf("unrecognized player %q", player)
	}
	if raw == "" {
		return [32]byte{}, fmt.Errorf("no declared commitment hash found for player %q", player)
	}
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != 32 {
		return [32]byte{}, fmt.Errorf("declared commitment hash is malformed")
	}
	var out [32]byte
	copy(out[:], b)
	return out, nil
}

// checkCommitmentBinding verifies that finalizer's declared method (nil
// unless their commitment covered multiple tokens) reconstructs the
// hash they published at Challenge/Accept time from what they've
// actually revealed (spec.md §4.5 "Commitment binding check", T8).
func checkCommitmentBinding(seq GameSequence, finalizer string, declaredMethod *string) error {
	revealed, err := revealedTokensByAuthor(seq.Events, finalizer)
	if err != nil {
		return err
	}
	if len(revealed) == 0 {
		return nil // nothing revealed yet to bind; game.IsComplete already gated this Final.
	}
	declaredHash, err := declaredCommitmentHash(seq, finalizer)
	if err != nil {
		return err
	}

	var got commitment.Commitment
	if len(revealed) > 1 {
		if declaredMethod == nil {
			return fmt.Errorf("finalizer revealed %d tokens but declared no commitment_method", len(revealed))
		}
		method, err := methodFromWire(*declaredMethod)
		if err != nil {
			return err
		}
		got, err = commitment.Multi(revealed, method)
		if err != nil {
			return err
		}
	} else {
		if declaredMethod != nil {
			return fmt.Errorf("finalizer revealed a single token but declared commitment_method %q", *declaredMethod)
		}
		got = commitment.Single(revealed[0])
	}
	if !bytes.Equal(got.Hash[:], declaredHash[:]) {
		return fmt.Errorf("reconstructed commitment does not match the hash declared at challenge/accept time")
	}
	return nil
}

func methodFromWire(s string) (commitment.Method, error) {
	switch s {
	case "concat":
		return commitment.MethodConcat, nil
	case "merkle_r4":
		return commitment.MethodMerkleR4, nil
	default:
		return 0, fmt.Errorf("unknown commitment_method %q", s)
	}
}

func priorFinalBy(events []nostr.Event, root, author string) (event.FinalContent, bool, error) {
	for _, ev := range events {
		if event.Kind(ev.Kind) == event.KindFinal && ev.PubKey == author {
			f, err := event.ParseFinal(ev)
			if err != nil {
				return event.FinalContent{}, false, err
			}
			if f.GameSequenceRoot == root {
				return f, true, nil
			}
		}
	}
	return event.FinalContent{}, false, nil
}

func (m *Machine) applyFinal(seq GameSequence, g game.Game, ev nostr.Event) (GameSequence, *ValidationError) {
	fc, err := event.ParseFinal(ev)
	if err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, err.Error())
	}
	if fc.GameSequenceRoot != seq.Root {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "final.game_sequence_root does not match sequence root")
	}
	if !g.IsComplete(seq.Events) {
		return m.forfeitAgainst(seq, ev, ErrInvalidMove, "final published before the game reached a terminal position")
	}
	if err := checkCommitmentBinding(seq, ev.PubKey, fc.CommitmentMethod); err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidCommitment, err.Error())
	}

	if _, already, err := priorFinalBy(seq.Events, seq.Root, ev.PubKey); err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, err.Error())
	} else if already {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "author already published a Final for this sequence")
	}

	if g.RequiredFinalEvents() == 1 {
		return m.completeSequence(seq, g, ev)
	}

	peer := otherPlayer(seq.Players, ev.PubKey)
	peerFinal, peerFinalized, err := priorFinalBy(seq.Events, seq.Root, peer)
	if err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, err.Error())
	}
	if !peerFinalized {
		next := appendEvent(seq, ev)
		next.State = StateWaitingForFinal
		m.log.Debug().Str("root", seq.Root).Str("author", ev.PubKey).Msg("final received, awaiting peer")
		return next, nil
	}
	if !bytes.Equal([]byte(peerFinal.FinalState), []byte(fc.FinalState)) {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "final_state does not match peer's Final")
	}
	return m.completeSequence(seq, g, ev)
}

func (m *Machine) applyWaitingForFinal(seq GameSequence, g game.Game, ev nostr.Event) (GameSequence, *ValidationError) {
	if !authorInPlayers(seq.Players, ev.PubKey) {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "event author is not a player of this sequence")
	}
	if event.Kind(ev.Kind) != event.KindFinal {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, fmt.Sprintf("expected the peer's Final while WaitingForFinal, got %s", event.Kind(ev.Kind)))
	}
	return m.applyFinal(seq, g, ev)
}

func (m *Machine) completeSequence(seq GameSequence, g game.Game, ev nostr.Event) (GameSequence, *ValidationError) {
	next := appendEvent(seq, ev)
	winner, draw, err := g.DetermineWinner(next.Events)
	if err != nil {
		return m.forfeitAgainst(seq, ev, ErrInvalidSequence, "determine_winner: "+err.Error())
	}
	next.State = StateComplete
	next.Verdict = Verdict{Winner: winner, Draw: draw}
	m.log.Info().Str("root", seq.Root).Str("winner", winner).Bool("draw", draw).Msg("sequence complete")
	return next, nil
}
