package event

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kirk-protocol/kirk/internal/commitment"
	"github.com/kirk-protocol/kirk/internal/kirkerr"
)

var (
	clockMu   sync.Mutex
	lastStamp nostr.Timestamp
)

// ReserveTimestamp returns a created_at strictly greater than every
// timestamp this process has already issued through ReserveTimestamp or
// Build. nostr.Now()'s whole-second resolution otherwise ties every
// event a fast local match produces (spec.md §5 "out-of-order
// arrivals"), which a plain (created_at, id) sort cannot reliably
// unscramble back into causal order. A caller that must embed its own
// created_at in content before building (a Challenge's expiry) reserves
// one here and passes it to BuildAt.
func ReserveTimestamp() nostr.Timestamp {
	clockMu.Lock()
	defer clockMu.Unlock()
	now := nostr.Now()
	if now <= lastStamp {
		now = lastStamp + 1
	}
	lastStamp = now
	return now
}

// Build fills kind, stable-serializes content to canonical JSON (sorted
// keys, no whitespace), and signs the result with sk, producing the
// transport's id and signature (spec.md §4.3 "build"). sk is a hex
// nostr private key.
func Build(kind Kind, content interface{}, sk string) (nostr.Event, error) {
	return BuildAt(kind, content, sk, ReserveTimestamp())
}

// BuildAt behaves like Build but stamps ev with an already-reserved
// timestamp, for a caller that needed created_at before it could
// finish assembling content.
func BuildAt(kind Kind, content interface{}, sk string, createdAt nostr.Timestamp) (nostr.Event, error) {
	raw, err := CanonicalJSON(content)
	if err != nil {
		return nostr.Event{}, kirkerr.Wrap(kirkerr.CodecError, "", err, "event: canonicalize content")
	}
	pub, err := nostr.GetPublicKey(sk)
	if err != nil {
		return nostr.Event{}, kirkerr.Wrap(kirkerr.CodecError, "", err, "event: derive public key")
	}
	ev := nostr.Event{
		PubKey:    pub,
		CreatedAt: createdAt,
		Kind:      int(kind),
		Tags:      nostr.Tags{},
		Content:   string(raw),
	}
	if err := ev.Sign(sk); err != nil {
		return nostr.Event{}, kirkerr.Wrap(kirkerr.CodecError, "", err, "event: sign")
	}
	return ev, nil
}

// VerifySignature checks ev's signature and that its id matches the hash
// of its canonical fields, delegating both to the nostr wire schema
// (spec.md §6 "verify_signature").
func VerifySignature(ev nostr.Event) bool {
	ok, err := ev.CheckSignature()
	return err == nil && ok
}

func wrongKind(ev nostr.Event, want Kind) error {
	return kirkerr.New(kirkerr.CodecError, ev.ID,
		fmt.Sprintf("expected kind %s (%d), got %d", want, int(want), ev.Kind))
}

func expiryPast(expiry uint64, createdAt int64) bool {
	return int64(expiry) <= createdAt
}

// ParseChallenge parses a kind-9259 event (spec.md §4.3).
func ParseChallenge(ev nostr.Event) (ChallengeContent, error) {
	if Kind(ev.Kind) != KindChallenge {
		return ChallengeContent{}, wrongKind(ev, KindChallenge)
	}
	var c ChallengeContent
	if err := json.Unmarshal([]byte(ev.Content), &c); err != nil {
		return ChallengeContent{}, kirkerr.Wrap(kirkerr.CodecError, ev.ID, err, "malformed challenge content")
	}
	if c.GameType == "" {
		return ChallengeContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "challenge: game_type is required")
	}
	if len(c.CommitmentHashes) == 0 {
		return ChallengeContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "challenge: at least one commitment hash required")
	}
	for _, h := range c.CommitmentHashes {
		if _, err := hex.DecodeString(h); err != nil || len(h) != 64 {
			return ChallengeContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "challenge: malformed commitment hash "+h)
		}
	}
	if c.Expiry != nil && expiryPast(*c.Expiry, int64(ev.CreatedAt)) {
		return ChallengeContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "challenge: expiry is not after created_at")
	}
	return c, nil
}

// ParseChallengeAccept parses a kind-9260 event (spec.md §4.3).
func ParseChallengeAccept(ev nostr.Event) (ChallengeAcceptContent, error) {
	if Kind(ev.Kind) != KindChallengeAccept {
		return ChallengeAcceptContent{}, wrongKind(ev, KindChallengeAccept)
	}
	var c ChallengeAcceptContent
	if err := json.Unmarshal([]byte(ev.Content), &c); err != nil {
		return ChallengeAcceptContent{}, kirkerr.Wrap(kirkerr.CodecError, ev.ID, err, "malformed challenge_accept content")
	}
	if c.ChallengeID == "" {
		return ChallengeAcceptContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "challenge_accept: challenge_id is required")
	}
	if len(c.CommitmentHashes) == 0 {
		return ChallengeAcceptContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "challenge_accept: at least one commitment hash required")
	}
	for _, h := range c.CommitmentHashes {
		if _, err := hex.DecodeString(h); err != nil || len(h) != 64 {
			return ChallengeAcceptContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "challenge_accept: malformed commitment hash "+h)
		}
	}
	return c, nil
}

// ParseMove parses a kind-9261 event (spec.md §4.3).
func ParseMove(ev nostr.Event) (MoveContent, error) {
	if Kind(ev.Kind) != KindMove {
		return MoveContent{}, wrongKind(ev, KindMove)
	}
	var c MoveContent
	if err := json.Unmarshal([]byte(ev.Content), &c); err != nil {
		return MoveContent{}, kirkerr.Wrap(kirkerr.CodecError, ev.ID, err, "malformed move content")
	}
	if c.PreviousEventID == "" {
		return MoveContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "move: previous_event_id is required")
	}
	if !c.MoveType.Valid() {
		return MoveContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "move: unknown move_type "+string(c.MoveType))
	}
	return c, nil
}

// commitmentMethodFromWire decodes the Final "commitment_method" wire
// string ("concat" | "merkle_r4") into a commitment.Method.
func commitmentMethodFromWire(s string) (commitment.Method, error) {
	switch s {
	case "concat":
		return commitment.MethodConcat, nil
	case "merkle_r4":
		return commitment.MethodMerkleR4, nil
	default:
		return 0, fmt.Errorf("unknown commitment_method %q", s)
	}
}

// CommitmentMethodToWire encodes a multi-token commitment.Method as the
// Final wire string.
func CommitmentMethodToWire(m commitment.Method) (string, error) {
	switch m {
	case commitment.MethodConcat:
		return "concat", nil
	case commitment.MethodMerkleR4:
		return "merkle_r4", nil
	default:
		return "", fmt.Errorf("commitment method %s has no wire representation", m)
	}
}

// ParseFinal parses a kind-9262 event (spec.md §4.3). It validates the
// syntax of commitment_method when present; whether one was *required*
// for this author is a sequence-level check (spec.md T8) made once the
// author's revealed token count is known.
func ParseFinal(ev nostr.Event) (FinalContent, error) {
	if Kind(ev.Kind) != KindFinal {
		return FinalContent{}, wrongKind(ev, KindFinal)
	}
	var c FinalContent
	if err := json.Unmarshal([]byte(ev.Content), &c); err != nil {
		return FinalContent{}, kirkerr.Wrap(kirkerr.CodecError, ev.ID, err, "malformed final content")
	}
	if c.GameSequenceRoot == "" {
		return FinalContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "final: game_sequence_root is required")
	}
	if c.CommitmentMethod != nil {
		if _, err := commitmentMethodFromWire(*c.CommitmentMethod); err != nil {
			return FinalContent{}, kirkerr.Wrap(kirkerr.CodecError, ev.ID, err, "final: invalid commitment_method")
		}
	}
	return c, nil
}

// ParseReward parses the non-failure payload of a kind-9263 event
// (spec.md §4.3).
func ParseReward(ev nostr.Event) (RewardContent, error) {
	if Kind(ev.Kind) != KindReward {
		return RewardContent{}, wrongKind(ev, KindReward)
	}
	var c RewardContent
	if err := json.Unmarshal([]byte(ev.Content), &c); err != nil {
		return RewardContent{}, kirkerr.Wrap(kirkerr.CodecError, ev.ID, err, "malformed reward content")
	}
	if c.GameSequenceRoot == "" {
		return RewardContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "reward: game_sequence_root is required")
	}
	return c, nil
}

// ParseValidationFailure parses the alternative failure payload of a
// kind-9263 event.
func ParseValidationFailure(ev nostr.Event) (ValidationFailureContent, error) {
	if Kind(ev.Kind) != KindReward {
		return ValidationFailureContent{}, wrongKind(ev, KindReward)
	}
	var c ValidationFailureContent
	if err := json.Unmarshal([]byte(ev.Content), &c); err != nil {
		return ValidationFailureContent{}, kirkerr.Wrap(kirkerr.CodecError, ev.ID, err, "malformed validation_failure content")
	}
	if c.Reason == "" {
		return ValidationFailureContent{}, kirkerr.New(kirkerr.CodecError, ev.ID, "validation_failure: reason is required")
	}
	return c, nil
}

// ParentOf returns the chain link named by ev's content (spec.md §4.3
// "parent_of"): Challenge has none; every other kind names exactly one
// parent event id.
func ParentOf(ev nostr.Event) (parentID string, ok bool, err error) {
	switch Kind(ev.Kind) {
	case KindChallenge:
		return "", false, nil
	case KindChallengeAccept:
		c, err := ParseChallengeAccept(ev)
		if err != nil {
			return "", false, err
		}
		return c.ChallengeID, true, nil
	case KindMove:
		c, err := ParseMove(ev)
		if err != nil {
			return "", false, err
		}
		return c.PreviousEventID, true, nil
	case KindFinal:
		c, err := ParseFinal(ev)
		if err != nil {
			return "", false, err
		}
		return c.GameSequenceRoot, true, nil
	case KindReward:
		c, err := ParseReward(ev)
		if err != nil {
			return "", false, err
		}
		return c.GameSequenceRoot, true, nil
	default:
		return "", false, kirkerr.New(kirkerr.CodecError, ev.ID, fmt.Sprintf("parent_of: unknown kind %d", ev.Kind))
	}
}
