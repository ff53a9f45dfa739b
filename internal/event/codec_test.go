package event

import (
	"encoding/json"
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func mustKey(t *testing.T) string {
	t.Helper()
	return nostr.GeneratePrivateKey()
}

func TestBuildParseRoundTrip(t *testing.T) {
	sk := mustKey(t)
	want := ChallengeContent{
		GameType:         "coinflip",
		CommitmentHashes: []string{"aa0000000000000000000000000000000000000000000000000000000000000a"[:64]},
		GameParameters:   json.RawMessage(`{}`),
	}
	ev, err := Build(KindChallenge, want, sk)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !VerifySignature(ev) {
		t.Fatalf("built event failed signature verification")
	}
	got, err := ParseChallenge(ev)
	if err != nil {
		t.Fatalf("ParseChallenge: %v", err)
	}
	if got.GameType != want.GameType || got.CommitmentHashes[0] != want.CommitmentHashes[0] {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, want)
	}
}

func TestParseRejectsWrongKind(t *testing.T) {
	sk := mustKey(t)
	ev, err := Build(KindMove, MoveContent{PreviousEventID: "x", MoveType: MoveTypeMove, MoveData: json.RawMessage(`{}`)}, sk)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseChallenge(ev); err == nil {
		t.Fatalf("expected wrong-kind error")
	}
}

func TestParseRejectsUnknownMoveType(t *testing.T) {
	sk := mustKey(t)
	ev, err := Build(KindMove, map[string]interface{}{
		"previous_event_id": "abc",
		"move_type":         "teleport",
		"move_data":         map[string]interface{}{},
	}, sk)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseMove(ev); err == nil {
		t.Fatalf("expected unknown move_type error")
	}
}

func TestParseChallengeRejectsPastExpiry(t *testing.T) {
	sk := mustKey(t)
	past := uint64(1)
	ev, err := Build(KindChallenge, ChallengeContent{
		GameType:         "coinflip",
		CommitmentHashes: []string{"aa0000000000000000000000000000000000000000000000000000000000000a"[:64]},
		GameParameters:   json.RawMessage(`{}`),
		Expiry:           &past,
	}, sk)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseChallenge(ev); err == nil {
		t.Fatalf("expected expiry-in-the-past rejection")
	}
}

func TestParentOfChainLinks(t *testing.T) {
	sk := mustKey(t)
	root, err := Build(KindChallenge, ChallengeContent{
		GameType:         "coinflip",
		CommitmentHashes: []string{"aa0000000000000000000000000000000000000000000000000000000000000a"[:64]},
		GameParameters:   json.RawMessage(`{}`),
	}, sk)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := ParentOf(root); ok || err != nil {
		t.Fatalf("challenge must have no parent: ok=%v err=%v", ok, err)
	}

	accept, err := Build(KindChallengeAccept, ChallengeAcceptContent{
		ChallengeID:      root.ID,
		CommitmentHashes: []string{"bb0000000000000000000000000000000000000000000000000000000000000b"[:64]},
	}, mustKey(t))
	if err != nil {
		t.Fatal(err)
	}
	parent, ok, err := ParentOf(accept)
	if err != nil || !ok || parent != root.ID {
		t.Fatalf("accept parent = %q, %v, %v; want %q", parent, ok, err, root.ID)
	}
}

func TestParseFinalRejectsInvalidCommitmentMethod(t *testing.T) {
	sk := mustKey(t)
	bad := "xor"
	ev, err := Build(KindFinal, FinalContent{
		GameSequenceRoot: "root",
		CommitmentMethod: &bad,
		FinalState:       json.RawMessage(`{}`),
	}, sk)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFinal(ev); err == nil {
		t.Fatalf("expected invalid commitment_method rejection")
	}
}
