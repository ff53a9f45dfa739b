package event

import "encoding/json"

// ChallengeContent is the content payload of a kind-9259 event (spec.md
// §3 "Challenge").
type ChallengeContent struct {
	GameType         string          `json:"game_type"`
	CommitmentHashes []string        `json:"commitment_hashes"`
	GameParameters   json.RawMessage `json:"game_parameters"`
	Expiry           *uint64         `json:"expiry,omitempty"`
}

// ChallengeAcceptContent is the content payload of a kind-9260 event
// (spec.md §3 "ChallengeAccept").
type ChallengeAcceptContent struct {
	ChallengeID      string   `json:"challenge_id"`
	CommitmentHashes []string `json:"commitment_hashes"`
}

// MoveContent is the content payload of a kind-9261 event (spec.md §3
// "Move").
type MoveContent struct {
	PreviousEventID string          `json:"previous_event_id"`
	MoveType        MoveType        `json:"move_type"`
	MoveData        json.RawMessage `json:"move_data"`
	RevealedTokens  []WireToken     `json:"revealed_tokens,omitempty"`
}

// FinalContent is the content payload of a kind-9262 event (spec.md §3
// "Final"). CommitmentMethod is the wire string form ("concat" |
// "merkle_r4"); it is nil unless the author's own commitment covered
// more than one token (spec.md T8).
type FinalContent struct {
	GameSequenceRoot string          `json:"game_sequence_root"`
	CommitmentMethod *string         `json:"commitment_method,omitempty"`
	FinalState       json.RawMessage `json:"final_state"`
}

// RewardContent is the non-failure payload of a kind-9263 event (spec.md
// §3 "Reward").
type RewardContent struct {
	GameSequenceRoot   string      `json:"game_sequence_root"`
	WinnerPubkey       string      `json:"winner_pubkey"`
	RewardTokens       []WireToken `json:"reward_tokens"`
	UnlockInstructions *string     `json:"unlock_instructions,omitempty"`
}

// ValidationFailureContent is the alternative kind-9263 payload emitted
// when the engine hits an InternalError it cannot fold into a fraud or
// timeout verdict (spec.md §3 "Reward ... Alternative payload").
type ValidationFailureContent struct {
	GameSequenceRoot string  `json:"game_sequence_root"`
	Reason           string  `json:"reason"`
	OffendingEventID *string `json:"offending_event_id,omitempty"`
}

// IsRewardFailure reports whether raw content JSON is a
// ValidationFailureContent rather than a RewardContent, by checking for
// the field only failures carry.
func IsRewardFailure(raw []byte) bool {
	var probe struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Reason != ""
}
