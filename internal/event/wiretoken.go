package event

import (
	"encoding/hex"
	"fmt"

	"github.com/kirk-protocol/kirk/internal/token"
)

// WireProof is the on-the-wire JSON shape of a token.Proof: amounts as
// plain JSON numbers, secret/c as lowercase unprefixed hex (spec.md §6
// "Hex fields are lowercase, unprefixed").
type WireProof struct {
	Amount uint64 `json:"amount"`
	ID     string `json:"id"`
	Secret string `json:"secret"`
	C      string `json:"c"`
}

// WireToken is the JSON shape of a token.Token in Move.revealed_tokens
// and Reward.reward_tokens (spec.md §3).
type WireToken struct {
	Proofs []WireProof `json:"proofs"`
}

func ToWireToken(t token.Token) WireToken {
	wt := WireToken{Proofs: make([]WireProof, len(t.Proofs))}
	for i, p := range t.Proofs {
		wt.Proofs[i] = WireProof{
			Amount: p.Amount,
			ID:     p.ID,
			Secret: hex.EncodeToString(p.Secret),
			C:      hex.EncodeToString(p.C[:]),
		}
	}
	return wt
}

func FromWireToken(wt WireToken) (token.Token, error) {
	proofs := make([]token.Proof, len(wt.Proofs))
	for i, wp := range wt.Proofs {
		secret, err := hex.DecodeString(wp.Secret)
		if err != nil {
			return token.Token{}, fmt.Errorf("event: proof %d secret: %w", i, err)
		}
		cb, err := hex.DecodeString(wp.C)
		if err != nil {
			return token.Token{}, fmt.Errorf("event: proof %d c: %w", i, err)
		}
		if len(cb) != 32 {
			return token.Token{}, fmt.Errorf("event: proof %d c must be 32 bytes, got %d", i, len(cb))
		}
		var c [32]byte
		copy(c[:], cb)
		proofs[i] = token.Proof{Amount: wp.Amount, ID: wp.ID, Secret: secret, C: c}
	}
	return token.Token{Proofs: proofs}, nil
}

func ToWireTokens(toks []token.Token) []WireToken {
	out := make([]WireToken, len(toks))
	for i, t := range toks {
		out[i] = ToWireToken(t)
	}
	return out
}

func FromWireTokens(wts []WireToken) ([]token.Token, error) {
	out := make([]token.Token, len(wts))
	for i, wt := range wts {
		t, err := FromWireToken(wt)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
