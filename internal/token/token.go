// Package token models the bearer ecash tokens Kirk treats as opaque
// randomness and value carriers (spec.md §3 "Token (external value)").
// The mint's internals — minting, swap, melt, proof verification — are
// out of scope; this package only knows the shape the engine needs to
// hash, commit to, and reward tokens deterministically.
package token

// Kind distinguishes a freely-spendable Game token from a P2PK-locked
// Reward token. The engine never mints a Reward token itself — it asks
// the mint to (§4.8). Kind is in-process bookkeeping only: the wire
// form (event.WireToken) does not carry it, so a token decoded from an
// event is always Game, and no engine path rejects a token by Kind.
type Kind int

const (
	Game Kind = iota
	Reward
)

func (k Kind) String() string {
	if k == Reward {
		return "reward"
	}
	return "game"
}

// Proof is one quadruple of a token's unordered-by-the-mint,
// ordered-by-delivery proof set. C supplies the token's ~256 bits of
// public randomness (spec.md §3).
type Proof struct {
	Amount uint64
	ID     string
	Secret []byte
	C      [32]byte
}

// Token is a bearer credential: an ordered sequence of proofs as
// delivered by the mint. Proof order is part of the token's identity —
// callers must not reorder it before hashing (spec.md §4.1).
type Token struct {
	Kind   Kind
	Proofs []Proof
}

// TotalAmount sums the token's proof amounts, the basis for reward and
// burn-set accounting (spec.md §4.8).
func (t Token) TotalAmount() uint64 {
	var sum uint64
	for _, p := range t.Proofs {
		sum += p.Amount
	}
	return sum
}
