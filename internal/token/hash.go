package token

import "crypto/sha256"

// Hash computes the CanonicalTokenHash of t (spec.md §4.1): SHA-256 over
// the concatenation, for every proof in the token's native order, of
// amount (8B big-endian) || secret || c (32B) || id (raw UTF-8 bytes).
//
// Hash never reorders t.Proofs: proof order is part of the token's
// identity as delivered by the mint, and two implementations hashing
// the same token must agree bit-for-bit.
func Hash(t Token) [32]byte {
	h := sha256.New()
	for _, p := range t.Proofs {
		h.Write(u64be(p.Amount))
		h.Write(p.Secret)
		h.Write(p.C[:])
		h.Write([]byte(p.ID))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func u64be(x uint64) []byte {
	return []byte{
		byte(x >> 56), byte(x >> 48), byte(x >> 40), byte(x >> 32),
		byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x),
	}
}
