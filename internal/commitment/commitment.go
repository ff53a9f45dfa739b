// Package commitment implements Kirk's standardized token-commitment
// scheme (spec.md §4.2): single-token, concatenation, and radix-4
// Merkle commitments, plus verification. The scheme is deliberately
// simple SHA-256 plumbing — its security comes from the ~256 bits of
// randomness in a token's proof.C, not from the hash construction.
package commitment

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"sort"

	"github.com/kirk-protocol/kirk/internal/kirkcrypto"
	"github.com/kirk-protocol/kirk/internal/token"
)

// Method names the tag published at finalization time (spec.md §3
// "Commitment") so verifiers know how to reconstruct the hash.
type Method int

const (
	MethodSingle Method = iota
	MethodConcat
	MethodMerkleR4
)

func (m Method) String() string {
	switch m {
	case MethodSingle:
		return "single"
	case MethodConcat:
		return "concat"
	case MethodMerkleR4:
		return "merkle_r4"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// Commitment is the 32-byte published hash plus its tag.
type Commitment struct {
	Hash   [32]byte
	Method Method
}

// Single builds a Commitment over exactly one token (spec.md §4.2.1):
// hash = SHA256(hash_token(token)).
func Single(t token.Token) Commitment {
	h := token.Hash(t)
	sum := sha256.Sum256(h[:])
	return Commitment{Hash: sum, Method: MethodSingle}
}

// Multi builds a Commitment over a set of tokens using either
// concatenation or a radix-4 Merkle tree (spec.md §4.2.2-3). Token
// order among `toks` does not matter — Multi canonicalizes by sorting
// the per-token hashes ascending lexicographically before committing,
// which is what makes the commitment invariant under caller-side
// permutation (T1).
func Multi(toks []token.Token, method Method) (Commitment, error) {
	if len(toks) == 0 {
		return Commitment{}, fmt.Errorf("commitment: multi requires at least one token")
	}
	if method != MethodConcat && method != MethodMerkleR4 {
		return Commitment{}, fmt.Errorf("commitment: multi requires Concat or MerkleR4, got %s", method)
	}

	hs := make([][32]byte, len(toks))
	for i, t := range toks {
		hs[i] = token.Hash(t)
	}
	sort.Slice(hs, func(i, j int) bool {
		return bytes.Compare(hs[i][:], hs[j][:]) < 0
	})

	switch method {
	case MethodConcat:
		chunks := make([][]byte, len(hs))
		for i := range hs {
			chunks[i] = hs[i][:]
		}
		sum := sha256.Sum256(kirkcrypto.ConcatBytes(chunks...))
		return Commitment{Hash: sum, Method: MethodConcat}, nil
	default: // MethodMerkleR4
		return Commitment{Hash: merkleR4Root(hs), Method: MethodMerkleR4}, nil
	}
}

// merkleR4Root builds a radix-4 Merkle tree over leaves (already sorted
// by the caller) and returns the root. Each level groups nodes in
// fours, left to right; missing children are 32 zero bytes. A
// single-leaf tree's "root" is the leaf itself, with no further
// hashing (spec.md §4.2.3).
func merkleR4Root(leaves [][32]byte) [32]byte {
	level := leaves
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+3)/4)
		for i := 0; i < len(level); i += 4 {
			var buf [128]byte
			for j := 0; j < 4; j++ {
				if i+j < len(level) {
					copy(buf[j*32:(j+1)*32], level[i+j][:])
				}
				// else: leave as 32 zero bytes.
			}
			next = append(next, sha256.Sum256(buf[:]))
		}
		level = next
	}
	return level[0]
}

// Verify reconstructs a Commitment from toks using c.Method and
// constant-time compares the result against c.Hash (spec.md §4.2
// "verify"). A single-token commitment declared as Single requires
// exactly one token; anything else is reconstructed via Multi.
func Verify(c Commitment, toks []token.Token) bool {
	var recomputed Commitment
	switch c.Method {
	case MethodSingle:
		if len(toks) != 1 {
			return false
		}
		recomputed = Single(toks[0])
	case MethodConcat, MethodMerkleR4:
		var err error
		recomputed, err = Multi(toks, c.Method)
		if err != nil {
			return false
		}
	default:
		return false
	}
	return subtle.ConstantTimeCompare(recomputed.Hash[:], c.Hash[:]) == 1
}

// IsMulti reports whether method requires commitment_method to be
// declared at Final (spec.md §3 "Final" content, T8).
func (m Method) IsMulti() bool {
	return m == MethodConcat || m == MethodMerkleR4
}
