package commitment

import (
	"math/rand"
	"testing"

	"github.com/kirk-protocol/kirk/internal/token"
)

func tokenWithC(b byte) token.Token {
	c := [32]byte{}
	c[0] = b
	return token.Token{Proofs: []token.Proof{{Amount: 1, ID: "mint", Secret: []byte{b}, C: c}}}
}

func TestSingleRoundTrip(t *testing.T) {
	tok := tokenWithC(0x07)
	c := Single(tok)
	if c.Method != MethodSingle {
		t.Fatalf("wrong method")
	}
	if !Verify(c, []token.Token{tok}) {
		t.Fatalf("single commitment did not verify")
	}
	if Verify(c, []token.Token{tokenWithC(0x08)}) {
		t.Fatalf("single commitment verified against wrong token")
	}
}

// T1: commitments are invariant under input permutation.
func TestMultiInvariantUnderPermutation(t *testing.T) {
	toks := make([]token.Token, 6)
	for i := range toks {
		toks[i] = tokenWithC(byte(i))
	}
	for _, method := range []Method{MethodConcat, MethodMerkleR4} {
		base, err := Multi(toks, method)
		if err != nil {
			t.Fatal(err)
		}
		rnd := rand.New(rand.NewSource(int64(method) + 1))
		for trial := 0; trial < 20; trial++ {
			shuffled := append([]token.Token(nil), toks...)
			rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			got, err := Multi(shuffled, method)
			if err != nil {
				t.Fatal(err)
			}
			if got.Hash != base.Hash {
				t.Fatalf("method %s not permutation-invariant on trial %d", method, trial)
			}
		}
	}
}

// T2: distinct token sets must (almost certainly) commit differently.
func TestMultiBindingAcrossDistinctSets(t *testing.T) {
	a := []token.Token{tokenWithC(1), tokenWithC(2), tokenWithC(3)}
	b := []token.Token{tokenWithC(1), tokenWithC(2), tokenWithC(4)}
	for _, method := range []Method{MethodConcat, MethodMerkleR4} {
		ca, _ := Multi(a, method)
		cb, _ := Multi(b, method)
		if ca.Hash == cb.Hash {
			t.Fatalf("method %s: distinct token sets collided", method)
		}
	}
}

func TestMerkleR4LeafCounts(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 16, 17} {
		toks := make([]token.Token, n)
		for i := range toks {
			toks[i] = tokenWithC(byte(i))
		}
		c, err := Multi(toks, MethodMerkleR4)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !Verify(c, toks) {
			t.Fatalf("n=%d: merkle commitment did not verify", n)
		}
	}
}

func TestMerkleSingleLeafIsLeafItself(t *testing.T) {
	tok := tokenWithC(9)
	c, err := Multi([]token.Token{tok}, MethodMerkleR4)
	if err != nil {
		t.Fatal(err)
	}
	if c.Hash != token.Hash(tok) {
		t.Fatalf("single-leaf merkle root must equal the leaf hash directly")
	}
}

// All 120 permutations of 5 tokens commit identically (spec.md §8 scenario 6).
func TestMerkleFivePermutations(t *testing.T) {
	toks := make([]token.Token, 5)
	for i := range toks {
		toks[i] = tokenWithC(byte(i))
	}
	base, err := Multi(toks, MethodMerkleR4)
	if err != nil {
		t.Fatal(err)
	}
	perm := make([]int, 5)
	for i := range perm {
		perm[i] = i
	}
	count := 0
	var permute func(k int)
	permute = func(k int) {
		if k == len(perm) {
			count++
			shuffled := make([]token.Token, len(toks))
			for i, idx := range perm {
				shuffled[i] = toks[idx]
			}
			got, err := Multi(shuffled, MethodMerkleR4)
			if err != nil {
				t.Fatal(err)
			}
			if got.Hash != base.Hash {
				t.Fatalf("permutation %v broke determinism", perm)
			}
			return
		}
		for i := k; i < len(perm); i++ {
			perm[k], perm[i] = perm[i], perm[k]
			permute(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	permute(0)
	if count != 120 {
		t.Fatalf("expected 120 permutations, got %d", count)
	}
}

func TestMultiRejectsSingleMethod(t *testing.T) {
	if _, err := Multi([]token.Token{tokenWithC(1)}, MethodSingle); err == nil {
		t.Fatalf("expected error for MethodSingle passed to Multi")
	}
}

func TestMultiRejectsEmpty(t *testing.T) {
	if _, err := Multi(nil, MethodConcat); err == nil {
		t.Fatalf("expected error for empty token list")
	}
}
