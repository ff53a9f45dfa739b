package mint

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"github.com/kirk-protocol/kirk/internal/token"
)

// Memory is an in-process Mint: it records which proof ids have been
// spent, and the distributor's idempotency set, without implementing
// the NUT-00/NUT-03 blind-signature protocol a real cashu mint would
// (that protocol is explicitly out of scope, spec.md §1 "ecash mint
// internals"). Issued proof ids are not recorded, so Verify accepts any
// token carrying at least one proof. It exists so cmd/kirk-play and the
// validator's ledger tests have a real Mint to drive end to end.
type Memory struct {
	mu      deadlock.Mutex
	spent   map[string]bool // proof id -> spent
	issued  map[string]bool // sequence root -> reward issued
	counter uint64
}

var _ Mint = (*Memory)(nil)

// NewMemory returns an empty in-process mint.
func NewMemory() *Memory {
	return &Memory{spent: make(map[string]bool), issued: make(map[string]bool)}
}

func (m *Memory) nextID() string {
	m.counter++
	return fmt.Sprintf("mem-%d", m.counter)
}

func randomC() ([32]byte, error) {
	var c [32]byte
	if _, err := rand.Read(c[:]); err != nil {
		return c, err
	}
	return c, nil
}

func (m *Memory) mintTokens(ctx context.Context, kind token.Kind, amount uint64) ([]token.Token, error) {
	c, err := randomC()
	if err != nil {
		return nil, fmt.Errorf("mint: generate randomness: %w", err)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("mint: generate secret: %w", err)
	}
	m.mu.Lock()
	id := m.nextID()
	m.mu.Unlock()
	return []token.Token{{
		Kind:   kind,
		Proofs: []token.Proof{{Amount: amount, ID: id, Secret: secret, C: c}},
	}}, nil
}

func (m *Memory) MintGameTokens(ctx context.Context, amount uint64) ([]token.Token, error) {
	return m.mintTokens(ctx, token.Game, amount)
}

func (m *Memory) MintP2PKTokens(ctx context.Context, amount uint64, pubkey string) ([]token.Token, error) {
	return m.mintTokens(ctx, token.Reward, amount)
}

func (m *Memory) Verify(ctx context.Context, t token.Token) (bool, error) {
	return len(t.Proofs) > 0, nil
}

func (m *Memory) IsSpent(ctx context.Context, t token.Token) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range t.Proofs {
		if m.spent[p.ID] {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Melt(ctx context.Context, tokens []token.Token) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var amount uint64
	for _, t := range tokens {
		for _, p := range t.Proofs {
			if m.spent[p.ID] {
				return 0, fmt.Errorf("mint: proof %s already spent", p.ID)
			}
			m.spent[p.ID] = true
			amount += p.Amount
		}
	}
	return amount, nil
}

func (m *Memory) Swap(ctx context.Context, tokens []token.Token) ([]token.Token, error) {
	amount, err := m.Melt(ctx, tokens)
	if err != nil {
		return nil, err
	}
	return m.mintTokens(ctx, token.Game, amount)
}

func (m *Memory) WouldIssueFor(ctx context.Context, root string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued[root], nil
}

func (m *Memory) MarkIssued(ctx context.Context, root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued[root] = true
	return nil
}
