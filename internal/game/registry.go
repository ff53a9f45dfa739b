package game

import (
	"fmt"
	"sync"

	"github.com/kirk-protocol/kirk/internal/token"
)

// Entry pairs a Game with the reward policy that applies to it. Policy
// is optional; reward.DefaultPolicy is used when unset (spec.md §9 Open
// Questions: "Reward-amount policy is a separate policy object").
// Policy has reward.Policy's underlying func type, so a reward.Policy
// value is stored here directly without this package importing
// internal/reward (which depends on internal/sequence, and so on this
// package).
type Entry struct {
	Game   Game
	Policy func(burn []token.Proof) (amount uint64, err error)
}

// Registry maps game_type strings to Entry values (spec.md §9 "a
// registry keyed by game_type string"). The zero value is not usable;
// construct with NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds g under g.Type(), optionally paired with a reward
// policy. It panics on a duplicate game_type, which is a programming
// error (registration happens once at startup), not a runtime
// condition.
func (r *Registry) Register(g Game, policy func(burn []token.Proof) (amount uint64, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := g.Type()
	if _, exists := r.entries[t]; exists {
		panic(fmt.Sprintf("game: duplicate registration for game_type %q", t))
	}
	r.entries[t] = Entry{Game: g, Policy: policy}
}

// Lookup returns the Entry for gameType, or ok==false if unregistered.
func (r *Registry) Lookup(gameType string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[gameType]
	return e, ok
}

// Types returns the registered game_type strings.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	return out
}
