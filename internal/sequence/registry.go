package sequence

import (
	"github.com/sasha-s/go-deadlock"
)

// Registry holds the in-flight GameSequence for every root a validator
// has observed, keyed by the Challenge event id (spec.md §3
// "GameSequence"). Every method takes its mutex, so callers on several
// goroutines can share one Registry; the mutex is a deadlock-detecting
// drop-in rather than a plain sync.Mutex (SPEC_FULL.md §B).
type Registry struct {
	mu   deadlock.Mutex
	byID map[string]GameSequence
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]GameSequence)}
}

// Get returns the sequence rooted at root, if any.
func (r *Registry) Get(root string) (GameSequence, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq, ok := r.byID[root]
	return seq, ok
}

// Put stores or replaces the sequence rooted at seq.Root.
func (r *Registry) Put(seq GameSequence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[seq.Root] = seq
}

// Delete removes the sequence rooted at root, e.g. once a reward has
// been distributed and the sequence no longer needs to be held live.
func (r *Registry) Delete(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, root)
}

// Roots returns every root currently tracked, for the timeout sweep to
// iterate over.
func (r *Registry) Roots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byID))
	for root := range r.byID {
		out = append(out, root)
	}
	return out
}

// Active returns every non-terminal sequence, for the timeout sweep.
func (r *Registry) Active() []GameSequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GameSequence, 0, len(r.byID))
	for _, seq := range r.byID {
		if !seq.State.Terminal() {
			out = append(out, seq)
		}
	}
	return out
}
