package transport

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"github.com/kirk-protocol/kirk/internal/event"
)

// Memory is an in-process Transport: every Publish fans out to every
// live Subscribe channel whose Filter matches, and Fetch replays the
// log kept so far. Relay connections and wire-level signature schemes
// are out of scope for the engine (spec.md §1); Memory exists so
// cmd/kirk-play and the player/validator tests have something real to
// drive without standing up a relay.
type Memory struct {
	mu   deadlock.Mutex
	log  []nostr.Event
	byID map[string]nostr.Event
	subs []memorySub
}

type memorySub struct {
	filter Filter
	ch     chan nostr.Event
}

// NewMemory returns an empty in-process transport.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]nostr.Event)}
}

// rootOf climbs ev's parent_of chain to the root Challenge event id,
// resolving each hop against events already indexed by this Memory
// (spec.md §6 "filters select by... tag references to a root event
// id" — Memory substitutes a chain walk for an actual tag since Kirk's
// content schema already carries every chain link).
func (m *Memory) rootOf(ev nostr.Event) (string, bool) {
	cur := ev
	for {
		parentID, ok, err := event.ParentOf(cur)
		if err != nil {
			return "", false
		}
		if !ok {
			return cur.ID, true
		}
		parent, found := m.byID[parentID]
		if !found {
			return "", false
		}
		cur = parent
	}
}

func (m *Memory) matches(filter Filter, ev nostr.Event) bool {
	if len(filter.Kinds) > 0 {
		found := false
		for _, k := range filter.Kinds {
			if k == ev.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Root != "" {
		root, ok := m.rootOf(ev)
		if !ok || root != filter.Root {
			return false
		}
	}
	return true
}

// Publish appends ev to the log and fans it out to matching
// subscribers.
func (m *Memory) Publish(ctx context.Context, ev nostr.Event) error {
	m.mu.Lock()
	m.log = append(m.log, ev)
	m.byID[ev.ID] = ev
	matching := make([]chan nostr.Event, 0, len(m.subs))
	for _, s := range m.subs {
		if m.matches(s.filter, ev) {
			matching = append(matching, s.ch)
		}
	}
	m.mu.Unlock()

	for _, ch := range matching {
		select {
		case ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe returns a channel fed by future Publish calls matching
// filter; it closes when ctx is canceled.
func (m *Memory) Subscribe(ctx context.Context, filter Filter) (<-chan nostr.Event, error) {
	ch := make(chan nostr.Event, 64)
	m.mu.Lock()
	m.subs = append(m.subs, memorySub{filter: filter, ch: ch})
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.ch == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// Fetch replays the log kept so far, filtered by filter. deadline is
// accepted for interface compatibility; Memory never blocks.
func (m *Memory) Fetch(ctx context.Context, filter Filter, deadline time.Time) ([]nostr.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []nostr.Event
	for _, ev := range m.log {
		if m.matches(filter, ev) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// VerifySignature delegates to the nostr wire schema directly, since
// Memory carries real signed events end to end.
func (m *Memory) VerifySignature(ev nostr.Event) bool {
	return event.VerifySignature(ev)
}
