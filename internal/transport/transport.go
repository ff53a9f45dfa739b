// Package transport declares the pub/sub event-log boundary the engine
// consumes (spec.md §6 "Transport (pub/sub event log)"). Relay
// connections, subscription management, and signature algorithms are
// out of scope (spec.md §1); Kirk borrows the nostr wire format for the
// event shape itself (internal/event) but only depends on this narrow
// interface for moving events around.
package transport

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// Filter selects events by kind and by a tag reference to a root event
// id, matching how the retrieval pack's nostr-based examples subscribe
// (spec.md §6 "filters select by kind and by tag references to a root
// event id").
type Filter struct {
	Kinds []int
	Root  string // sequence root event id, empty to match any
}

// Transport is the engine's view of a decentralized pub/sub event log.
type Transport interface {
	// Publish broadcasts an already-signed event (signing happens in
	// event.Build), returning once accepted by at least one relay.
	Publish(ctx context.Context, ev nostr.Event) error

	// Subscribe returns a channel of events matching filter,
	// delivered at-least-once; the engine deduplicates by event id
	// (spec.md §5 "Shared resources"). The channel closes when ctx is
	// canceled.
	Subscribe(ctx context.Context, filter Filter) (<-chan nostr.Event, error)

	// Fetch performs a bounded backfill query, used to resolve a
	// buffered event whose chain-parent has not yet arrived (spec.md
	// §5 "Ordering guarantees").
	Fetch(ctx context.Context, filter Filter, deadline time.Time) ([]nostr.Event, error)

	// VerifySignature checks ev's signature before the engine accepts
	// it (spec.md §6 "engine calls before accepting").
	VerifySignature(ev nostr.Event) bool
}
