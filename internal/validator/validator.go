// Package validator implements the validator (C7, spec.md §4.7): given
// the full event list of one sequence, it replays the state machine and
// reports a byte-identical-across-observers ValidationResult.
package validator

import (
	"context"
	"sort"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"

	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/fraud"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/metrics"
	"github.com/kirk-protocol/kirk/internal/sequence"
)

// Result is the validator's output (spec.md §4.7 "ValidationResult"):
// the terminal sequence plus every error a transition rejected along
// the way. A non-empty Errors slice does not mean validation "failed"
// — the first rejected event simply forfeited the sequence, which is
// itself a valid, reportable outcome.
type Result struct {
	Sequence sequence.GameSequence
	Errors   []sequence.ValidationError
}

// Validator replays an event list against the sequence state machine
// (spec.md §4.7 steps 1-3).
type Validator struct {
	log     zerolog.Logger
	cfg     config.Config
	games   *game.Registry
	metrics *metrics.Counters
	ledger  *fraud.Ledger
}

// New constructs a Validator. games resolves a Challenge's game_type to
// the concrete Game implementation driving ValidateMove/IsComplete/
// DetermineWinner.
func New(log zerolog.Logger, cfg config.Config, games *game.Registry) *Validator {
	return &Validator{log: log, cfg: cfg, games: games}
}

// WithMetrics attaches a counters sink every subsequent Validate call
// records into. Passing nil (the default) disables recording.
func (v *Validator) WithMetrics(m *metrics.Counters) *Validator {
	v.metrics = m
	return v
}

// WithLedger attaches the mint-backed fraud ledger every subsequent
// Validate call consults for revealed tokens (spec.md §4.6 "Invalid
// token", "Replay"). Passing nil (the default) skips those checks.
func (v *Validator) WithLedger(l *fraud.Ledger) *Validator {
	v.ledger = l
	return v
}

// Validate resolves events into causal order, rejects a misplaced root,
// and folds the rest through the state machine (spec.md §4.7).
func (v *Validator) Validate(ctx context.Context, events []nostr.Event, now int64) Result {
	result := v.validate(ctx, events, now)
	v.record(result)
	return result
}

func (v *Validator) record(result Result) {
	if v.metrics == nil {
		return
	}
	v.metrics.SequencesValidated.Add(1)
	for _, e := range result.Errors {
		v.metrics.RecordFraud(string(e.Kind))
	}
	switch {
	case result.Sequence.State == sequence.StateComplete:
		v.metrics.SequencesCompleted.Add(1)
	case result.Sequence.State == sequence.StateForfeited && result.Sequence.Verdict.Draw:
		v.metrics.SequencesDrawn.Add(1)
	case result.Sequence.State == sequence.StateForfeited:
		v.metrics.SequencesForfeited.Add(1)
	}
}

func (v *Validator) validate(ctx context.Context, events []nostr.Event, now int64) Result {
	sorted := sortedCopy(events)

	if len(sorted) == 0 {
		return Result{}
	}
	for i, ev := range sorted {
		if event.Kind(ev.Kind) == event.KindChallenge && i != 0 {
			return Result{Errors: []sequence.ValidationError{{
				EventID: ev.ID,
				Kind:    sequence.ErrInvalidSequence,
				Message: "a Challenge event appeared after position 0",
			}}}
		}
	}

	if !event.VerifySignature(sorted[0]) {
		return Result{Errors: []sequence.ValidationError{{
			EventID: sorted[0].ID,
			Kind:    sequence.ErrInvalidSequence,
			Message: "challenge signature verification failed",
		}}}
	}

	seq, err := sequence.NewSequence(sorted[0])
	if err != nil {
		return Result{Errors: []sequence.ValidationError{{
			EventID: sorted[0].ID,
			Kind:    sequence.ErrInvalidSequence,
			Message: err.Error(),
		}}}
	}

	entry, ok := v.games.Lookup(seq.GameType)
	if !ok {
		return Result{
			Sequence: seq,
			Errors: []sequence.ValidationError{{
				EventID: sorted[0].ID,
				Kind:    sequence.ErrInvalidSequence,
				Message: "unregistered game_type " + seq.GameType,
			}},
		}
	}
	if err := sequence.ValidateChallengeParameters(sorted[0], entry.Game); err != nil {
		return Result{
			Sequence: seq,
			Errors: []sequence.ValidationError{{
				EventID: sorted[0].ID,
				Kind:    sequence.ErrInvalidSequence,
				Message: "game_parameters: " + err.Error(),
			}},
		}
	}

	m := sequence.NewMachine(v.log, v.cfg).WithLedger(v.ledger)
	var errs []sequence.ValidationError
	for _, ev := range sorted[1:] {
		if seq.State.Terminal() {
			break
		}
		var verr *sequence.ValidationError
		seq, verr = m.Apply(ctx, seq, entry.Game, ev, now)
		if verr != nil {
			errs = append(errs, *verr)
			if verr.Kind == sequence.ErrMintUnavailable {
				break
			}
		}
	}

	return Result{Sequence: seq, Errors: errs}
}

// sortedCopy resolves events into causal order: ties on created_at
// (the common case for a Build-stamped local match before the driver's
// monotonic clock was introduced, and always possible across two
// independent signers) are broken by the parent_of chain rather than by
// event id, so a child never sorts before its parent (spec.md §5
// "out-of-order arrivals... buffered until the chain-parent is
// processed"). Events outside any recognized chain, or whose parent is
// missing from the set entirely, fall back to id order so the sort
// stays total.
//
// A Final's parent_of names the sequence root, not the chain tip its
// Move history actually descends from, so ties additionally resolve
// through each root's explicit chain tip — the ChallengeAccept/Move
// never cited as another event's previous_event_id — the same
// chain-walk style transport.Memory.rootOf uses to resolve a root.
func sortedCopy(events []nostr.Event) []nostr.Event {
	out := make([]nostr.Event, len(events))
	copy(out, events)

	successor := make(map[string]string, len(out)) // chain-parent id -> its chain-child id
	for _, ev := range out {
		switch event.Kind(ev.Kind) {
		case event.KindChallengeAccept:
			if acc, err := event.ParseChallengeAccept(ev); err == nil {
				if _, taken := successor[acc.ChallengeID]; !taken {
					successor[acc.ChallengeID] = ev.ID
				}
			}
		case event.KindMove:
			if mv, err := event.ParseMove(ev); err == nil {
				if _, taken := successor[mv.PreviousEventID]; !taken {
					successor[mv.PreviousEventID] = ev.ID
				}
			}
		}
	}

	sortKey := make(map[string]string, len(out)) // event id -> its sort-parent id ("" if none)
	for _, ev := range out {
		sortKey[ev.ID] = sortParentOf(ev, successor)
	}

	depth := make(map[string]int, len(out))
	var depthOf func(id string) int
	depthOf = func(id string) int {
		if d, ok := depth[id]; ok {
			return d
		}
		parent, ok := sortKey[id]
		if !ok || parent == "" || parent == id {
			depth[id] = 0
			return 0
		}
		d := depthOf(parent) + 1
		depth[id] = d
		return d
	}
	for _, ev := range out {
		depthOf(ev.ID)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		if depth[out[i].ID] != depth[out[j].ID] {
			return depth[out[i].ID] < depth[out[j].ID]
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// sortParentOf returns the event id ties should be broken against: the
// chain tip of ev's root for a Final or Reward (whose parent_of names
// the root, not the tip), or ev's own parent_of otherwise.
func sortParentOf(ev nostr.Event, successor map[string]string) string {
	switch event.Kind(ev.Kind) {
	case event.KindFinal, event.KindReward:
		root, ok, err := event.ParentOf(ev)
		if err != nil || !ok {
			return ""
		}
		return chainTip(root, successor)
	default:
		parentID, ok, err := event.ParentOf(ev)
		if err != nil || !ok {
			return ""
		}
		return parentID
	}
}

// chainTip walks forward from root through successor (chain-parent id
// -> chain-child id) to the ChallengeAccept/Move with no further
// child — the most recent link in the explicit move chain descending
// from root.
func chainTip(root string, successor map[string]string) string {
	seen := make(map[string]bool)
	cur := root
	for {
		if seen[cur] {
			return cur
		}
		seen[cur] = true
		next, ok := successor[cur]
		if !ok {
			return cur
		}
		cur = next
	}
}
