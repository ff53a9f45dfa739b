package sequence

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"

	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/fraud"
)

// TimeoutManager scans a GameSequence's events against the wall clock
// and forfeits a sequence that has gone quiet past one of spec.md
// §4.6's three deadlines. It holds no per-sequence state of its own —
// every deadline is recomputed from seq.Events and seq.CreatedAt on
// each Tick, so a crashed and restarted validator needs nothing beyond
// the event log to resume enforcing timeouts.
type TimeoutManager struct {
	log zerolog.Logger
	cfg config.Config
}

// NewTimeoutManager constructs a TimeoutManager bound to cfg's deadline
// durations (spec.md §4.6, SPEC_FULL.md §A.3).
func NewTimeoutManager(log zerolog.Logger, cfg config.Config) *TimeoutManager {
	return &TimeoutManager{log: log, cfg: cfg}
}

// Tick checks seq against now and, if a deadline has passed, returns
// the forfeited (or drawn) successor sequence. ok is false when no
// deadline has fired and seq is returned unchanged.
func (t *TimeoutManager) Tick(seq GameSequence, now int64) (next GameSequence, ok bool) {
	if seq.State.Terminal() {
		return seq, false
	}
	switch seq.State {
	case StateWaitingForAccept:
		return t.tickWaitingForAccept(seq, now)
	case StateInProgress, StateWaitingForFinal:
		if next, ok := t.tickCommitReveal(seq, now); ok {
			return next, true
		}
		return t.tickMoveInactivity(seq, now)
	default:
		return seq, false
	}
}

func (t *TimeoutManager) tickWaitingForAccept(seq GameSequence, now int64) (GameSequence, bool) {
	c, err := event.ParseChallenge(seq.Events[0])
	if err != nil || c.Expiry == nil {
		return seq, false
	}
	if now <= int64(*c.Expiry) {
		return seq, false
	}
	next := seq
	next.State = StateForfeited
	next.Verdict = Verdict{Winner: seq.Players[0], Dissolved: true}
	t.log.Info().Str("root", seq.Root).Msg("challenge dissolved: no accept before expiry")
	return next, true
}

// tickCommitReveal enforces spec.md §4.6's commit-reveal deadline: a
// Move{move_type=Commit} not matched by a later same-author
// Move{move_type=Reveal} within CommitRevealDeadlineSecs forfeits the
// commit's author.
func (t *TimeoutManager) tickCommitReveal(seq GameSequence, now int64) (GameSequence, bool) {
	for i, ev := range seq.Events {
		if event.Kind(ev.Kind) != event.KindMove {
			continue
		}
		mv, err := event.ParseMove(ev)
		if err != nil || mv.MoveType != event.MoveTypeCommit {
			continue
		}
		if now <= int64(ev.CreatedAt)+int64(t.cfg.CommitRevealDeadlineSecs) {
			continue
		}
		if revealedAfter(seq.Events[i+1:], ev.PubKey) {
			continue
		}
		return t.forfeitTimeout(seq, ev.PubKey, "commit not revealed within the commit-reveal deadline")
	}
	return seq, false
}

func revealedAfter(events []nostr.Event, author string) bool {
	for _, ev := range events {
		if event.Kind(ev.Kind) != event.KindMove || ev.PubKey != author {
			continue
		}
		mv, err := event.ParseMove(ev)
		if err == nil && mv.MoveType == event.MoveTypeReveal {
			return true
		}
	}
	return false
}

// tickMoveInactivity enforces spec.md §4.6's move-inactivity deadline:
// once a player's last event is older than MoveInactivityDeadlineSecs,
// they forfeit unless their opponent is equally stale, in which case
// the sequence is drawn (SPEC_FULL.md §C.5 "double-delinquency draw").
func (t *TimeoutManager) tickMoveInactivity(seq GameSequence, now int64) (GameSequence, bool) {
	lastByPlayer := map[string]int64{
		seq.Players[0]: seq.CreatedAt,
		seq.Players[1]: seq.CreatedAt,
	}
	for _, ev := range seq.Events {
		if ev.PubKey == seq.Players[0] || ev.PubKey == seq.Players[1] {
			if int64(ev.CreatedAt) > lastByPlayer[ev.PubKey] {
				lastByPlayer[ev.PubKey] = int64(ev.CreatedAt)
			}
		}
	}

	deadline := int64(t.cfg.MoveInactivityDeadlineSecs)
	p0Stale := now > lastByPlayer[seq.Players[0]]+deadline
	p1Stale := seq.Players[1] != "" && now > lastByPlayer[seq.Players[1]]+deadline

	switch {
	case p0Stale && p1Stale:
		v := fraud.Draw()
		next := seq
		next.State = StateForfeited
		next.Verdict = Verdict{Draw: v.Draw}
		t.log.Info().Str("root", seq.Root).Msg("sequence drawn: both players delinquent past move-inactivity deadline")
		return next, true
	case p0Stale:
		return t.forfeitTimeout(seq, seq.Players[0], "no move within the move-inactivity deadline")
	case p1Stale:
		return t.forfeitTimeout(seq, seq.Players[1], "no move within the move-inactivity deadline")
	default:
		return seq, false
	}
}

func (t *TimeoutManager) forfeitTimeout(seq GameSequence, offender, reason string) (GameSequence, bool) {
	v := fraud.Resolve(seq.Players, fraud.ClassTimeout, offender)
	next := seq
	next.State = StateForfeited
	next.Verdict = Verdict{Winner: v.Winner, Offender: v.Offender}
	t.log.Info().Str("root", seq.Root).Str("offender", offender).Str("reason", reason).Msg("sequence forfeited on timeout")
	return next, true
}
