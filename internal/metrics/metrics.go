// Package metrics implements the in-memory counters the original's
// ProcessingResult/metrics_collector kept per-sequence (SPEC_FULL.md
// §C.1). No example repo's dependency graph names an external metrics
// backend, so this stays a plain atomically-updated struct rather than
// wiring Prometheus or StatsD client code nothing else in the pack
// exercises (see DESIGN.md).
package metrics

import "sync/atomic"

// Counters tracks validator and distributor activity across every
// sequence a process has handled. The zero value is ready to use.
type Counters struct {
	SequencesValidated  atomic.Uint64
	SequencesCompleted  atomic.Uint64
	SequencesForfeited  atomic.Uint64
	SequencesDrawn      atomic.Uint64
	RewardsIssued       atomic.Uint64
	TimeoutsFired       atomic.Uint64
	FraudByClass        fraudCounters
}

// fraudCounters breaks Forfeited outcomes down by the sequence.ErrorKind
// that caused them, so an operator can tell a wave of illegal moves
// from a wave of commitment mismatches.
type fraudCounters struct {
	InvalidToken      atomic.Uint64
	InvalidCommitment atomic.Uint64
	InvalidSequence   atomic.Uint64
	InvalidMove       atomic.Uint64
	Timeout           atomic.Uint64
}

// RecordFraud increments the counter matching kind, identified by its
// sequence.ErrorKind string form so this package need not import
// internal/sequence.
func (c *Counters) RecordFraud(kind string) {
	switch kind {
	case "InvalidToken":
		c.FraudByClass.InvalidToken.Add(1)
	case "InvalidCommitment":
		c.FraudByClass.InvalidCommitment.Add(1)
	case "InvalidSequence":
		c.FraudByClass.InvalidSequence.Add(1)
	case "InvalidMove":
		c.FraudByClass.InvalidMove.Add(1)
	case "TimeoutViolation":
		c.FraudByClass.Timeout.Add(1)
		c.TimeoutsFired.Add(1)
	}
}

// Snapshot is a point-in-time, non-atomic read of Counters for logging
// or a status endpoint.
type Snapshot struct {
	SequencesValidated uint64
	SequencesCompleted uint64
	SequencesForfeited uint64
	SequencesDrawn     uint64
	RewardsIssued      uint64
	TimeoutsFired      uint64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		SequencesValidated: c.SequencesValidated.Load(),
		SequencesCompleted: c.SequencesCompleted.Load(),
		SequencesForfeited: c.SequencesForfeited.Load(),
		SequencesDrawn:     c.SequencesDrawn.Load(),
		RewardsIssued:      c.RewardsIssued.Load(),
		TimeoutsFired:      c.TimeoutsFired.Load(),
	}
}
