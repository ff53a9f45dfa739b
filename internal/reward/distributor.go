package reward

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/kirkerr"
	"github.com/kirk-protocol/kirk/internal/metrics"
	"github.com/kirk-protocol/kirk/internal/mint"
	"github.com/kirk-protocol/kirk/internal/sequence"
	"github.com/kirk-protocol/kirk/internal/token"
	"github.com/kirk-protocol/kirk/internal/transport"
)

// Distributor implements the reward distributor (C8, spec.md §4.8): it
// melts a completed sequence's burn set, asks the mint for a fresh
// P2PK-locked payout, and publishes the Reward event.
type Distributor struct {
	log       zerolog.Logger
	mint      mint.Mint
	transport transport.Transport
	mintSK    string // signs the 9263 Reward event (spec.md §4.8 step 4)
	fallback  Policy
	metrics   *metrics.Counters
}

// New constructs a Distributor. fallback is used for any game whose
// registry Entry carries no Policy (SPEC_FULL.md §D "reward.Policy is
// a separate policy object").
func New(log zerolog.Logger, m mint.Mint, tr transport.Transport, mintSK string, fallback Policy) *Distributor {
	return &Distributor{log: log, mint: m, transport: tr, mintSK: mintSK, fallback: fallback}
}

// WithMetrics attaches a counters sink every subsequent Distribute call
// increments on successful issuance. Passing nil (the default) disables
// recording.
func (d *Distributor) WithMetrics(m *metrics.Counters) *Distributor {
	d.metrics = m
	return d
}

// BurnSet enumerates every Game token revealed in a 9261 Move by either
// player (spec.md §4.8 step 1).
func BurnSet(seq sequence.GameSequence) ([]token.Token, error) {
	var out []token.Token
	for _, ev := range seq.Events {
		if event.Kind(ev.Kind) != event.KindMove {
			continue
		}
		mv, err := event.ParseMove(ev)
		if err != nil {
			return nil, err
		}
		toks, err := event.FromWireTokens(mv.RevealedTokens)
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
	}
	return out, nil
}

// Distribute runs spec.md §4.8's four steps for a sequence that has
// reached Complete or Forfeited. It is a no-op (ok=false) if the
// sequence has no winner (a draw or a dissolved challenge) or if
// WouldIssueFor already reports a prior issuance for this root.
func (d *Distributor) Distribute(ctx context.Context, seq sequence.GameSequence, policy Policy) (ok bool, err error) {
	if !seq.State.Terminal() {
		return false, kirkerr.New(kirkerr.InternalError, seq.Root, "reward: sequence is not terminal")
	}
	if seq.Verdict.Winner == "" || seq.Verdict.Dissolved {
		d.log.Debug().Str("root", seq.Root).Msg("no winner to reward: draw or dissolved challenge")
		return false, nil
	}
	already, err := d.mint.WouldIssueFor(ctx, seq.Root)
	if err != nil {
		return false, kirkerr.Wrap(kirkerr.MintFailure, seq.Root, err, "reward: would_issue_for")
	}
	if already {
		d.log.Debug().Str("root", seq.Root).Msg("reward already issued for this root")
		return false, nil
	}

	burn, err := BurnSet(seq)
	if err != nil {
		return false, kirkerr.Wrap(kirkerr.CodecError, seq.Root, err, "reward: enumerate burn set")
	}
	for _, t := range burn {
		if _, err := d.mint.Melt(ctx, []token.Token{t}); err != nil {
			return false, d.publishFailure(ctx, seq.Root, "burned token not spendable", "")
		}
	}

	if policy == nil {
		policy = d.fallback
	}
	burnProofs := burnProofs(burn)
	amount, err := policy(burnProofs)
	if err != nil {
		return false, kirkerr.Wrap(kirkerr.InternalError, seq.Root, err, "reward: compute policy")
	}

	var rewardTokens []token.Token
	if amount > 0 {
		rewardTokens, err = d.mint.MintP2PKTokens(ctx, amount, seq.Verdict.Winner)
		if err != nil {
			return false, d.publishFailure(ctx, seq.Root, "mint rejected reward issuance", "")
		}
	}

	rewardEv, err := event.Build(event.KindReward, event.RewardContent{
		GameSequenceRoot: seq.Root,
		WinnerPubkey:     seq.Verdict.Winner,
		RewardTokens:     event.ToWireTokens(rewardTokens),
	}, d.mintSK)
	if err != nil {
		return false, kirkerr.Wrap(kirkerr.CodecError, seq.Root, err, "reward: build reward event")
	}
	if err := d.transport.Publish(ctx, rewardEv); err != nil {
		return false, kirkerr.Wrap(kirkerr.TransportFailure, seq.Root, err, "reward: publish")
	}
	if err := d.mint.MarkIssued(ctx, seq.Root); err != nil {
		return false, kirkerr.Wrap(kirkerr.MintFailure, seq.Root, err, "reward: mark_issued")
	}

	d.log.Info().Str("root", seq.Root).Str("winner", seq.Verdict.Winner).Uint64("amount", amount).Msg("reward distributed")
	if d.metrics != nil {
		d.metrics.RewardsIssued.Add(1)
	}
	return true, nil
}

func (d *Distributor) publishFailure(ctx context.Context, root, reason, offendingEventID string) error {
	content := event.ValidationFailureContent{GameSequenceRoot: root, Reason: reason}
	if offendingEventID != "" {
		content.OffendingEventID = &offendingEventID
	}
	ev, err := event.Build(event.KindReward, content, d.mintSK)
	if err != nil {
		return kirkerr.Wrap(kirkerr.CodecError, root, err, "reward: build validation_failure event")
	}
	if err := d.transport.Publish(ctx, ev); err != nil {
		return kirkerr.Wrap(kirkerr.TransportFailure, root, err, "reward: publish validation_failure")
	}
	return kirkerr.New(kirkerr.MintFailure, root, reason)
}

func burnProofs(toks []token.Token) []token.Proof {
	var out []token.Proof
	for _, t := range toks {
		out = append(out, t.Proofs...)
	}
	return out
}
