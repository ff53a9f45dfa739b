// Command kirk-play runs one complete game between two in-process
// players over an in-memory transport and mint, end to end: challenge,
// accept, moves, finalization, validation, and reward distribution. It
// exists to exercise the engine the way a real two-party match would,
// without a relay or a cashu mint standing behind it (spec.md §1, §6).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kirk-protocol/kirk/internal/builtin"
	"github.com/kirk-protocol/kirk/internal/commitment"
	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/event"
	"github.com/kirk-protocol/kirk/internal/fraud"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/game/coinflip"
	"github.com/kirk-protocol/kirk/internal/game/rps"
	"github.com/kirk-protocol/kirk/internal/kirklog"
	"github.com/kirk-protocol/kirk/internal/metrics"
	"github.com/kirk-protocol/kirk/internal/mint"
	"github.com/kirk-protocol/kirk/internal/player"
	"github.com/kirk-protocol/kirk/internal/reward"
	"github.com/kirk-protocol/kirk/internal/token"
	"github.com/kirk-protocol/kirk/internal/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var gameType string
	var amount uint64
	var feeBps uint32
	var logLevel string

	cmd := &cobra.Command{
		Use:   "kirk-play",
		Short: "Play one CoinFlip or RockPaperScissors match to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("kirk-play: parse --log-level: %w", err)
			}
			log := kirklog.New(level)
			cfg := config.BindFlags(v)

			return playMatch(log, cfg, gameType, amount)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&gameType, "game", coinflip.GameType, "game_type to play: coinflip or rock_paper_scissors")
	flags.Uint64Var(&amount, "amount", 10, "amount each player stakes")
	flags.Uint32Var(&feeBps, "fee-bps", 0, "mint fee in basis points for the default reward policy")
	flags.StringVar(&logLevel, "log-level", "info", "zerolog level (debug, info, warn, error)")
	_ = v.BindPFlag("fee_bps", flags.Lookup("fee-bps"))

	return cmd
}

func playMatch(log zerolog.Logger, cfg config.Config, gameType string, amount uint64) error {
	ctx := context.Background()

	games := game.NewRegistry()
	builtin.RegisterAll(games, cfg.FeeBps)
	if _, ok := games.Lookup(gameType); !ok {
		return fmt.Errorf("kirk-play: unknown --game %q (want %q or %q)", gameType, coinflip.GameType, rps.GameType)
	}

	tr := transport.NewMemory()
	m := mint.NewMemory()
	mintSK := nostr.GeneratePrivateKey()

	skA, skB := nostr.GeneratePrivateKey(), nostr.GeneratePrivateKey()
	challenger := player.New(log, skA, tr, games)
	accepter := player.New(log, skB, tr, games)

	tokA, err := m.MintGameTokens(ctx, amount)
	if err != nil {
		return fmt.Errorf("kirk-play: mint challenger tokens: %w", err)
	}
	tokB, err := m.MintGameTokens(ctx, amount)
	if err != nil {
		return fmt.Errorf("kirk-play: mint accepter tokens: %w", err)
	}

	challengeID, err := challenger.CreateChallenge(ctx, gameType, tokA, commitment.MethodSingle, nil)
	if err != nil {
		return fmt.Errorf("kirk-play: create_challenge: %w", err)
	}
	log.Info().Str("challenge_id", challengeID).Msg("published challenge")

	acceptID, err := accepter.AcceptChallenge(ctx, challengeID, gameType, tokB, commitment.MethodSingle)
	if err != nil {
		return fmt.Errorf("kirk-play: accept_challenge: %w", err)
	}
	log.Info().Str("accept_id", acceptID).Msg("published challenge_accept")

	switch gameType {
	case rps.GameType:
		err = playRPS(ctx, log, challenger, accepter, challengeID, acceptID, tokA[0], tokB[0])
	default:
		err = playCoinFlip(ctx, log, challenger, accepter, challengeID, acceptID, tokA[0], tokB[0])
	}
	if err != nil {
		return err
	}

	counters := &metrics.Counters{}
	now := time.Now().Unix()
	ledger := fraud.NewLedger(m)
	obs := player.NewObserver(log, cfg, tr, games).WithMetrics(counters).WithLedger(ledger)
	result, err := obs.Inspect(ctx, challengeID, now)
	if err != nil {
		return fmt.Errorf("kirk-play: inspect: %w", err)
	}
	log.Info().
		Str("state", result.Sequence.State.String()).
		Str("winner", result.Sequence.Verdict.Winner).
		Bool("draw", result.Sequence.Verdict.Draw).
		Msg("validator result")
	for _, verr := range result.Errors {
		log.Warn().Str("event_id", verr.EventID).Str("kind", string(verr.Kind)).Msg(verr.Message)
	}

	entry, _ := games.Lookup(gameType)
	distributor := reward.New(log, m, tr, mintSK, reward.DefaultPolicy(cfg.FeeBps)).WithMetrics(counters)
	issued, err := distributor.Distribute(ctx, result.Sequence, entry.Policy)
	if err != nil {
		return fmt.Errorf("kirk-play: distribute reward: %w", err)
	}
	log.Debug().Interface("counters", counters.Snapshot()).Msg("engine metrics")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"game_type":     gameType,
		"challenge_id":  challengeID,
		"state":         result.Sequence.State.String(),
		"winner":        result.Sequence.Verdict.Winner,
		"draw":          result.Sequence.Verdict.Draw,
		"reward_issued": issued,
	})
}

func playCoinFlip(ctx context.Context, log zerolog.Logger, challenger, accepter *player.Driver, challengeID, acceptID string, tokA, tokB token.Token) error {
	noMoveData := json.RawMessage(`{}`)
	moveA, err := challenger.MakeMove(ctx, acceptID, event.MoveTypeMove, noMoveData, []token.Token{tokA})
	if err != nil {
		return fmt.Errorf("kirk-play: challenger move: %w", err)
	}
	if _, err := accepter.MakeMove(ctx, moveA, event.MoveTypeMove, noMoveData, []token.Token{tokB}); err != nil {
		return fmt.Errorf("kirk-play: accepter move: %w", err)
	}
	finalState := json.RawMessage(`{}`)
	finalID, err := challenger.Finalize(ctx, challengeID, nil, finalState)
	if err != nil {
		return fmt.Errorf("kirk-play: finalize: %w", err)
	}
	log.Info().Str("final_id", finalID).Msg("published final")
	return nil
}

func playRPS(ctx context.Context, log zerolog.Logger, challenger, accepter *player.Driver, challengeID, acceptID string, tokA, tokB token.Token) error {
	noMoveData := json.RawMessage(`{}`)
	commitA, err := challenger.MakeMove(ctx, acceptID, event.MoveTypeCommit, noMoveData, nil)
	if err != nil {
		return fmt.Errorf("kirk-play: challenger commit: %w", err)
	}
	commitB, err := accepter.MakeMove(ctx, commitA, event.MoveTypeCommit, noMoveData, nil)
	if err != nil {
		return fmt.Errorf("kirk-play: accepter commit: %w", err)
	}
	revealA, err := challenger.MakeMove(ctx, commitB, event.MoveTypeReveal, noMoveData, []token.Token{tokA})
	if err != nil {
		return fmt.Errorf("kirk-play: challenger reveal: %w", err)
	}
	if _, err := accepter.MakeMove(ctx, revealA, event.MoveTypeReveal, noMoveData, []token.Token{tokB}); err != nil {
		return fmt.Errorf("kirk-play: accepter reveal: %w", err)
	}

	finalState := json.RawMessage(`{}`)
	finalA, err := challenger.Finalize(ctx, challengeID, nil, finalState)
	if err != nil {
		return fmt.Errorf("kirk-play: challenger finalize: %w", err)
	}
	finalB, err := accepter.Finalize(ctx, challengeID, nil, finalState)
	if err != nil {
		return fmt.Errorf("kirk-play: accepter finalize: %w", err)
	}
	log.Info().Str("final_a", finalA).Str("final_b", finalB).Msg("published finals")
	return nil
}
