// Command kirk-validate replays a sequence's event list through the
// validator (C7, spec.md §4.7) and reports the terminal state, verdict,
// and any rejected events as JSON.
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
	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/kirklog"
	"github.com/kirk-protocol/kirk/internal/metrics"
	"github.com/kirk-protocol/kirk/internal/validator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var eventsPath string
	var now int64
	var feeBps uint32
	var logLevel string

	cmd := &cobra.Command{
		Use:   "kirk-validate",
		Short: "Replay a game sequence's events and print the validator's verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("kirk-validate: parse --log-level: %w", err)
			}
			log := kirklog.New(level)

			events, err := readEvents(eventsPath)
			if err != nil {
				return err
			}
			if now == 0 {
				now = time.Now().Unix()
			}

			cfg := config.BindFlags(v)
			games := game.NewRegistry()
			builtin.RegisterAll(games, feeBps)

			counters := &metrics.Counters{}
			result := validator.New(log, cfg, games).WithMetrics(counters).Validate(context.Background(), events, now)
			log.Debug().Interface("counters", counters.Snapshot()).Msg("validator metrics")
			return printResult(result)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&eventsPath, "events", "", "path to a JSON array of wire events (default: stdin)")
	flags.Int64Var(&now, "now", 0, "unix time to validate as-of (default: current time)")
	flags.Uint32Var(&feeBps, "fee-bps", 0, "mint fee in basis points for the default reward policy")
	flags.StringVar(&logLevel, "log-level", "info", "zerolog level (debug, info, warn, error)")
	_ = v.BindPFlag("fee_bps", flags.Lookup("fee-bps"))

	return cmd
}

func readEvents(path string) ([]nostr.Event, error) {
	var r *os.File
	if path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("kirk-validate: open %q: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var events []nostr.Event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("kirk-validate: decode events: %w", err)
	}
	return events, nil
}

type validateOutput struct {
	Root     string                  `json:"root"`
	GameType string                  `json:"game_type"`
	State    string                  `json:"state"`
	Winner   string                  `json:"winner,omitempty"`
	Offender string                  `json:"offender,omitempty"`
	Draw     bool                    `json:"draw"`
	Errors   []validationErrorOutput `json:"errors,omitempty"`
}

type validationErrorOutput struct {
	EventID string `json:"event_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func printResult(result validator.Result) error {
	out := validateOutput{
		Root:     result.Sequence.Root,
		GameType: result.Sequence.GameType,
		State:    result.Sequence.State.String(),
		Winner:   result.Sequence.Verdict.Winner,
		Offender: result.Sequence.Verdict.Offender,
		Draw:     result.Sequence.Verdict.Draw,
	}
	for _, e := range result.Errors {
		out.Errors = append(out.Errors, validationErrorOutput{
			EventID: e.EventID,
			Kind:    string(e.Kind),
			Message: e.Message,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
