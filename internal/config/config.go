// Package config loads Kirk's tunable engine parameters: clock-skew
// tolerance, per-phase timeout defaults, and the mint fee applied by
// the default reward policy (spec.md §4.5, §4.8, §A.3). It follows the
// teacher's (tolelom-tolchain/config) plain JSON-config shape, bound
// additionally to github.com/spf13/viper so the CLI binaries can layer
// flags, env vars, and a config file the way apps/cosmos does.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the engine-wide defaults every sequence falls back to
// when a game's Challenge.game_parameters doesn't override them.
type Config struct {
	// ClockSkewToleranceSecs bounds how far an event's created_at may
	// exceed the observer's wall clock before InvalidSequence rejects
	// it (spec.md §4.5).
	ClockSkewToleranceSecs uint64 `json:"clock_skew_tolerance_secs" mapstructure:"clock_skew_tolerance_secs"`

	// CommitRevealDeadlineSecs is the default commit→reveal gap before
	// TimeoutViolation(phase="commit_reveal") fires.
	CommitRevealDeadlineSecs uint64 `json:"commit_reveal_deadline_secs" mapstructure:"commit_reveal_deadline_secs"`

	// MoveInactivityDeadlineSecs is the default gap between a player's
	// last act and the next expected one before
	// TimeoutViolation(phase="move") fires.
	MoveInactivityDeadlineSecs uint64 `json:"move_inactivity_deadline_secs" mapstructure:"move_inactivity_deadline_secs"`

	// AcceptDeadlineGraceSecs is loaded from file and flags (default 0)
	// but is not read by the sequence machine or the TimeoutManager:
	// both dissolve a Challenge on Challenge.expiry itself, with no
	// grace period.
	AcceptDeadlineGraceSecs uint64 `json:"accept_deadline_grace_secs" mapstructure:"accept_deadline_grace_secs"`

	// FeeBps is the mint fee, in basis points, subtracted by
	// reward.DefaultPolicy (spec.md §4.8 "minus mint fee").
	FeeBps uint32 `json:"fee_bps" mapstructure:"fee_bps"`
}

// Default returns spec.md's stated defaults: 300s clock skew, 120s
// dealer/commit-reveal timeout idiom carried over from the teacher's
// defaultDealerTimeoutSecs, 60s move inactivity (the teacher's
// defaultActionTimeoutSecs doubled for a two-party, non-chain setting),
// no accept grace, and no fee.
func Default() Config {
	return Config{
		ClockSkewToleranceSecs:     300,
		CommitRevealDeadlineSecs:   120,
		MoveInactivityDeadlineSecs: 60,
		AcceptDeadlineGraceSecs:    0,
		FeeBps:                     0,
	}
}

// Load reads configuration from path (YAML or JSON, by extension) via
// viper, overlaying spec.md's defaults for anything unset.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %q: %w", path, err)
	}
	return cfg, nil
}

// BindFlags lets a cobra command's flags override file/env config,
// mirroring apps/cosmos's viper+cobra pairing.
func BindFlags(v *viper.Viper) Config {
	cfg := Default()
	if v == nil {
		return cfg
	}
	if v.IsSet("clock_skew_tolerance_secs") {
		cfg.ClockSkewToleranceSecs = v.GetUint64("clock_skew_tolerance_secs")
	}
	if v.IsSet("commit_reveal_deadline_secs") {
		cfg.CommitRevealDeadlineSecs = v.GetUint64("commit_reveal_deadline_secs")
	}
	if v.IsSet("move_inactivity_deadline_secs") {
		cfg.MoveInactivityDeadlineSecs = v.GetUint64("move_inactivity_deadline_secs")
	}
	if v.IsSet("accept_deadline_grace_secs") {
		cfg.AcceptDeadlineGraceSecs = v.GetUint64("accept_deadline_grace_secs")
	}
	if v.IsSet("fee_bps") {
		cfg.FeeBps = uint32(v.GetUint("fee_bps"))
	}
	return cfg
}
