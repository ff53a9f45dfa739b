// Package builtin wires Kirk's two reference games into a
// game.Registry (SPEC_FULL.md §C.4). It is the one package allowed to
// import every concrete game, so neither game implementation needs to
// know about the other or about the binaries that use them.
package builtin

import (
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/game/coinflip"
	"github.com/kirk-protocol/kirk/internal/game/rps"
	"github.com/kirk-protocol/kirk/internal/reward"
)

// RegisterAll registers CoinFlip and RockPaperScissors under feeBps's
// default reward policy.
func RegisterAll(reg *game.Registry, feeBps uint32) {
	policy := reward.DefaultPolicy(feeBps)
	reg.Register(coinflip.CoinFlip{}, policy)
	reg.Register(rps.RockPaperScissors{}, policy)
}
