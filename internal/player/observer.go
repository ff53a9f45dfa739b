package player

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kirk-protocol/kirk/internal/config"
	"github.com/kirk-protocol/kirk/internal/fraud"
	"github.com/kirk-protocol/kirk/internal/game"
	"github.com/kirk-protocol/kirk/internal/kirkerr"
	"github.com/kirk-protocol/kirk/internal/metrics"
	"github.com/kirk-protocol/kirk/internal/transport"
	"github.com/kirk-protocol/kirk/internal/validator"
)

// Observer is a read-only, non-player vantage onto a sequence (the
// original's ValidationClient, SPEC_FULL.md §C.3): it fetches a
// sequence's event chain by root and reports the validator's result,
// without any signing key of its own.
type Observer struct {
	log       zerolog.Logger
	transport transport.Transport
	validator *validator.Validator
}

// NewObserver constructs an Observer.
func NewObserver(log zerolog.Logger, cfg config.Config, tr transport.Transport, games *game.Registry) *Observer {
	return &Observer{log: log, transport: tr, validator: validator.New(log, cfg, games)}
}

// WithMetrics attaches a counters sink to the Observer's validator.
func (o *Observer) WithMetrics(m *metrics.Counters) *Observer {
	o.validator.WithMetrics(m)
	return o
}

// WithLedger attaches the mint-backed fraud ledger to the Observer's
// validator (spec.md §4.6 "Invalid token", "Replay").
func (o *Observer) WithLedger(l *fraud.Ledger) *Observer {
	o.validator.WithLedger(l)
	return o
}

// Inspect fetches every event rooted at root via the transport and
// returns the validator's result as of now.
func (o *Observer) Inspect(ctx context.Context, root string, now int64) (validator.Result, error) {
	events, err := o.transport.Fetch(ctx, transport.Filter{Root: root}, time.Unix(now, 0))
	if err != nil {
		return validator.Result{}, kirkerr.Wrap(kirkerr.TransportFailure, root, err, "observer: fetch")
	}
	return o.validator.Validate(ctx, events, now), nil
}
