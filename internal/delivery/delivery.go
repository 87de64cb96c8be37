// Package delivery sends rendered digests to a recipient. Channels are
// implementations of a single capability; new messaging services plug in as
// alternative Channel implementations selected by configuration, not by
// branching inside the dispatcher.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/obsops/fleetbrief/internal/errors"
)

// Delivery is one rendered digest bound for a recipient.
type Delivery struct {
	Recipient string
	Body      string
	Timestamp time.Time
}

// Channel delivers a digest. Implementations report failure through the
// error; they never terminate the process.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, d Delivery) error
}

// Result records which channel ended up carrying the report.
type Result struct {
	Channel  string
	Fallback bool
	Err      error // primary-channel error when Fallback is true
}

// Dispatcher tries the primary channel once and falls back to the secondary.
// The primary is never retried within a run; a failed send today is
// recovered by the fallback file, not by hammering the messaging app.
type Dispatcher struct {
	primary  Channel
	fallback Channel
}

func NewDispatcher(primary, fallback Channel) *Dispatcher {
	return &Dispatcher{primary: primary, fallback: fallback}
}

// Dispatch delivers d, falling back on primary failure. The returned error is
// non-nil only when both channels failed; a fallback success is a successful
// delivery as far as the run outcome is concerned.
func (dsp *Dispatcher) Dispatch(ctx context.Context, d Delivery) (Result, error) {
	primaryErr := dsp.primary.Deliver(ctx, d)
	if primaryErr == nil {
		log.Info().Str("channel", dsp.primary.Name()).Msg("Report delivered")
		return Result{Channel: dsp.primary.Name()}, nil
	}

	log.Warn().
		Err(primaryErr).
		Str("channel", dsp.primary.Name()).
		Str("fallback", dsp.fallback.Name()).
		Msg("Primary delivery failed; falling back")

	if err := dsp.fallback.Deliver(ctx, d); err != nil {
		both := fmt.Errorf("primary (%s): %v; fallback (%s): %w",
			dsp.primary.Name(), primaryErr, dsp.fallback.Name(), err)
		return Result{Channel: dsp.fallback.Name(), Fallback: true, Err: primaryErr},
			pkgerrors.WrapDeliveryError("dispatch", dsp.fallback.Name(), both)
	}

	log.Info().Str("channel", dsp.fallback.Name()).Msg("Report persisted via fallback")
	return Result{Channel: dsp.fallback.Name(), Fallback: true, Err: primaryErr}, nil
}
