// Package pipeline wires one daily run: fetch, aggregate, render, deliver,
// record. The external scheduler guarantees at most one live invocation at a
// time; the pipeline assumes that rather than defending against overlap.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/obsops/fleetbrief/internal/delivery"
	"github.com/obsops/fleetbrief/internal/health"
	"github.com/obsops/fleetbrief/internal/history"
	"github.com/obsops/fleetbrief/internal/report"
	"github.com/obsops/fleetbrief/pkg/dynatrace"
)

// Fetcher is the slice of the API client the pipeline needs.
type Fetcher interface {
	Problems(ctx context.Context, window time.Duration) (*dynatrace.ProblemsResponse, error)
	Hosts(ctx context.Context) (*dynatrace.EntitiesResponse, error)
	ActiveGates(ctx context.Context) (*dynatrace.ActiveGatesResponse, error)
	SyntheticMonitors(ctx context.Context) (*dynatrace.SyntheticMonitorsResponse, error)
}

// Dispatcher delivers a rendered digest.
type Dispatcher interface {
	Dispatch(ctx context.Context, d delivery.Delivery) (delivery.Result, error)
}

// RunRecorder archives run outcomes. Optional; a nil recorder disables history.
type RunRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Config assembles a Pipeline from its collaborators.
type Config struct {
	Fetcher    Fetcher
	Dispatcher Dispatcher
	Renderer   *report.Renderer
	History    RunRecorder
	Recipient  string
	Window     time.Duration
	// DryRun renders the digest but skips delivery and history.
	DryRun bool
}

// Outcome is what one run produced.
type Outcome struct {
	RunID    string
	Report   health.Report
	Text     string
	Delivery delivery.Result
	DryRun   bool
}

type Pipeline struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, now: time.Now}
}

// Run executes one full pipeline pass. A non-nil error means the day's report
// was lost: either every fetch failed so nothing was renderable, or both
// delivery channels failed. Partial fetch failures degrade to unavailable
// categories and still deliver.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	startedAt := p.now()

	logger.Info().Msg("Daily report run started")

	sources := p.fetchAll(ctx)
	sources.Window = p.cfg.Window
	sources.Now = startedAt

	healthReport := health.Aggregate(sources)
	outcome := Outcome{RunID: runID, Report: healthReport, DryRun: p.cfg.DryRun}

	if !healthReport.Renderable() {
		err := fmt.Errorf("all endpoint fetches failed; nothing to report")
		logger.Error().Err(err).Msg("Run aborted")
		p.record(ctx, &logger, startedAt, healthReport, delivery.Result{}, err)
		return outcome, err
	}

	logger.Info().
		Int("score", healthReport.Score).
		Str("status", string(healthReport.Status)).
		Msg("Health report aggregated")

	text, err := p.cfg.Renderer.Render(healthReport)
	if err != nil {
		logger.Error().Err(err).Msg("Render failed")
		p.record(ctx, &logger, startedAt, healthReport, delivery.Result{}, err)
		return outcome, err
	}
	outcome.Text = text

	if p.cfg.DryRun {
		logger.Info().Msg("Dry run; skipping delivery")
		return outcome, nil
	}

	result, err := p.cfg.Dispatcher.Dispatch(ctx, delivery.Delivery{
		Recipient: p.cfg.Recipient,
		Body:      text,
		Timestamp: startedAt,
	})
	outcome.Delivery = result
	if err != nil {
		logger.Error().Err(err).Msg("All delivery channels failed")
		p.record(ctx, &logger, startedAt, healthReport, result, err)
		return outcome, err
	}

	p.record(ctx, &logger, startedAt, healthReport, result, nil)
	logger.Info().Str("channel", result.Channel).Bool("fallback", result.Fallback).Msg("Daily report run completed")
	return outcome, nil
}

// fetchAll issues the four endpoint fetches concurrently. Failures are
// collected per endpoint; one failing fetch never cancels the others, which
// is what lets a partial outage still produce a report.
func (p *Pipeline) fetchAll(ctx context.Context) health.Sources {
	var sources health.Sources
	var g errgroup.Group

	g.Go(func() error {
		sources.Problems, sources.ProblemsErr = p.cfg.Fetcher.Problems(ctx, p.cfg.Window)
		return nil
	})
	g.Go(func() error {
		sources.Hosts, sources.HostsErr = p.cfg.Fetcher.Hosts(ctx)
		return nil
	})
	g.Go(func() error {
		sources.Gateways, sources.GatewaysErr = p.cfg.Fetcher.ActiveGates(ctx)
		return nil
	})
	g.Go(func() error {
		sources.Synthetic, sources.SyntheticErr = p.cfg.Fetcher.SyntheticMonitors(ctx)
		return nil
	})

	_ = g.Wait()
	return sources
}

func (p *Pipeline) record(ctx context.Context, logger *zerolog.Logger, startedAt time.Time, healthReport health.Report, result delivery.Result, runErr error) {
	if p.cfg.History == nil {
		return
	}

	run := history.Run{
		StartedAt: startedAt,
		Score:     healthReport.Score,
		Status:    string(healthReport.Status),
		Channel:   result.Channel,
		Fallback:  result.Fallback,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	} else if result.Err != nil {
		run.Error = result.Err.Error()
	}

	// History is best effort; an archive failure never fails the run.
	if err := p.cfg.History.Record(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("Failed to record run history")
	}
}
