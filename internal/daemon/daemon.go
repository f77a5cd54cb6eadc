// Package daemon runs the polling loop: the workspace governor check, then
// the idle/hibernation check, once per interval until the context ends.
package daemon

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/governor"
	"codeberg.org/mutker/greenland/internal/logger"
	"codeberg.org/mutker/greenland/internal/metrics"
	"codeberg.org/mutker/greenland/internal/query"
	"codeberg.org/mutker/greenland/internal/session"
)

// Actions fires the idle side effects. Both calls must return promptly.
type Actions interface {
	Warn(message string)
	Suspend()
}

type Config struct {
	Interval time.Duration
	// Strict ends Run on the first failed query.
	Strict bool
	Policy session.Policy
}

type Daemon struct {
	cfg      Config
	source   query.Source
	selector *governor.Selector
	machine  *session.Machine
	actions  Actions
	metrics  metrics.Collector
	logger   logger.Logger
	started  atomic.Bool
}

func New(
	cfg Config,
	source query.Source,
	selector *governor.Selector,
	actions Actions,
	collector metrics.Collector,
	log logger.Logger,
) *Daemon {
	return &Daemon{
		cfg:      cfg,
		source:   source,
		selector: selector,
		machine:  session.NewMachine(cfg.Policy),
		actions:  actions,
		metrics:  collector,
		logger:   log,
	}
}

// WarningMessage is the notification text for the given thresholds. Gaps
// under a minute are announced in seconds.
func WarningMessage(t session.Thresholds) string {
	lead := t.Hibernate - t.Warning
	if lead < 60 {
		return fmt.Sprintf("Putting PC into hibernation in %d seconds, move your cursor to prevent it!", lead)
	}
	return fmt.Sprintf("Putting PC into hibernation in %d minutes, move your cursor to prevent it!", lead/60)
}

// Run ticks until ctx is done. It returns nil on cancellation and a coded
// error when a strict daemon hits a failed query. A Daemon runs once.
func (d *Daemon) Run(ctx context.Context) error {
	errFactory := errors.New()

	if !d.started.CompareAndSwap(false, true) {
		return errFactory.New(errors.ErrAlreadyStarted)
	}

	d.logger.Info().
		Dur("interval", d.cfg.Interval).
		Bool("strict", d.cfg.Strict).
		Msg("Daemon started")

	for {
		if ctx.Err() != nil {
			d.logger.Info().Msg("Daemon stopped")
			return nil
		}

		if err := d.tick(ctx); err != nil {
			if ctx.Err() != nil {
				d.logger.Info().Msg("Daemon stopped")
				return nil
			}
			return errFactory.Wrap(errors.ErrMainLoop, err)
		}

		select {
		case <-ctx.Done():
		case <-time.After(d.cfg.Interval):
		}
	}
}

// State exposes the session state for diagnostics.
func (d *Daemon) State() session.State {
	return d.machine.State()
}

func (d *Daemon) tick(ctx context.Context) error {
	snapshot := &metrics.Snapshot{
		Timestamp: time.Now(),
		Workspace: metrics.WorkspaceMetrics{Windows: -1},
	}

	result, err := d.selector.Check(ctx)
	if err != nil {
		return err
	}
	snapshot.Workspace.ID = result.Workspace
	snapshot.Workspace.Preset = result.Preset.String()
	if result.Err != nil {
		snapshot.QueryFailures++
	}

	if err := d.checkIdle(ctx, snapshot); err != nil {
		return err
	}

	if err := d.metrics.Record(ctx, snapshot); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to record tick")
	}

	return nil
}

func (d *Daemon) checkIdle(ctx context.Context, snapshot *metrics.Snapshot) error {
	cursor, err := d.source.CursorPosition(ctx)
	if err != nil {
		if d.cfg.Strict {
			return err
		}
		d.warnQuery(err, "Cursor query failed, counting tick as activity")
		d.machine.MarkActive()
		snapshot.QueryFailures++
		snapshot.Idle = metrics.IdleMetrics{
			Seconds: d.machine.State().IdleSeconds,
			Moved:   true,
			Outcome: session.Moved.String(),
		}
		return nil
	}

	var windowsErr error
	step := d.machine.Step(cursor, func() session.Thresholds {
		count, err := d.source.WindowCount(ctx)
		if err != nil {
			windowsErr = err
			return d.cfg.Policy.For(true)
		}
		snapshot.Workspace.Windows = count
		return d.cfg.Policy.For(count > 0)
	})

	if windowsErr != nil {
		if d.cfg.Strict {
			return windowsErr
		}
		d.warnQuery(windowsErr, "Window count query failed, assuming windows are open")
		snapshot.QueryFailures++
	}

	snapshot.Idle = metrics.IdleMetrics{
		Seconds: step.IdleSeconds,
		Moved:   step.Outcome == session.Moved,
		Outcome: step.Outcome.String(),
	}

	switch step.Outcome {
	case session.Warn:
		message := WarningMessage(step.Thresholds)
		d.logger.Info().
			Uint32("idle_seconds", step.IdleSeconds).
			Uint32("hibernate_at", step.Thresholds.Hibernate).
			Msg("Idle warning threshold reached")
		d.actions.Warn(message)
	case session.Hibernate:
		d.logger.Info().
			Uint32("hibernate_at", step.Thresholds.Hibernate).
			Msg("Idle hibernate threshold reached, suspending")
		d.actions.Suspend()
	case session.Moved:
		d.logger.Debug().Str("cursor", cursor).Msg("Cursor moved")
	}

	return nil
}

func (d *Daemon) warnQuery(err error, msg string) {
	if appErr, ok := err.(errors.Error); ok {
		d.logger.WarnWithCode(appErr).Msg(msg)
		return
	}
	d.logger.Warn().Err(err).Msg(msg)
}
