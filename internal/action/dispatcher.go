package action

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/governor"
	"codeberg.org/mutker/greenland/internal/logger"
)

// Dispatcher fires actions on their own goroutines so the policy loop never
// blocks on them. Failures are logged, never retried and never returned.
// Governor applies run one at a time and collapse to the latest preset, so a
// slow apply can never land after a newer one.
type Dispatcher struct {
	ctx       context.Context
	timeout   time.Duration
	logger    logger.Logger
	governor  GovernorSetter
	notifier  Notifier
	suspender Suspender
	wg        sync.WaitGroup

	presetMu      sync.Mutex
	pendingPreset *governor.Preset
	applying      bool
}

// NewDispatcher wires the three action backends. ctx bounds every action
// in addition to the per-action timeout.
func NewDispatcher(
	ctx context.Context, timeout time.Duration, log logger.Logger,
	gov GovernorSetter, notifier Notifier, suspender Suspender,
) *Dispatcher {
	return &Dispatcher{
		ctx:       ctx,
		timeout:   timeout,
		logger:    log,
		governor:  gov,
		notifier:  notifier,
		suspender: suspender,
	}
}

// ApplyPreset implements governor.Applier. A preset requested while another
// is being applied replaces any still waiting.
func (d *Dispatcher) ApplyPreset(preset governor.Preset) {
	d.presetMu.Lock()
	defer d.presetMu.Unlock()

	d.pendingPreset = &preset
	if d.applying {
		return
	}
	d.applying = true
	d.wg.Add(1)
	go d.applyPresets()
}

func (d *Dispatcher) applyPresets() {
	defer d.wg.Done()

	for {
		d.presetMu.Lock()
		if d.pendingPreset == nil {
			d.applying = false
			d.presetMu.Unlock()
			return
		}
		preset := *d.pendingPreset
		d.pendingPreset = nil
		d.presetMu.Unlock()

		d.run("governor", ErrGovernorFailed, func(ctx context.Context) error {
			return d.governor.SetGovernor(ctx, preset)
		})
	}
}

// Warn sends the hibernation warning.
func (d *Dispatcher) Warn(message string) {
	d.logger.Info().Str("message", message).Msg("Sending hibernation warning")
	d.fire("notify", ErrNotifyFailed, func(ctx context.Context) error {
		return d.notifier.Notify(ctx, message)
	})
}

// Suspend requests sleep.
func (d *Dispatcher) Suspend() {
	d.logger.Info().Msg("Suspending")
	d.fire("suspend", ErrSuspendFailed, func(ctx context.Context) error {
		return d.suspender.Suspend(ctx)
	})
}

// Wait blocks until every fired action has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) fire(name string, code errors.ErrorCode, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(name, code, fn)
	}()
}

// run executes fn under the action timeout and logs its failure.
func (d *Dispatcher) run(name string, code errors.ErrorCode, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		d.logger.ErrorWithCode(errors.New().Wrap(code, err)).
			Str("action", name).
			Msg("Action failed")
	}
}
