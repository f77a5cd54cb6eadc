package action

import (
	"context"

	"codeberg.org/mutker/greenland/internal/governor"
)

// GovernorSetter applies a cpufreq governor system-wide.
type GovernorSetter interface {
	SetGovernor(ctx context.Context, preset governor.Preset) error
}

// Notifier shows a critical desktop notification.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Suspender asks the OS to enter sleep.
type Suspender interface {
	Suspend(ctx context.Context) error
}

// Runner fires a shell expression without capturing output.
type Runner interface {
	Run(ctx context.Context, expr string) error
}
