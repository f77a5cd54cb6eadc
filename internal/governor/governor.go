// Package governor keeps the CPU frequency-scaling governor aligned with
// the role of the active workspace.
package governor

import (
	"context"

	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/logger"
)

// Preset is a cpufreq governor name.
type Preset string

const (
	Performance Preset = "performance"
	Powersave   Preset = "powersave"
)

func (p Preset) String() string {
	return string(p)
}

const ErrWorkspaceUnknown = errors.ErrorCode("governor_workspace_unknown")

// Policy maps workspace identifiers onto presets.
type Policy struct {
	performance map[string]struct{}
}

// NewPolicy returns a Policy selecting Performance for the given workspaces
// and Powersave for everything else.
func NewPolicy(performanceWorkspaces []string) Policy {
	set := make(map[string]struct{}, len(performanceWorkspaces))
	for _, id := range performanceWorkspaces {
		set[id] = struct{}{}
	}
	return Policy{performance: set}
}

// PresetFor is a pure function of the workspace identifier.
func (p Policy) PresetFor(workspaceID string) Preset {
	if _, ok := p.performance[workspaceID]; ok {
		return Performance
	}
	return Powersave
}

// WorkspaceSource returns the active workspace identifier.
type WorkspaceSource interface {
	ActiveWorkspace(ctx context.Context) (string, error)
}

// Applier sets the system-wide governor. Implementations must be cheap and
// idempotent; the selector reapplies the preset every tick.
type Applier interface {
	ApplyPreset(preset Preset)
}

// Result describes one workspace check.
type Result struct {
	Workspace string
	Preset    Preset
	Err       error
}

// Selector runs the workspace check.
type Selector struct {
	source  WorkspaceSource
	applier Applier
	policy  Policy
	strict  bool
	logger  logger.Logger
}

func NewSelector(source WorkspaceSource, applier Applier, policy Policy, strict bool, log logger.Logger) *Selector {
	return &Selector{
		source:  source,
		applier: applier,
		policy:  policy,
		strict:  strict,
		logger:  log,
	}
}

// Check queries the workspace and applies its preset unconditionally. When
// the query fails, strict selectors return the error without applying
// anything; otherwise Powersave is applied and the failure is reported in
// the Result.
func (s *Selector) Check(ctx context.Context) (Result, error) {
	id, err := s.source.ActiveWorkspace(ctx)
	if err != nil {
		if s.strict {
			return Result{Err: err}, errors.New().Wrap(ErrWorkspaceUnknown, err)
		}

		if appErr, ok := err.(errors.Error); ok {
			s.logger.WarnWithCode(appErr).Msg("Workspace query failed, falling back to powersave")
		} else {
			s.logger.Warn().Err(err).Msg("Workspace query failed, falling back to powersave")
		}

		s.applier.ApplyPreset(Powersave)
		return Result{Preset: Powersave, Err: err}, nil
	}

	preset := s.policy.PresetFor(id)
	s.applier.ApplyPreset(preset)

	s.logger.Debug().
		Str("workspace", id).
		Str("preset", preset.String()).
		Msg("Applied governor")

	return Result{Workspace: id, Preset: preset}, nil
}
