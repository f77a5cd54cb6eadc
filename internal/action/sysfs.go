package action

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/governor"
)

const DefaultGovernorGlob = "/sys/devices/system/cpu/cpu*/cpufreq/scaling_governor"

// SysfsGovernor writes the preset straight into every policy's
// scaling_governor file. Files already holding the preset are left alone.
type SysfsGovernor struct {
	glob string
}

func NewSysfsGovernor(glob string) *SysfsGovernor {
	if glob == "" {
		glob = DefaultGovernorGlob
	}
	return &SysfsGovernor{glob: glob}
}

func (g *SysfsGovernor) SetGovernor(ctx context.Context, preset governor.Preset) error {
	errFactory := errors.New()

	paths, err := filepath.Glob(g.glob)
	if err != nil {
		return errFactory.Wrap(errors.ErrInvalidArgument, err)
	}
	if len(paths) == 0 {
		return errFactory.WithData(errors.ErrUnavailable, g.glob)
	}

	want := []byte(preset.String())
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return errFactory.Wrap(errors.ErrTimeout, err)
		}

		current, err := os.ReadFile(path)
		if err == nil && bytes.Equal(bytes.TrimSpace(current), want) {
			continue
		}

		if err := os.WriteFile(path, want, 0o644); err != nil {
			return errFactory.Wrap(errors.ErrOperationFailed, err)
		}
	}

	return nil
}
