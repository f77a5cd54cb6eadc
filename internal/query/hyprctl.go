package query

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"codeberg.org/mutker/greenland/internal/errors"
)

const (
	hyprctlActiveWorkspace = "hyprctl activeworkspace -j"
	hyprctlCursorPos       = "hyprctl cursorpos"
)

// workspace is the subset of `hyprctl activeworkspace -j` the daemon reads.
type workspace struct {
	ID      *int `json:"id"`
	Windows *int `json:"windows"`
}

// HyprctlSource queries Hyprland directly and decodes its JSON output,
// so jq is not required.
type HyprctlSource struct {
	exec Executor
}

func NewHyprctlSource(exec Executor) *HyprctlSource {
	return &HyprctlSource{exec: exec}
}

func (s *HyprctlSource) activeWorkspace(ctx context.Context) (workspace, error) {
	errFactory := errors.New()

	out, err := s.exec.Execute(ctx, hyprctlActiveWorkspace)
	if err != nil {
		return workspace{}, err
	}

	var ws workspace
	if err := json.Unmarshal([]byte(out), &ws); err != nil {
		return workspace{}, errFactory.Wrap(ErrMalformed, err)
	}

	return ws, nil
}

func (s *HyprctlSource) ActiveWorkspace(ctx context.Context) (string, error) {
	errFactory := errors.New()

	ws, err := s.activeWorkspace(ctx)
	if err != nil {
		return "", errFactory.Wrap(ErrWorkspaceFailed, err)
	}
	if ws.ID == nil {
		return "", errFactory.Wrap(ErrWorkspaceFailed, errFactory.WithMessage(ErrMalformed, "missing id"))
	}

	return strconv.Itoa(*ws.ID), nil
}

func (s *HyprctlSource) WindowCount(ctx context.Context) (int, error) {
	errFactory := errors.New()

	ws, err := s.activeWorkspace(ctx)
	if err != nil {
		return 0, errFactory.Wrap(ErrWindowsFailed, err)
	}
	if ws.Windows == nil || *ws.Windows < 0 {
		return 0, errFactory.Wrap(ErrWindowsFailed, errFactory.WithMessage(ErrMalformed, "missing windows"))
	}

	return *ws.Windows, nil
}

// CursorPosition requires "x, y" output. hyprctl prints nothing useful
// without a reachable Hyprland instance, and a constant non-reading must not
// look like a still cursor.
func (s *HyprctlSource) CursorPosition(ctx context.Context) (string, error) {
	errFactory := errors.New()

	out, err := s.exec.Execute(ctx, hyprctlCursorPos)
	if err != nil {
		return "", errFactory.Wrap(ErrCursorFailed, err)
	}
	if !isCursorPos(out) {
		return "", errFactory.Wrap(ErrCursorFailed, errFactory.WithData(ErrMalformed, out))
	}

	return out, nil
}

func isCursorPos(out string) bool {
	x, y, ok := strings.Cut(out, ",")
	if !ok {
		return false
	}
	if _, err := strconv.Atoi(strings.TrimSpace(x)); err != nil {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(y))
	return err == nil
}
