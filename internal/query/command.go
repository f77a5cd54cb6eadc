package query

import (
	"context"
	"strconv"
	"strings"

	"codeberg.org/mutker/greenland/internal/errors"
)

// Expressions are the shell pipelines a CommandSource runs.
type Expressions struct {
	Workspace string
	Windows   string
	Cursor    string
}

// CommandSource answers every query with a user supplied shell expression.
type CommandSource struct {
	exec  Executor
	exprs Expressions
}

func NewCommandSource(exec Executor, exprs Expressions) *CommandSource {
	return &CommandSource{
		exec:  exec,
		exprs: exprs,
	}
}

func (s *CommandSource) ActiveWorkspace(ctx context.Context) (string, error) {
	errFactory := errors.New()

	out, err := s.exec.Execute(ctx, s.exprs.Workspace)
	if err != nil {
		return "", errFactory.Wrap(ErrWorkspaceFailed, err)
	}

	id := strings.TrimSpace(out)
	if id == "" || id == "null" {
		return "", errFactory.Wrap(ErrWorkspaceFailed, errFactory.WithData(ErrMalformed, out))
	}

	return id, nil
}

func (s *CommandSource) WindowCount(ctx context.Context) (int, error) {
	errFactory := errors.New()

	out, err := s.exec.Execute(ctx, s.exprs.Windows)
	if err != nil {
		return 0, errFactory.Wrap(ErrWindowsFailed, err)
	}

	count, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil || count < 0 {
		return 0, errFactory.Wrap(ErrWindowsFailed, errFactory.WithData(ErrMalformed, out))
	}

	return count, nil
}

func (s *CommandSource) CursorPosition(ctx context.Context) (string, error) {
	out, err := s.exec.Execute(ctx, s.exprs.Cursor)
	if err != nil {
		return "", errors.New().Wrap(ErrCursorFailed, err)
	}

	return out, nil
}
