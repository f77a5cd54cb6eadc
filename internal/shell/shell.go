// Package shell runs query and action expressions through sh -c.
package shell

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/mutker/greenland/internal/errors"
)

const (
	ErrNoResult      = errors.ErrorCode("shell_no_result")
	ErrCommandFailed = errors.ErrorCode("shell_command_failed")
	ErrTimeout       = errors.ErrorCode("shell_timeout")
)

const waitDelay = 500 * time.Millisecond

// Executor runs expressions with a per-call timeout.
type Executor struct {
	shell   string
	timeout time.Duration
}

// New returns an Executor that kills any expression running longer than timeout.
// A zero timeout means no limit besides the caller's context.
func New(timeout time.Duration) *Executor {
	return &Executor{
		shell:   "sh",
		timeout: timeout,
	}
}

// Execute runs expr and returns its standard output with exactly one
// trailing newline removed. Standard error and the exit status are ignored
// as long as the output decodes as UTF-8.
func (e *Executor) Execute(ctx context.Context, expr string) (string, error) {
	errFactory := errors.New()

	if expr == "" {
		return "", errFactory.WithMessage(ErrNoResult, "empty expression")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var stdout bytes.Buffer
	cmd := e.command(ctx, expr)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errFactory.Wrap(ErrTimeout, ctx.Err()).WithData(expr)
		}
		// Only a missing shell is fatal here; a failing pipeline still
		// yields whatever it printed.
		if _, ok := err.(*exec.ExitError); !ok {
			return "", errFactory.Wrap(ErrCommandFailed, err)
		}
	}

	out := stdout.Bytes()
	if !utf8.Valid(out) {
		return "", errFactory.WithMessage(ErrNoResult, "output is not valid UTF-8")
	}

	return strings.TrimSuffix(string(out), "\n"), nil
}

// Run fires expr and discards its output. A non-zero exit is reported so
// callers can log it.
func (e *Executor) Run(ctx context.Context, expr string) error {
	errFactory := errors.New()

	if expr == "" {
		return errFactory.WithMessage(ErrCommandFailed, "empty expression")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var stderr bytes.Buffer
	cmd := e.command(ctx, expr)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errFactory.Wrap(ErrTimeout, ctx.Err())
		}
		return errFactory.Wrap(ErrCommandFailed, err).WithData(struct {
			Command string
			Stderr  string
		}{
			Command: expr,
			Stderr:  strings.TrimSpace(stderr.String()),
		})
	}

	return nil
}

// command builds the sh -c invocation. Background children of expr may
// keep the output pipe open after sh is killed, so Wait gives up after waitDelay.
func (e *Executor) command(ctx context.Context, expr string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, e.shell, "-c", expr)
	cmd.WaitDelay = waitDelay
	return cmd
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
