package query

import "context"

// Source reads the ambient session state the daemon polls every tick.
type Source interface {
	// ActiveWorkspace returns the identifier of the focused workspace
	ActiveWorkspace(ctx context.Context) (string, error)

	// WindowCount returns the number of windows on the focused workspace
	WindowCount(ctx context.Context) (int, error)

	// CursorPosition returns an opaque, comparable encoding of the pointer location
	CursorPosition(ctx context.Context) (string, error)
}

// Executor runs a shell expression and returns its trimmed output.
type Executor interface {
	Execute(ctx context.Context, expr string) (string, error)
}
