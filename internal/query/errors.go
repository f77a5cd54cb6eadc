package query

import "codeberg.org/mutker/greenland/internal/errors"

const (
	ErrWorkspaceFailed = errors.ErrorCode("query_workspace_failed")
	ErrWindowsFailed   = errors.ErrorCode("query_windows_failed")
	ErrCursorFailed    = errors.ErrorCode("query_cursor_failed")
	ErrMalformed       = errors.ErrorCode("query_malformed_output")
)
