package action

import "codeberg.org/mutker/greenland/internal/errors"

const (
	ErrGovernorFailed = errors.ErrorCode("action_governor_failed")
	ErrNotifyFailed   = errors.ErrorCode("action_notify_failed")
	ErrSuspendFailed  = errors.ErrorCode("action_suspend_failed")
	ErrBusUnavailable = errors.ErrorCode("action_bus_unavailable")
)
