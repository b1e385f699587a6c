package service

import "fmt"

// Domain errors carry an i18n message key; controllers translate the key
// into the response language (en/he) and never expose raw SQL errors.

// NotFoundError signals an absent entity.
type NotFoundError struct {
	MessageKey string
	Detail     string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "not found"
}

// ValidationError signals malformed input, rejected before any write.
type ValidationError struct {
	MessageKey string
	Detail     string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// PermissionError signals a failed hierarchy check. The whole operation is
// aborted with no partial state change.
type PermissionError struct {
	MessageKey string
	Assignee   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("assignment to %s is not permitted", e.Assignee)
}

// HoursGateError rejects a done-transition on a task with no time log.
// Controllers surface it as a machine-readable requiresHoursLog flag so
// clients can prompt for hours and retry.
type HoursGateError struct {
	MessageKey string
}

func (e *HoursGateError) Error() string {
	return "task has no logged hours"
}
