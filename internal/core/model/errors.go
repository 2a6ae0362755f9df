package model

import "errors"

// Precondition violations. Not retryable without a state change.
var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrNoScheduleToday  = errors.New("no schedule for today")
	ErrNoPendingEntries = errors.New("no pending entries")
)

// Policy violations. Correctable by resubmitting valid input.
var (
	ErrJustificationRequired = errors.New("justification required for early clock-out")
	ErrReasonRequired        = errors.New("rejection reason required")
)

// ErrForbidden is an authority violation; the same actor should never retry.
var ErrForbidden = errors.New("forbidden")

// ErrStaleState is a concurrency conflict: the targeted entries were no
// longer in the expected source state. Safe to retry after re-reading.
var ErrStaleState = errors.New("stale state")

// Reason text validation failures, wrapped by the policy errors above so a
// caller can surface the specific cause.
var (
	ErrReasonEmpty        = errors.New("reason is empty")
	ErrReasonTooLong      = errors.New("reason exceeds maximum length")
	ErrReasonDisallowed   = errors.New("reason contains disallowed characters")
	ErrEntryNotAmendable  = errors.New("entry cannot be amended in its current state")
	ErrInvalidAmendWindow = errors.New("amended interval is invalid for the session")
)
