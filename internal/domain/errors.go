package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// Task errors
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidTask  = errors.New("invalid task")

	// Recurrence errors
	ErrUnknownRecurrence = errors.New("unknown recurrence type")
	ErrSuccessorFailed   = errors.New("successor task could not be created")
)
