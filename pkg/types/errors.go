package types

import (
	"errors"
	"fmt"
)

// Record and input errors.
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidID        = errors.New("invalid record ID")
	ErrInvalidTitle     = errors.New("title must not be empty")
	ErrInvalidFrequency = errors.New("invalid frequency value")
	ErrInvalidView      = errors.New("invalid list view")
	ErrInvalidProgress  = errors.New("progress must be between 0 and 100")
)

// Reasons a cycle status change is rejected.
const (
	// ReasonEarlyStartNotAllowed: the cycle's official start is more than
	// the early-start grace window away.
	ReasonEarlyStartNotAllowed = "early_start_not_allowed"
	// ReasonPrematureCompletion: the cycle cannot complete before its
	// start date, even when already in progress.
	ReasonPrematureCompletion = "premature_completion"
	// ReasonInvalidStatus: the requested status is not a recognized value
	// or the transition has no edge in the lifecycle graph.
	ReasonInvalidStatus = "invalid_status"
)

// TransitionError is a typed rejection of a cycle status change. It is never
// coerced into a generic error; callers inspect Reason to distinguish the
// lifecycle guard that fired.
type TransitionError struct {
	CycleID int64
	From    string
	To      string
	Reason  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cycle %d: transition %s -> %s rejected: %s",
		e.CycleID, e.From, e.To, e.Reason)
}

// Reasons a protected record refuses deletion.
const (
	ProtectedIsDefault = "is_default"
	ProtectedInUse     = "is_in_use"
)

// ProtectedRecordError rejects deletion of a seeded or referenced
// TaskType/NotificationType row. Reason distinguishes "is default"
// from "is in use".
type ProtectedRecordError struct {
	Table  string
	Name   string
	Reason string
}

func (e *ProtectedRecordError) Error() string {
	return fmt.Sprintf("%s %q cannot be deleted: %s", e.Table, e.Name, e.Reason)
}
