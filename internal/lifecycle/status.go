package lifecycle

import (
	"log/slog"
	"time"

	"github.com/dukaforge/cadence/pkg/types"
)

// DisplayStatus derives the status shown in lists from the cycle's raw
// state and the clock. Skipped cycles display as Pending; they get no
// bucket of their own.
func DisplayStatus(cycle types.TaskCycle, now time.Time, logger *slog.Logger) string {
	switch cycle.Status {
	case types.CycleStatusCompleted:
		return types.DisplayCompleted
	case types.CycleStatusInProgress:
		if ParseTime(cycle.CycleEndDate, now, logger).Before(now) {
			return types.DisplayOverdue
		}
		return types.DisplayActive
	case types.CycleStatusPending:
		if ParseTime(cycle.CycleEndDate, now, logger).Before(now) {
			return types.DisplayOverdue
		}
		return types.DisplayPending
	default:
		return types.DisplayPending
	}
}

// IsOverdue reports whether the cycle's end has passed without completion.
func IsOverdue(cycle types.TaskCycle, now time.Time, logger *slog.Logger) bool {
	return cycle.Status != types.CycleStatusCompleted &&
		ParseTime(cycle.CycleEndDate, now, logger).Before(now)
}

// CanStartEarly reports whether a pending cycle may move to in_progress:
// any time after its start, or within the early-start window before it.
func CanStartEarly(cycle types.TaskCycle, now time.Time, logger *slog.Logger) bool {
	if cycle.Status != types.CycleStatusPending {
		return false
	}
	start := ParseTime(cycle.CycleStartDate, now, logger)
	return start.Sub(now) <= EarlyStartWindow
}

// CanComplete reports whether an in-progress cycle may complete. Completion
// before the cycle has begun is never allowed, even when it was started
// early.
func CanComplete(cycle types.TaskCycle, now time.Time, logger *slog.Logger) bool {
	if cycle.Status != types.CycleStatusInProgress {
		return false
	}
	start := ParseTime(cycle.CycleStartDate, now, logger)
	return !now.Before(start)
}

// validateTransition checks one edge of the lifecycle graph at the given
// instant. It returns nil for legal edges and a *types.TransitionError
// naming the guard that fired otherwise. Completed is terminal.
func validateTransition(cycle types.TaskCycle, to string, now time.Time, logger *slog.Logger) error {
	reject := func(reason string) error {
		return &types.TransitionError{CycleID: cycle.ID, From: cycle.Status, To: to, Reason: reason}
	}
	if !types.IsValidCycleStatus(to) {
		return reject(types.ReasonInvalidStatus)
	}

	switch cycle.Status {
	case types.CycleStatusPending:
		switch to {
		case types.CycleStatusInProgress:
			if !CanStartEarly(cycle, now, logger) {
				return reject(types.ReasonEarlyStartNotAllowed)
			}
			return nil
		case types.CycleStatusSkipped, types.CycleStatusPending:
			return nil
		}
	case types.CycleStatusInProgress:
		switch to {
		case types.CycleStatusCompleted:
			if !CanComplete(cycle, now, logger) {
				return reject(types.ReasonPrematureCompletion)
			}
			return nil
		case types.CycleStatusSkipped, types.CycleStatusPending, types.CycleStatusInProgress:
			return nil
		}
	case types.CycleStatusSkipped:
		switch to {
		case types.CycleStatusPending, types.CycleStatusSkipped:
			return nil
		}
	case types.CycleStatusCompleted:
		// No transition leaves completed.
	}
	return reject(types.ReasonInvalidStatus)
}
