package types

// Cycle states. A cycle progresses through these states during its lifecycle;
// completed is terminal.
const (
	CycleStatusPending    = "pending"
	CycleStatusInProgress = "in_progress"
	CycleStatusCompleted  = "completed"
	CycleStatusSkipped    = "skipped"
)

// validCycleStatuses is the set of recognized cycle status values.
var validCycleStatuses = map[string]bool{
	CycleStatusPending:    true,
	CycleStatusInProgress: true,
	CycleStatusCompleted:  true,
	CycleStatusSkipped:    true,
}

// IsValidCycleStatus reports whether s is a recognized cycle status.
func IsValidCycleStatus(s string) bool {
	return validCycleStatuses[s]
}

// CycleStatusPriority orders statuses for latest-cycle tie-breaking: when two
// cycles of one task share a start date, the unfinished one wins.
// Lower is more current.
func CycleStatusPriority(status string) int {
	switch status {
	case CycleStatusPending:
		return 0
	case CycleStatusInProgress:
		return 1
	case CycleStatusSkipped:
		return 2
	case CycleStatusCompleted:
		return 3
	default:
		return 4
	}
}

// TaskCycle is one recurrence window of a Task. The end date is the start
// date advanced by the task's frequency.
type TaskCycle struct {
	ID             int64
	TaskID         int64
	CycleStartDate string // ISO 8601.
	CycleEndDate   string // ISO 8601.
	Status         string // One of the CycleStatus constants.
	Progress       int    // 0-100; orthogonal to status.
	CompletedAt    string // ISO 8601; set only on the transition to completed.
}

// IsActive reports whether the cycle still occupies its task's single active
// slot. At most one cycle per task is active at a time.
func (c *TaskCycle) IsActive() bool {
	return c.Status == CycleStatusPending || c.Status == CycleStatusInProgress
}
