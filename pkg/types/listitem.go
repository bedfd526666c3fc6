package types

// Views over the aggregated task list.
const (
	ViewAll        = "all"
	ViewOverdue    = "overdue"
	ViewInProgress = "in_progress"
	ViewUpcoming   = "upcoming"
)

// validViews is the set of recognized view names.
var validViews = map[string]bool{
	ViewAll:        true,
	ViewOverdue:    true,
	ViewInProgress: true,
	ViewUpcoming:   true,
}

// IsValidView reports whether v is a recognized list view.
func IsValidView(v string) bool {
	return validViews[v]
}

// Display statuses derived from a cycle's raw status and the clock.
// Skipped cycles display as Pending; they do not get their own bucket.
const (
	DisplayActive    = "Active"
	DisplayPending   = "Pending"
	DisplayCompleted = "Completed"
	DisplayOverdue   = "Overdue"
)

// TaskListItem joins a task with its current cycle and the fields derived
// from them at read time. It is recomputed on every list load, never stored.
type TaskListItem struct {
	Task         Task
	CurrentCycle TaskCycle
	TaskStatus   string // One of the Display constants.
	IsOverdue    bool
	NextDueDate  string // = CurrentCycle.CycleEndDate.
	// DaysSinceLastCompletion is nil when the cycle was never completed.
	DaysSinceLastCompletion *int
	CanStartEarly           bool
	CanComplete             bool
}
