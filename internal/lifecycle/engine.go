package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukaforge/cadence/internal/notify"
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// Engine drives cycle state changes against the store. All methods are
// synchronous; completing a cycle creates its successor before returning.
type Engine struct {
	store    store.Store
	logger   *slog.Logger
	dispatch notify.Dispatcher
	now      func() time.Time
}

// NewEngine returns an engine over st. A nil logger falls back to the
// default logger.
func NewEngine(st store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, logger: logger, now: time.Now}
}

// SetDispatcher enables completion notifications. A nil dispatcher leaves
// them off.
func (e *Engine) SetDispatcher(d notify.Dispatcher) {
	e.dispatch = d
}

// GetCycle loads one cycle by id.
func (e *Engine) GetCycle(ctx context.Context, id int64) (types.TaskCycle, error) {
	res, err := e.store.Execute(ctx, "SELECT * FROM task_cycles WHERE id = ?", []any{id})
	if err != nil {
		return types.TaskCycle{}, fmt.Errorf("loading cycle %d: %w", id, err)
	}
	if len(res.Values) == 0 {
		return types.TaskCycle{}, types.ErrNotFound
	}
	return CycleFromRow(res.Values[0]), nil
}

// CurrentCycle returns the task's most recent cycle by start date, or nil
// when the task has none yet.
func (e *Engine) CurrentCycle(ctx context.Context, taskID int64) (*types.TaskCycle, error) {
	res, err := e.store.Execute(ctx,
		"SELECT * FROM task_cycles WHERE taskId = ? ORDER BY cycleStartDate DESC LIMIT 1",
		[]any{taskID})
	if err != nil {
		return nil, fmt.Errorf("loading current cycle for task %d: %w", taskID, err)
	}
	if len(res.Values) == 0 {
		return nil, nil
	}
	cycle := CycleFromRow(res.Values[0])
	return &cycle, nil
}

// UpdateCycleStatus applies one transition of the lifecycle graph. A nil
// progress leaves the stored progress untouched; otherwise it is clamped to
// [0,100]. Transitions into completed stamp completedAt, append a history
// entry, and synchronously create the next cycle.
func (e *Engine) UpdateCycleStatus(ctx context.Context, cycleID int64, status string, progress *int) error {
	cycle, err := e.GetCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	now := e.now().UTC()
	if err := validateTransition(cycle, status, now, e.logger); err != nil {
		return err
	}

	sets := []string{"status = ?"}
	params := []any{status}
	if progress != nil {
		sets = append(sets, "progress = ?")
		params = append(params, int64(clampProgress(*progress)))
	}
	completing := status == types.CycleStatusCompleted
	stamp := now.Format(time.RFC3339)
	if completing {
		sets = append(sets, "completedAt = ?")
		params = append(params, stamp)
	}
	params = append(params, cycleID)
	stmt := "UPDATE task_cycles SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := e.store.Execute(ctx, stmt, params); err != nil {
		return fmt.Errorf("updating cycle %d: %w", cycleID, err)
	}
	e.logger.Debug("cycle status updated", "cycle", cycleID, "from", cycle.Status, "to", status)

	if !completing {
		return nil
	}

	if _, err := e.store.Execute(ctx,
		"INSERT INTO task_history (taskId, timestamp, action, details) VALUES (?, ?, ?, ?)",
		[]any{cycle.TaskID, stamp, "Completed", fmt.Sprintf("Cycle %d completed", cycleID)}); err != nil {
		return fmt.Errorf("recording completion: %w", err)
	}

	task, err := e.getTask(ctx, cycle.TaskID)
	if err != nil {
		return err
	}
	cycle.Status = status
	cycle.CompletedAt = stamp
	if _, err := e.EnsureActiveCycle(ctx, task, &cycle); err != nil {
		return fmt.Errorf("creating next cycle: %w", err)
	}
	e.notifyCompleted(ctx, task)
	return nil
}

// notifyCompleted announces a completed cycle. Delivery is best effort; the
// transition is already committed and a failed send never rolls it back.
func (e *Engine) notifyCompleted(ctx context.Context, task types.Task) {
	if e.dispatch == nil {
		return
	}
	n := notify.Notification{
		Title:            "Task Completed",
		Body:             fmt.Sprintf("%q has been completed", task.Title),
		NotificationType: task.NotificationType,
		TaskID:           task.ID,
		CustomerID:       task.CustomerID,
		Receiver:         task.NotificationValue,
	}
	if err := e.dispatch.Send(ctx, n); err != nil {
		e.logger.Warn("completion notification failed", "task", task.ID, "error", err)
	}
}

// UpdateProgress sets a cycle's progress without touching its status.
// Progress is orthogonal to completion: reaching 100 never completes the
// cycle.
func (e *Engine) UpdateProgress(ctx context.Context, cycleID int64, progress int) error {
	if progress < 0 || progress > 100 {
		return types.ErrInvalidProgress
	}
	if _, err := e.GetCycle(ctx, cycleID); err != nil {
		return err
	}
	_, err := e.store.Execute(ctx,
		"UPDATE task_cycles SET progress = ? WHERE id = ?",
		[]any{int64(progress), cycleID})
	if err != nil {
		return fmt.Errorf("updating progress for cycle %d: %w", cycleID, err)
	}
	return nil
}

// EnsureActiveCycle creates the task's next pending cycle, unless an active
// one already exists, in which case its id is returned unchanged. Cycles are
// contiguous: the successor starts where the previous cycle ended. With no
// previous cycle the new one originates at the task's start date.
func (e *Engine) EnsureActiveCycle(ctx context.Context, task types.Task, previous *types.TaskCycle) (int64, error) {
	current, err := e.CurrentCycle(ctx, task.ID)
	if err != nil {
		return 0, err
	}
	if current != nil && current.IsActive() {
		return current.ID, nil
	}

	now := e.now().UTC()
	var start time.Time
	if previous != nil {
		start = ParseTime(previous.CycleEndDate, now, e.logger)
	} else {
		start = ParseTime(task.StartDate, now, e.logger)
	}
	end := Advance(start, task.Frequency)

	res, err := e.store.Execute(ctx,
		"INSERT INTO task_cycles (taskId, cycleStartDate, cycleEndDate, status, progress) VALUES (?, ?, ?, 'pending', 0)",
		[]any{task.ID, start.Format(time.RFC3339), end.Format(time.RFC3339)})
	if err != nil {
		return 0, fmt.Errorf("inserting cycle for task %d: %w", task.ID, err)
	}
	e.logger.Debug("cycle created", "task", task.ID, "cycle", res.Changes.LastID, "start", start, "end", end)
	return res.Changes.LastID, nil
}

func (e *Engine) getTask(ctx context.Context, id int64) (types.Task, error) {
	res, err := e.store.Execute(ctx, "SELECT * FROM tasks WHERE id = ?", []any{id})
	if err != nil {
		return types.Task{}, fmt.Errorf("loading task %d: %w", id, err)
	}
	if len(res.Values) == 0 {
		return types.Task{}, types.ErrNotFound
	}
	return TaskFromRow(res.Values[0]), nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
