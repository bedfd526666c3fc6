package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukaforge/cadence/internal/lifecycle"
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// selectTasksWithLatestCycle correlates each task with its most recent
// cycle in one statement. The window orders by start date descending and
// breaks start-date ties toward the still-actionable status.
const selectTasksWithLatestCycle = `SELECT t.*, c.id AS cycleId, c.cycleStartDate, c.cycleEndDate, c.status, c.progress, c.completedAt FROM tasks t LEFT JOIN (SELECT *, ROW_NUMBER() OVER (PARTITION BY taskId ORDER BY cycleStartDate DESC, CASE status WHEN 'pending' THEN 0 WHEN 'in_progress' THEN 1 WHEN 'skipped' THEN 2 ELSE 3 END) AS rn FROM task_cycles) c ON c.taskId = t.id AND c.rn = 1`

// TaskService owns the tasks table and its satellite history rows.
type TaskService struct {
	store     store.Store
	engine    *lifecycle.Engine
	scheduler ReminderScheduler
	reload    Reloader
	logger    *slog.Logger
	now       func() time.Time
}

// NewTaskService wires a task service. scheduler and reload may be nil when
// reminders or list publication are not in play (tests, one-shot commands).
func NewTaskService(st store.Store, engine *lifecycle.Engine, scheduler ReminderScheduler, reload Reloader, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		store:     st,
		engine:    engine,
		scheduler: scheduler,
		reload:    reload,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates and inserts a task, appends its Created history entry,
// and creates cycle number one in the same logical operation. List loading
// never has to synthesize a placeholder for a task this service created.
func (s *TaskService) Create(ctx context.Context, task types.Task) (int64, error) {
	if err := task.Validate(); err != nil {
		return 0, err
	}
	res, err := s.store.Execute(ctx,
		"INSERT INTO tasks (title, type, customerId, frequency, startDate, notificationType, notificationTime, notificationValue, notes, isArchived) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		[]any{task.Title, task.Type, customerParam(task.CustomerID), task.Frequency, task.StartDate,
			task.NotificationType, task.NotificationTime, task.NotificationValue, task.Notes, boolFlag(task.IsArchived)})
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}
	task.ID = res.Changes.LastID

	if err := s.appendHistory(ctx, task.ID, "Created", fmt.Sprintf("Task %q created", task.Title)); err != nil {
		return 0, err
	}
	if _, err := s.engine.EnsureActiveCycle(ctx, task, nil); err != nil {
		return 0, err
	}
	if s.scheduler != nil {
		s.scheduler.Schedule(task)
	}
	s.logger.Info("task created", "task", task.ID, "title", task.Title)
	return task.ID, s.afterMutation(ctx)
}

// Get loads one task with its customer's name merged in.
func (s *TaskService) Get(ctx context.Context, id int64) (types.Task, error) {
	res, err := s.store.Execute(ctx,
		"SELECT t.*, c.name AS customerName FROM tasks t LEFT JOIN customers c ON t.customerId = c.id WHERE t.id = ?",
		[]any{id})
	if err != nil {
		return types.Task{}, fmt.Errorf("loading task %d: %w", id, err)
	}
	if len(res.Values) == 0 {
		return types.Task{}, types.ErrNotFound
	}
	return lifecycle.TaskFromRow(res.Values[0]), nil
}

// GetAll loads every task with customer names, ordered by start date.
func (s *TaskService) GetAll(ctx context.Context) ([]types.Task, error) {
	res, err := s.store.Execute(ctx,
		"SELECT t.*, c.name AS customerName FROM tasks t LEFT JOIN customers c ON t.customerId = c.id ORDER BY t.startDate",
		nil)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	tasks := make([]types.Task, 0, len(res.Values))
	for _, row := range res.Values {
		tasks = append(tasks, lifecycle.TaskFromRow(row))
	}
	return tasks, nil
}

// GetAllWithLatestCycle loads every task joined with its latest cycle via
// the windowed statement, one row per task.
func (s *TaskService) GetAllWithLatestCycle(ctx context.Context) ([]types.TaskListItem, error) {
	res, err := s.store.Execute(ctx, selectTasksWithLatestCycle, nil)
	if err != nil {
		return nil, fmt.Errorf("loading tasks with cycles: %w", err)
	}
	items := make([]types.TaskListItem, 0, len(res.Values))
	for _, row := range res.Values {
		task := lifecycle.TaskFromRow(row)
		item := types.TaskListItem{Task: task}
		if row["cycleId"] != nil {
			cycleID, _ := store.AsInt64(row["cycleId"])
			progress, _ := store.AsInt64(row["progress"])
			item.CurrentCycle = types.TaskCycle{
				ID:             cycleID,
				TaskID:         task.ID,
				CycleStartDate: store.AsString(row["cycleStartDate"]),
				CycleEndDate:   store.AsString(row["cycleEndDate"]),
				Status:         store.AsString(row["status"]),
				Progress:       int(progress),
				CompletedAt:    store.AsString(row["completedAt"]),
			}
			item.NextDueDate = item.CurrentCycle.CycleEndDate
		}
		items = append(items, item)
	}
	return items, nil
}

// ListByCustomer loads the tasks referencing one customer.
func (s *TaskService) ListByCustomer(ctx context.Context, customerID int64) ([]types.Task, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM tasks WHERE customerId = ?", []any{customerID})
	if err != nil {
		return nil, fmt.Errorf("loading tasks for customer %d: %w", customerID, err)
	}
	tasks := make([]types.Task, 0, len(res.Values))
	for _, row := range res.Values {
		tasks = append(tasks, lifecycle.TaskFromRow(row))
	}
	return tasks, nil
}

// Update rewrites a task's mutable fields. When the task's current cycle is
// still pending, that cycle's end date is recomputed from the possibly
// changed frequency; completed and in-progress cycles are never touched.
func (s *TaskService) Update(ctx context.Context, task types.Task) error {
	if task.ID <= 0 {
		return types.ErrInvalidID
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if _, err := s.Get(ctx, task.ID); err != nil {
		return err
	}
	_, err := s.store.Execute(ctx,
		"UPDATE tasks SET title = ?, type = ?, customerId = ?, frequency = ?, startDate = ?, notificationType = ?, notificationTime = ?, notificationValue = ?, notes = ?, isArchived = ? WHERE id = ?",
		[]any{task.Title, task.Type, customerParam(task.CustomerID), task.Frequency, task.StartDate,
			task.NotificationType, task.NotificationTime, task.NotificationValue, task.Notes, boolFlag(task.IsArchived), task.ID})
	if err != nil {
		return fmt.Errorf("updating task %d: %w", task.ID, err)
	}

	current, err := s.engine.CurrentCycle(ctx, task.ID)
	if err != nil {
		return err
	}
	if current != nil && current.Status == types.CycleStatusPending {
		now := s.now().UTC()
		start := lifecycle.ParseTime(current.CycleStartDate, now, s.logger)
		end := lifecycle.Advance(start, task.Frequency)
		if _, err := s.store.Execute(ctx,
			"UPDATE task_cycles SET cycleEndDate = ? WHERE id = ?",
			[]any{end.Format(time.RFC3339), current.ID}); err != nil {
			return fmt.Errorf("recomputing cycle end for task %d: %w", task.ID, err)
		}
	}

	if err := s.appendHistory(ctx, task.ID, "Updated", fmt.Sprintf("Task %q updated", task.Title)); err != nil {
		return err
	}
	if s.scheduler != nil {
		s.scheduler.Schedule(task)
	}
	return s.afterMutation(ctx)
}

// Delete removes a task. Cycles and history go with it through the cascade
// rule; any pending reminder is cancelled.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.store.Execute(ctx, "DELETE FROM tasks WHERE id = ?", []any{id}); err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(id)
	}
	s.logger.Info("task deleted", "task", id)
	return s.afterMutation(ctx)
}

// Archive soft-deletes a task: it drops out of active views but keeps all
// cycles and history.
func (s *TaskService) Archive(ctx context.Context, id int64) error {
	return s.setArchived(ctx, id, true)
}

// Unarchive restores an archived task to the active views.
func (s *TaskService) Unarchive(ctx context.Context, id int64) error {
	return s.setArchived(ctx, id, false)
}

func (s *TaskService) setArchived(ctx context.Context, id int64, archived bool) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.store.Execute(ctx,
		"UPDATE tasks SET isArchived = ? WHERE id = ?",
		[]any{boolFlag(archived), id}); err != nil {
		return fmt.Errorf("archiving task %d: %w", id, err)
	}

	action := "Archived"
	if !archived {
		action = "Unarchived"
	}
	if err := s.appendHistory(ctx, id, action, fmt.Sprintf("Task %q %s", task.Title, strings.ToLower(action))); err != nil {
		return err
	}
	if s.scheduler != nil {
		if archived {
			s.scheduler.Cancel(id)
		} else {
			task.IsArchived = false
			s.scheduler.Schedule(task)
		}
	}
	return s.afterMutation(ctx)
}

// History returns a task's audit trail, newest first.
func (s *TaskService) History(ctx context.Context, taskID int64) ([]types.TaskHistoryEntry, error) {
	res, err := s.store.Execute(ctx,
		"SELECT * FROM task_history WHERE taskId = ? ORDER BY timestamp DESC",
		[]any{taskID})
	if err != nil {
		return nil, fmt.Errorf("loading history for task %d: %w", taskID, err)
	}
	entries := make([]types.TaskHistoryEntry, 0, len(res.Values))
	for _, row := range res.Values {
		entries = append(entries, HistoryFromRow(row))
	}
	return entries, nil
}

func (s *TaskService) appendHistory(ctx context.Context, taskID int64, action, details string) error {
	_, err := s.store.Execute(ctx,
		"INSERT INTO task_history (taskId, timestamp, action, details) VALUES (?, ?, ?, ?)",
		[]any{taskID, s.now().UTC().Format(time.RFC3339), action, details})
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

func (s *TaskService) afterMutation(ctx context.Context) error {
	if s.reload == nil {
		return nil
	}
	return s.reload(ctx)
}

func customerParam(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func boolFlag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
