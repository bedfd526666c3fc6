package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukaforge/cadence/pkg/types"
)

// TaskLister supplies the active tasks the daily rescan re-schedules.
type TaskLister func(ctx context.Context) ([]types.Task, error)

// Scheduler keeps at most one pending reminder timer per task. Scheduling a
// task always cancels its previous timer first, so a reschedule can never
// leave two timers racing for the same task.
type Scheduler struct {
	mu       sync.Mutex
	timers   map[int64]*time.Timer
	dispatch Dispatcher
	list     TaskLister
	logger   *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewScheduler wires a scheduler. list may be nil when no daily rescan is
// wanted.
func NewScheduler(dispatch Dispatcher, list TaskLister, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		timers:   make(map[int64]*time.Timer),
		dispatch: dispatch,
		list:     list,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start begins the daily rescan job. Safe to skip for one-shot runs; timers
// scheduled directly still fire without it.
func (s *Scheduler) Start() error {
	if s.list != nil {
		if _, err := s.cron.AddFunc("@daily", s.rescan); err != nil {
			return fmt.Errorf("registering rescan job: %w", err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the rescan job and cancels every pending timer.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// Schedule arms a reminder for the task's start date. Archived tasks and
// tasks already past their start are not scheduled; in both cases any
// previous timer is still cancelled.
func (s *Scheduler) Schedule(task types.Task) {
	s.Cancel(task.ID)
	if task.IsArchived {
		return
	}
	start, err := time.Parse(time.RFC3339, task.StartDate)
	if err != nil {
		s.logger.Warn("reminder not scheduled, unparseable start date", "task", task.ID, "value", task.StartDate)
		return
	}
	delay := start.Sub(s.now())
	if delay <= 0 {
		s.logger.Debug("reminder not scheduled, start date in the past", "task", task.ID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[task.ID] = time.AfterFunc(delay, func() {
		s.fire(task)
	})
	s.logger.Debug("reminder scheduled", "task", task.ID, "at", start)
}

// Cancel clears the task's pending timer, if any.
func (s *Scheduler) Cancel(taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[taskID]; ok {
		timer.Stop()
		delete(s.timers, taskID)
	}
}

func (s *Scheduler) fire(task types.Task) {
	s.mu.Lock()
	delete(s.timers, task.ID)
	s.mu.Unlock()

	n := Notification{
		Title:            task.Title,
		Body:             fmt.Sprintf("%q is due", task.Title),
		NotificationType: task.NotificationType,
		TaskID:           task.ID,
		CustomerID:       task.CustomerID,
		Receiver:         task.NotificationValue,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.dispatch.Send(ctx, n); err != nil {
		// Delivery is best effort; the cycle state that triggered the
		// reminder is already committed.
		s.logger.Warn("notification send failed", "task", task.ID, "error", err)
	}
}

// rescan re-arms reminders for every active task. Runs daily so reminders
// survive process restarts and clock drift.
func (s *Scheduler) rescan() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	tasks, err := s.list(ctx)
	if err != nil {
		s.logger.Error("reminder rescan failed", "error", err)
		return
	}
	for _, task := range tasks {
		if !task.IsArchived {
			s.Schedule(task)
		}
	}
	s.logger.Debug("reminder rescan complete", "tasks", len(tasks))
}
