// Package tasklist reconciles tasks and their cycle history into the single
// current list the application displays: one item per task, carrying its
// latest cycle and the fields derived from it at read time.
package tasklist

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukaforge/cadence/internal/lifecycle"
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// Aggregator loads and publishes the task list. Loads replace the published
// list wholesale; subscribers never see incremental diffs.
type Aggregator struct {
	store     store.Store
	publisher *Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewAggregator returns an aggregator over st. A nil logger falls back to
// the default logger.
func NewAggregator(st store.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:     st,
		publisher: NewPublisher(),
		logger:    logger,
		now:       time.Now,
	}
}

// Subscribe registers fn to receive every published list. The returned
// function removes the subscription.
func (a *Aggregator) Subscribe(fn func([]types.TaskListItem)) func() {
	return a.publisher.Subscribe(fn)
}

// Current returns the most recently published list.
func (a *Aggregator) Current() []types.TaskListItem {
	return a.publisher.Current()
}

// LoadList assembles the list for one view and publishes it. All
// non-archived tasks are fetched alongside all cycles; cycles reduce to one
// latest per task, tasks without any cycle get a synthesized pending
// placeholder, and the result is filtered and sorted per the view.
func (a *Aggregator) LoadList(ctx context.Context, view string) ([]types.TaskListItem, error) {
	if !types.IsValidView(view) {
		return nil, types.ErrInvalidView
	}
	now := a.now().UTC()

	tasksRes, err := a.store.Execute(ctx, "SELECT * FROM tasks WHERE isArchived = 0", nil)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	cyclesRes, err := a.store.Execute(ctx, "SELECT * FROM task_cycles", nil)
	if err != nil {
		return nil, fmt.Errorf("loading cycles: %w", err)
	}
	latest := reduceLatest(cyclesRes.Values)

	var items []types.TaskListItem
	for _, row := range tasksRes.Values {
		task := lifecycle.TaskFromRow(row)
		cycle, ok := latest[task.ID]
		if !ok {
			cycle = a.placeholderCycle(task, now)
		}
		item := a.deriveItem(task, cycle, now)
		if matchesView(item, view) {
			items = append(items, item)
		}
	}

	sortItems(items)
	a.publisher.Publish(items)
	a.logger.Debug("task list loaded", "view", view, "items", len(items))
	return items, nil
}

// GetArchivedTasks returns archived tasks in the same derived shape, made
// inert: never overdue, never startable or completable. The override is
// applied explicitly after the shared derivation.
func (a *Aggregator) GetArchivedTasks(ctx context.Context) ([]types.TaskListItem, error) {
	now := a.now().UTC()

	tasksRes, err := a.store.Execute(ctx, "SELECT * FROM tasks WHERE isArchived = 1", nil)
	if err != nil {
		return nil, fmt.Errorf("loading archived tasks: %w", err)
	}
	cyclesRes, err := a.store.Execute(ctx, "SELECT * FROM task_cycles", nil)
	if err != nil {
		return nil, fmt.Errorf("loading cycles: %w", err)
	}
	latest := reduceLatest(cyclesRes.Values)

	var items []types.TaskListItem
	for _, row := range tasksRes.Values {
		task := lifecycle.TaskFromRow(row)
		cycle, ok := latest[task.ID]
		if !ok {
			cycle = a.placeholderCycle(task, now)
		}
		item := a.deriveItem(task, cycle, now)
		item.IsOverdue = false
		item.CanStartEarly = false
		item.CanComplete = false
		items = append(items, item)
	}
	sortItems(items)
	return items, nil
}

// reduceLatest picks each task's most recent cycle: greatest start date,
// ties broken toward the still-actionable status, so an unfinished cycle
// beats a finished one that started at the same instant.
func reduceLatest(rows []store.Row) map[int64]types.TaskCycle {
	latest := make(map[int64]types.TaskCycle)
	for _, row := range rows {
		cycle := lifecycle.CycleFromRow(row)
		current, ok := latest[cycle.TaskID]
		if !ok || newerCycle(cycle, current) {
			latest[cycle.TaskID] = cycle
		}
	}
	return latest
}

func newerCycle(a, b types.TaskCycle) bool {
	if a.CycleStartDate != b.CycleStartDate {
		return a.CycleStartDate > b.CycleStartDate
	}
	return types.CycleStatusPriority(a.Status) < types.CycleStatusPriority(b.Status)
}

// placeholderCycle synthesizes a pending cycle starting now for a task with
// no cycle rows yet. It is never written to the store.
func (a *Aggregator) placeholderCycle(task types.Task, now time.Time) types.TaskCycle {
	return types.TaskCycle{
		TaskID:         task.ID,
		CycleStartDate: now.Format(time.RFC3339),
		CycleEndDate:   lifecycle.Advance(now, task.Frequency).Format(time.RFC3339),
		Status:         types.CycleStatusPending,
	}
}

func (a *Aggregator) deriveItem(task types.Task, cycle types.TaskCycle, now time.Time) types.TaskListItem {
	item := types.TaskListItem{
		Task:          task,
		CurrentCycle:  cycle,
		TaskStatus:    lifecycle.DisplayStatus(cycle, now, a.logger),
		IsOverdue:     lifecycle.IsOverdue(cycle, now, a.logger),
		NextDueDate:   cycle.CycleEndDate,
		CanStartEarly: lifecycle.CanStartEarly(cycle, now, a.logger),
		CanComplete:   lifecycle.CanComplete(cycle, now, a.logger),
	}
	if cycle.CompletedAt != "" {
		completed := lifecycle.ParseTime(cycle.CompletedAt, now, a.logger)
		days := int(now.Sub(completed).Hours() / 24)
		item.DaysSinceLastCompletion = &days
	}
	return item
}

func matchesView(item types.TaskListItem, view string) bool {
	switch view {
	case types.ViewOverdue:
		return item.IsOverdue
	case types.ViewInProgress:
		return item.CurrentCycle.Status == types.CycleStatusInProgress
	case types.ViewUpcoming:
		return item.CurrentCycle.Status == types.CycleStatusPending
	default:
		return true
	}
}

// sortItems orders overdue items first, then in-progress, then the rest;
// within a bucket the soonest due date wins.
func sortItems(items []types.TaskListItem) {
	priority := func(item types.TaskListItem) int {
		switch {
		case item.IsOverdue:
			return 1
		case item.CurrentCycle.Status == types.CycleStatusInProgress:
			return 2
		default:
			return 3
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := priority(items[i]), priority(items[j])
		if pi != pj {
			return pi < pj
		}
		return items[i].CurrentCycle.CycleEndDate < items[j].CurrentCycle.CycleEndDate
	})
}
