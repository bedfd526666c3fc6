package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukaforge/cadence/internal/lifecycle"
	"github.com/dukaforge/cadence/internal/schema"
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// fakeScheduler records the schedule/cancel calls the task service makes.
type fakeScheduler struct {
	scheduled []int64
	cancelled []int64
}

func (f *fakeScheduler) Schedule(task types.Task) { f.scheduled = append(f.scheduled, task.ID) }
func (f *fakeScheduler) Cancel(taskID int64)      { f.cancelled = append(f.cancelled, taskID) }

func newTestTaskService(t *testing.T) (*TaskService, *fakeScheduler, store.Store) {
	t.Helper()
	st, err := store.OpenMemory(store.NewMemorySnapshotStore())
	require.NoError(t, err)
	require.NoError(t, schema.NewManager(st, nil).Migrate(context.Background()))
	sched := &fakeScheduler{}
	svc := NewTaskService(st, lifecycle.NewEngine(st, nil), sched, nil, nil)
	return svc, sched, st
}

func validTask(title string) types.Task {
	return types.Task{
		Title:            title,
		Type:             "Custom",
		Frequency:        types.FrequencyMonthly,
		StartDate:        time.Now().UTC().Format(time.RFC3339),
		NotificationType: "push",
		NotificationTime: "09:00",
	}
}

func TestTaskService_CreateMakesCycleAndHistory(t *testing.T) {
	svc, sched, st := newTestTaskService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validTask("Rent"))
	require.NoError(t, err)
	require.Positive(t, id)

	cycles, err := st.Execute(ctx, "SELECT COUNT(*) FROM task_cycles WHERE taskId = ?", []any{id})
	require.NoError(t, err)
	assert.EqualValues(t, 1, store.ScalarInt(cycles), "creation includes cycle number one")

	history, err := svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Created", history[0].Action)

	assert.Equal(t, []int64{id}, sched.scheduled)
}

func TestTaskService_CreateRejectsInvalid(t *testing.T) {
	svc, _, _ := newTestTaskService(t)
	ctx := context.Background()

	task := validTask("")
	_, err := svc.Create(ctx, task)
	assert.True(t, errors.Is(err, types.ErrInvalidTitle))

	task = validTask("Rent")
	task.Frequency = "fortnightly"
	_, err = svc.Create(ctx, task)
	assert.True(t, errors.Is(err, types.ErrInvalidFrequency))
}

func TestTaskService_GetJoinsCustomerName(t *testing.T) {
	svc, _, st := newTestTaskService(t)
	ctx := context.Background()

	res, err := st.Execute(ctx,
		"INSERT INTO customers (name, email, phone, icon, color) VALUES (?, ?, ?, ?, ?)",
		[]any{"Acme", "", "", "", ""})
	require.NoError(t, err)
	customerID := res.Changes.LastID

	task := validTask("Invoice")
	task.CustomerID = &customerID
	id, err := svc.Create(ctx, task)
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CustomerName)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, customerID, *got.CustomerID)
}

func TestTaskService_UpdateRecomputesPendingCycleEnd(t *testing.T) {
	svc, _, _ := newTestTaskService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validTask("Checkup"))
	require.NoError(t, err)

	before, err := svc.engine.CurrentCycle(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, before)
	require.Equal(t, types.CycleStatusPending, before.Status)

	updated, err := svc.Get(ctx, id)
	require.NoError(t, err)
	updated.Frequency = types.FrequencyWeekly
	require.NoError(t, svc.Update(ctx, updated))

	after, err := svc.engine.GetCycle(ctx, before.ID)
	require.NoError(t, err)
	start := lifecycle.ParseTime(after.CycleStartDate, time.Now(), nil)
	want := lifecycle.Advance(start, types.FrequencyWeekly).Format(time.RFC3339)
	assert.Equal(t, want, after.CycleEndDate, "pending cycle follows the new frequency")

	history, err := svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	actions := []string{history[0].Action, history[1].Action}
	assert.Contains(t, actions, "Updated")
	assert.Contains(t, actions, "Created")
}

func TestTaskService_UpdateLeavesInProgressCycleAlone(t *testing.T) {
	svc, _, _ := newTestTaskService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validTask("Report"))
	require.NoError(t, err)
	current, err := svc.engine.CurrentCycle(ctx, id)
	require.NoError(t, err)
	require.NoError(t, svc.engine.UpdateCycleStatus(ctx, current.ID, types.CycleStatusInProgress, nil))

	endBefore := mustCycle(t, svc, current.ID).CycleEndDate

	updated, err := svc.Get(ctx, id)
	require.NoError(t, err)
	updated.Frequency = types.FrequencyDaily
	require.NoError(t, svc.Update(ctx, updated))

	assert.Equal(t, endBefore, mustCycle(t, svc, current.ID).CycleEndDate)
}

func mustCycle(t *testing.T, svc *TaskService, id int64) types.TaskCycle {
	t.Helper()
	cycle, err := svc.engine.GetCycle(context.Background(), id)
	require.NoError(t, err)
	return cycle
}

func TestTaskService_DeleteCascades(t *testing.T) {
	svc, sched, st := newTestTaskService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validTask("Doomed"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, id)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	cycles, err := st.Execute(ctx, "SELECT COUNT(*) FROM task_cycles WHERE taskId = ?", []any{id})
	require.NoError(t, err)
	assert.EqualValues(t, 0, store.ScalarInt(cycles))
	history, err := st.Execute(ctx, "SELECT COUNT(*) FROM task_history WHERE taskId = ?", []any{id})
	require.NoError(t, err)
	assert.EqualValues(t, 0, store.ScalarInt(history))

	assert.Contains(t, sched.cancelled, id)
}

func TestTaskService_ArchiveRoundTrip(t *testing.T) {
	svc, sched, _ := newTestTaskService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validTask("Seasonal"))
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, id))
	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)
	assert.Contains(t, sched.cancelled, id)

	require.NoError(t, svc.Unarchive(ctx, id))
	got, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsArchived)

	history, err := svc.History(ctx, id)
	require.NoError(t, err)
	actions := make([]string, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	assert.Contains(t, actions, "Archived")
	assert.Contains(t, actions, "Unarchived")
}

func TestTaskService_GetAllWithLatestCycle(t *testing.T) {
	svc, _, _ := newTestTaskService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validTask("Tracked"))
	require.NoError(t, err)

	items, err := svc.GetAllWithLatestCycle(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].Task.ID)
	assert.Equal(t, types.CycleStatusPending, items[0].CurrentCycle.Status)
	assert.Equal(t, items[0].CurrentCycle.CycleEndDate, items[0].NextDueDate)
}

func TestTaskService_ListByCustomer(t *testing.T) {
	svc, _, st := newTestTaskService(t)
	ctx := context.Background()

	res, err := st.Execute(ctx,
		"INSERT INTO customers (name, email, phone, icon, color) VALUES (?, ?, ?, ?, ?)",
		[]any{"Acme", "", "", "", ""})
	require.NoError(t, err)
	customerID := res.Changes.LastID

	owned := validTask("Owned")
	owned.CustomerID = &customerID
	_, err = svc.Create(ctx, owned)
	require.NoError(t, err)
	_, err = svc.Create(ctx, validTask("Unowned"))
	require.NoError(t, err)

	tasks, err := svc.ListByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Owned", tasks[0].Title)
}
