package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukaforge/cadence/internal/notify"
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

var engineTables = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		customerId INTEGER,
		frequency TEXT NOT NULL,
		startDate TEXT NOT NULL,
		notificationType TEXT,
		notificationTime TEXT,
		notificationValue TEXT,
		notes TEXT,
		isArchived INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS task_cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taskId INTEGER NOT NULL,
		cycleStartDate TEXT NOT NULL,
		cycleEndDate TEXT NOT NULL,
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		completedAt TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS task_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taskId INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT
	)`,
}

var engineNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	st, err := store.OpenMemory(store.NewMemorySnapshotStore())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	ctx := context.Background()
	for _, stmt := range engineTables {
		if _, err := st.Execute(ctx, stmt, nil); err != nil {
			t.Fatalf("creating table: %v", err)
		}
	}
	e := NewEngine(st, nil)
	e.now = func() time.Time { return engineNow }
	return e, st
}

func insertTestTask(t *testing.T, st store.Store, frequency string, start time.Time) types.Task {
	t.Helper()
	res, err := st.Execute(context.Background(),
		"INSERT INTO tasks (title, type, frequency, startDate, isArchived) VALUES (?, ?, ?, ?, ?)",
		[]any{"Test Task", "Custom", frequency, start.Format(time.RFC3339), int64(0)})
	if err != nil {
		t.Fatalf("inserting task: %v", err)
	}
	return types.Task{ID: res.Changes.LastID, Title: "Test Task", Type: "Custom",
		Frequency: frequency, StartDate: start.Format(time.RFC3339)}
}

func TestEngine_EnsureActiveCycle_FirstCycle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	task := insertTestTask(t, e.store, types.FrequencyMonthly, engineNow)

	id, err := e.EnsureActiveCycle(ctx, task, nil)
	if err != nil {
		t.Fatalf("EnsureActiveCycle failed: %v", err)
	}
	cycle, err := e.GetCycle(ctx, id)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if cycle.Status != types.CycleStatusPending {
		t.Errorf("expected pending, got %q", cycle.Status)
	}
	if cycle.CycleStartDate != engineNow.Format(time.RFC3339) {
		t.Errorf("expected start now, got %q", cycle.CycleStartDate)
	}
	if cycle.CycleEndDate != engineNow.AddDate(0, 1, 0).Format(time.RFC3339) {
		t.Errorf("expected end one month out, got %q", cycle.CycleEndDate)
	}
}

func TestEngine_EnsureActiveCycle_FutureStart(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	start := engineNow.AddDate(0, 0, 10)
	task := insertTestTask(t, e.store, types.FrequencyMonthly, start)

	id, err := e.EnsureActiveCycle(ctx, task, nil)
	if err != nil {
		t.Fatalf("EnsureActiveCycle failed: %v", err)
	}
	cycle, err := e.GetCycle(ctx, id)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if cycle.CycleStartDate != start.Format(time.RFC3339) {
		t.Errorf("first cycle originates at the task start date, got %q", cycle.CycleStartDate)
	}
	// Such a cycle cannot be started yet: its start is outside the early
	// window.
	err = e.UpdateCycleStatus(ctx, id, types.CycleStatusInProgress, nil)
	var terr *types.TransitionError
	if !errors.As(err, &terr) || terr.Reason != types.ReasonEarlyStartNotAllowed {
		t.Errorf("expected early start rejection, got %v", err)
	}
}

func TestEngine_EnsureActiveCycle_Idempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	task := insertTestTask(t, e.store, types.FrequencyWeekly, engineNow)

	first, err := e.EnsureActiveCycle(ctx, task, nil)
	if err != nil {
		t.Fatalf("EnsureActiveCycle failed: %v", err)
	}
	second, err := e.EnsureActiveCycle(ctx, task, nil)
	if err != nil {
		t.Fatalf("second EnsureActiveCycle failed: %v", err)
	}
	if first != second {
		t.Errorf("expected the existing active cycle to be reused: %d vs %d", first, second)
	}
}

func TestEngine_CurrentCycle_NoneYet(t *testing.T) {
	e, _ := newTestEngine(t)
	task := insertTestTask(t, e.store, types.FrequencyDaily, engineNow)

	current, err := e.CurrentCycle(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("CurrentCycle failed: %v", err)
	}
	if current != nil {
		t.Errorf("expected nil for a task with no cycles, got %+v", current)
	}
}

func TestEngine_CompleteCreatesContiguousSuccessor(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	start := engineNow.AddDate(0, 0, -3)
	task := insertTestTask(t, e.store, types.FrequencyMonthly, start)

	cycleID, err := e.EnsureActiveCycle(ctx, task, nil)
	if err != nil {
		t.Fatalf("EnsureActiveCycle failed: %v", err)
	}
	if err := e.UpdateCycleStatus(ctx, cycleID, types.CycleStatusInProgress, nil); err != nil {
		t.Fatalf("starting cycle: %v", err)
	}
	if err := e.UpdateCycleStatus(ctx, cycleID, types.CycleStatusCompleted, nil); err != nil {
		t.Fatalf("completing cycle: %v", err)
	}

	done, err := e.GetCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if done.Status != types.CycleStatusCompleted {
		t.Errorf("expected completed, got %q", done.Status)
	}
	if done.CompletedAt == "" {
		t.Error("expected completedAt stamped")
	}

	// The successor exists immediately and starts where the finished cycle
	// ended.
	next, err := e.CurrentCycle(ctx, task.ID)
	if err != nil {
		t.Fatalf("CurrentCycle failed: %v", err)
	}
	if next == nil {
		t.Fatal("expected a successor cycle")
	}
	if next.ID == cycleID {
		t.Fatal("expected a new cycle, got the completed one")
	}
	if next.Status != types.CycleStatusPending {
		t.Errorf("expected pending successor, got %q", next.Status)
	}
	if next.CycleStartDate != done.CycleEndDate {
		t.Errorf("expected contiguous cycles: successor starts %q, previous ended %q",
			next.CycleStartDate, done.CycleEndDate)
	}

	// Completion leaves a history entry behind.
	res, err := e.store.Execute(ctx, "SELECT COUNT(*) FROM task_history WHERE taskId = ?", []any{task.ID})
	if err != nil {
		t.Fatalf("counting history: %v", err)
	}
	if store.ScalarInt(res) != 1 {
		t.Errorf("expected 1 history entry, got %d", store.ScalarInt(res))
	}
}

type recordingDispatcher struct {
	sent []notify.Notification
	err  error
}

func (d *recordingDispatcher) Send(_ context.Context, n notify.Notification) error {
	d.sent = append(d.sent, n)
	return d.err
}

func TestEngine_CompleteDispatchesNotification(t *testing.T) {
	e, st := newTestEngine(t)
	dispatched := &recordingDispatcher{}
	e.SetDispatcher(dispatched)
	ctx := context.Background()

	res, err := st.Execute(ctx,
		"INSERT INTO tasks (title, type, frequency, startDate, notificationType, notificationValue, isArchived) VALUES (?, ?, ?, ?, ?, ?, ?)",
		[]any{"Pay Rent", "Payment", types.FrequencyMonthly, engineNow.Format(time.RFC3339), "email", "tenant@example.com", int64(0)})
	if err != nil {
		t.Fatalf("inserting task: %v", err)
	}
	task := types.Task{ID: res.Changes.LastID, Title: "Pay Rent", Type: "Payment",
		Frequency: types.FrequencyMonthly, StartDate: engineNow.Format(time.RFC3339),
		NotificationType: "email", NotificationValue: "tenant@example.com"}

	cycleID, err := e.EnsureActiveCycle(ctx, task, nil)
	if err != nil {
		t.Fatalf("EnsureActiveCycle failed: %v", err)
	}
	if err := e.UpdateCycleStatus(ctx, cycleID, types.CycleStatusInProgress, nil); err != nil {
		t.Fatalf("starting cycle: %v", err)
	}
	if len(dispatched.sent) != 0 {
		t.Fatalf("starting must not notify, got %d sends", len(dispatched.sent))
	}
	if err := e.UpdateCycleStatus(ctx, cycleID, types.CycleStatusCompleted, nil); err != nil {
		t.Fatalf("completing cycle: %v", err)
	}

	if len(dispatched.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(dispatched.sent))
	}
	n := dispatched.sent[0]
	if n.Title != "Task Completed" || n.TaskID != task.ID {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.NotificationType != "email" || n.Receiver != "tenant@example.com" {
		t.Errorf("expected the task's channel and receiver, got %+v", n)
	}
}

func TestEngine_CompleteSurvivesFailedSend(t *testing.T) {
	e, _ := newTestEngine(t)
	dispatched := &recordingDispatcher{err: errors.New("channel down")}
	e.SetDispatcher(dispatched)
	ctx := context.Background()
	task := insertTestTask(t, e.store, types.FrequencyWeekly, engineNow)

	cycleID, _ := e.EnsureActiveCycle(ctx, task, nil)
	if err := e.UpdateCycleStatus(ctx, cycleID, types.CycleStatusInProgress, nil); err != nil {
		t.Fatalf("starting cycle: %v", err)
	}
	if err := e.UpdateCycleStatus(ctx, cycleID, types.CycleStatusCompleted, nil); err != nil {
		t.Fatalf("a failed send must not fail the completion: %v", err)
	}

	done, err := e.GetCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if done.Status != types.CycleStatusCompleted || done.CompletedAt == "" {
		t.Errorf("completion must stand after a failed send: %+v", done)
	}
	if len(dispatched.sent) != 1 {
		t.Errorf("expected the send to be attempted, got %d", len(dispatched.sent))
	}
}

func TestEngine_EarlyStartRejectedOutsideWindow(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	start := engineNow.AddDate(0, 0, 10)
	task := insertTestTask(t, e.store, types.FrequencyMonthly, start)

	// Seed the pending cycle at its official future start.
	res, err := e.store.Execute(ctx,
		"INSERT INTO task_cycles (taskId, cycleStartDate, cycleEndDate, status, progress) VALUES (?, ?, ?, 'pending', 0)",
		[]any{task.ID, start.Format(time.RFC3339), start.AddDate(0, 1, 0).Format(time.RFC3339)})
	if err != nil {
		t.Fatalf("seeding cycle: %v", err)
	}

	err = e.UpdateCycleStatus(ctx, res.Changes.LastID, types.CycleStatusInProgress, nil)
	var terr *types.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if terr.Reason != types.ReasonEarlyStartNotAllowed {
		t.Errorf("expected early start rejection, got %q", terr.Reason)
	}
}

func TestEngine_UpdateProgress(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	task := insertTestTask(t, e.store, types.FrequencyWeekly, engineNow)
	cycleID, _ := e.EnsureActiveCycle(ctx, task, nil)

	if err := e.UpdateProgress(ctx, cycleID, 60); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	cycle, _ := e.GetCycle(ctx, cycleID)
	if cycle.Progress != 60 {
		t.Errorf("expected progress 60, got %d", cycle.Progress)
	}
	// Full progress still leaves the cycle in its current state.
	if err := e.UpdateProgress(ctx, cycleID, 100); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	cycle, _ = e.GetCycle(ctx, cycleID)
	if cycle.Status != types.CycleStatusPending {
		t.Errorf("progress must not complete the cycle, got %q", cycle.Status)
	}

	if err := e.UpdateProgress(ctx, cycleID, 101); !errors.Is(err, types.ErrInvalidProgress) {
		t.Errorf("expected ErrInvalidProgress, got %v", err)
	}
	if err := e.UpdateProgress(ctx, cycleID, -1); !errors.Is(err, types.ErrInvalidProgress) {
		t.Errorf("expected ErrInvalidProgress, got %v", err)
	}
}

func TestEngine_GetCycle_NotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.GetCycle(context.Background(), 999); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
