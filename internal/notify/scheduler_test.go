package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukaforge/cadence/pkg/types"
)

// captureDispatcher collects sent notifications for assertions.
type captureDispatcher struct {
	mu   sync.Mutex
	sent []Notification
}

func (c *captureDispatcher) Send(ctx context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureDispatcher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func futureTask(id int64, in time.Duration) types.Task {
	return types.Task{
		ID:               id,
		Title:            "Reminder",
		StartDate:        time.Now().Add(in).Format(time.RFC3339),
		NotificationType: "push",
	}
}

func (s *Scheduler) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func TestScheduler_SchedulesFutureTask(t *testing.T) {
	d := &captureDispatcher{}
	s := NewScheduler(d, nil, nil)
	defer s.Stop()

	s.Schedule(futureTask(1, time.Hour))
	if s.pendingTimers() != 1 {
		t.Errorf("expected 1 pending timer, got %d", s.pendingTimers())
	}
}

func TestScheduler_SkipsPastAndArchived(t *testing.T) {
	d := &captureDispatcher{}
	s := NewScheduler(d, nil, nil)
	defer s.Stop()

	s.Schedule(futureTask(1, -time.Hour))
	if s.pendingTimers() != 0 {
		t.Error("past start dates must not schedule")
	}

	archived := futureTask(2, time.Hour)
	archived.IsArchived = true
	s.Schedule(archived)
	if s.pendingTimers() != 0 {
		t.Error("archived tasks must not schedule")
	}

	bad := futureTask(3, time.Hour)
	bad.StartDate = "whenever"
	s.Schedule(bad)
	if s.pendingTimers() != 0 {
		t.Error("unparseable start dates must not schedule")
	}
}

func TestScheduler_RescheduleReplacesTimer(t *testing.T) {
	d := &captureDispatcher{}
	s := NewScheduler(d, nil, nil)
	defer s.Stop()

	s.Schedule(futureTask(1, time.Hour))
	s.Schedule(futureTask(1, 2*time.Hour))
	if s.pendingTimers() != 1 {
		t.Errorf("expected the second schedule to replace the first, got %d timers", s.pendingTimers())
	}
}

func TestScheduler_Cancel(t *testing.T) {
	d := &captureDispatcher{}
	s := NewScheduler(d, nil, nil)
	defer s.Stop()

	s.Schedule(futureTask(1, time.Hour))
	s.Cancel(1)
	if s.pendingTimers() != 0 {
		t.Error("expected timer cancelled")
	}
	// Cancelling an unknown task is a no-op.
	s.Cancel(42)
}

func TestScheduler_FiresAndDelivers(t *testing.T) {
	d := &captureDispatcher{}
	s := NewScheduler(d, nil, nil)
	defer s.Stop()

	// RFC3339 truncates to whole seconds, so the delay must exceed one
	// second to guarantee the formatted start date stays in the future.
	task := futureTask(1, 1100*time.Millisecond)
	task.NotificationValue = "user@example.com"
	s.Schedule(task)

	deadline := time.Now().Add(2 * time.Second)
	for d.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if d.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", d.count())
	}

	d.mu.Lock()
	n := d.sent[0]
	d.mu.Unlock()
	if n.TaskID != 1 || n.Receiver != "user@example.com" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if s.pendingTimers() != 0 {
		t.Error("fired timer must be removed")
	}
}

func TestScheduler_StopCancelsEverything(t *testing.T) {
	d := &captureDispatcher{}
	s := NewScheduler(d, nil, nil)

	s.Schedule(futureTask(1, time.Hour))
	s.Schedule(futureTask(2, time.Hour))
	s.Stop()
	if s.pendingTimers() != 0 {
		t.Errorf("expected all timers stopped, got %d", s.pendingTimers())
	}
}
