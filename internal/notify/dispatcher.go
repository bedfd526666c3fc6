// Package notify delivers task reminders: a dispatcher abstraction over the
// delivery channel and a scheduler that maintains at most one pending timer
// per task.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Notification is one reminder to deliver.
type Notification struct {
	Title            string
	Body             string
	NotificationType string // Channel key ("push", "email", ...).
	TaskID           int64
	CustomerID       *int64
	Receiver         string // Destination value for channels that need one.
}

// Dispatcher sends notifications. A send failure never rolls back the state
// transition that triggered it; callers log and move on.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// LogDispatcher writes each notification to the log instead of an external
// channel. Every dispatch gets a unique delivery id so individual sends can
// be traced.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher returns a dispatcher logging to logger, or the default
// logger when nil.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

// Send logs the notification.
func (d *LogDispatcher) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Info("notification dispatched",
		"delivery", uuid.NewString(),
		"channel", n.NotificationType,
		"task", n.TaskID,
		"title", n.Title,
		"receiver", n.Receiver,
	)
	return nil
}
