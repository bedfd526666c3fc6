// Package records exposes create/read/update/delete services over the
// stored tables, enforcing the domain rules that sit above raw statements:
// protected reference records, task/cycle co-creation, history append, and
// list reloads after every mutation.
package records

import (
	"context"

	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// Reloader re-runs the aggregated list load. Mutating service methods call
// it after their statements complete, so subscribers never observe a store
// that changed without a matching published list.
type Reloader func(ctx context.Context) error

// ReminderScheduler is the slice of the notification scheduler the task
// service drives: schedule on create/update/unarchive, cancel on
// delete/archive.
type ReminderScheduler interface {
	Schedule(task types.Task)
	Cancel(taskID int64)
}

// CustomerFromRow maps a customers row onto its struct form.
func CustomerFromRow(row store.Row) types.Customer {
	id, _ := store.AsInt64(row["id"])
	return types.Customer{
		ID:    id,
		Name:  store.AsString(row["name"]),
		Email: store.AsString(row["email"]),
		Phone: store.AsString(row["phone"]),
		Icon:  store.AsString(row["icon"]),
		Color: store.AsString(row["color"]),
	}
}

// TaskTypeFromRow maps a task_types row onto its struct form.
func TaskTypeFromRow(row store.Row) types.TaskType {
	id, _ := store.AsInt64(row["id"])
	return types.TaskType{
		ID:          id,
		Name:        store.AsString(row["name"]),
		Description: store.AsString(row["description"]),
		IsDefault:   store.NormalizeBool(row["isDefault"]),
		Icon:        store.AsString(row["icon"]),
		Color:       store.AsString(row["color"]),
	}
}

// NotificationTypeFromRow maps a notification_types row onto its struct form.
func NotificationTypeFromRow(row store.Row) types.NotificationType {
	id, _ := store.AsInt64(row["id"])
	order, _ := store.AsInt64(row["sortOrder"])
	return types.NotificationType{
		ID:                id,
		Key:               store.AsString(row["key"]),
		Name:              store.AsString(row["name"]),
		Description:       store.AsString(row["description"]),
		Icon:              store.AsString(row["icon"]),
		Color:             store.AsString(row["color"]),
		IsEnabled:         store.NormalizeBool(row["isEnabled"]),
		RequiresValue:     store.NormalizeBool(row["requiresValue"]),
		ValueLabel:        store.AsString(row["valueLabel"]),
		ValidationPattern: store.AsString(row["validationPattern"]),
		ValidationError:   store.AsString(row["validationError"]),
		Order:             int(order),
	}
}

// HistoryFromRow maps a task_history row onto its struct form.
func HistoryFromRow(row store.Row) types.TaskHistoryEntry {
	id, _ := store.AsInt64(row["id"])
	taskID, _ := store.AsInt64(row["taskId"])
	return types.TaskHistoryEntry{
		ID:        id,
		TaskID:    taskID,
		Timestamp: store.AsString(row["timestamp"]),
		Action:    store.AsString(row["action"]),
		Details:   store.AsString(row["details"]),
	}
}
