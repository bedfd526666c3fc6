package lifecycle

import (
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// CycleFromRow maps a task_cycles row onto its struct form. Values pass
// through the store helpers so both backends produce identical structs.
func CycleFromRow(row store.Row) types.TaskCycle {
	id, _ := store.AsInt64(row["id"])
	taskID, _ := store.AsInt64(row["taskId"])
	progress, _ := store.AsInt64(row["progress"])
	return types.TaskCycle{
		ID:             id,
		TaskID:         taskID,
		CycleStartDate: store.AsString(row["cycleStartDate"]),
		CycleEndDate:   store.AsString(row["cycleEndDate"]),
		Status:         store.AsString(row["status"]),
		Progress:       int(progress),
		CompletedAt:    store.AsString(row["completedAt"]),
	}
}

// TaskFromRow maps a tasks row (optionally carrying a joined customerName
// column) onto its struct form.
func TaskFromRow(row store.Row) types.Task {
	id, _ := store.AsInt64(row["id"])
	task := types.Task{
		ID:                id,
		Title:             store.AsString(row["title"]),
		Type:              store.AsString(row["type"]),
		CustomerName:      store.AsString(row["customerName"]),
		Frequency:         store.AsString(row["frequency"]),
		StartDate:         store.AsString(row["startDate"]),
		NotificationType:  store.AsString(row["notificationType"]),
		NotificationTime:  store.AsString(row["notificationTime"]),
		NotificationValue: store.AsString(row["notificationValue"]),
		Notes:             store.AsString(row["notes"]),
		IsArchived:        store.NormalizeBool(row["isArchived"]),
	}
	if customerID, ok := store.AsInt64(row["customerId"]); ok && row["customerId"] != nil {
		task.CustomerID = &customerID
	}
	return task
}
