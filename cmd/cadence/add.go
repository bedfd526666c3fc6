// Add command: create a task and its first cycle.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukaforge/cadence/pkg/types"
)

var addFlags struct {
	taskType    string
	customerID  int64
	frequency   string
	start       string
	notify      string
	notifyTime  string
	notifyValue string
	notes       string
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a recurring task",
	Long: `Add creates a task and its first cycle. The start date defaults to
now; pass --start as an RFC 3339 instant to schedule the first cycle.

Example:
  cadence add "Monthly invoice" --type Payment --frequency monthly
  cadence add "Weekly report" --frequency weekly --start 2026-09-01T09:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addFlags.taskType, "type", "Custom", "task type name")
	addCmd.Flags().Int64Var(&addFlags.customerID, "customer", 0, "owning customer id")
	addCmd.Flags().StringVar(&addFlags.frequency, "frequency", types.FrequencyMonthly, "daily, weekly, monthly, or yearly")
	addCmd.Flags().StringVar(&addFlags.start, "start", "", "first cycle start (RFC 3339, default now)")
	addCmd.Flags().StringVar(&addFlags.notify, "notify", "push", "notification channel key")
	addCmd.Flags().StringVar(&addFlags.notifyTime, "notify-time", "09:00", "notification time (HH:MM)")
	addCmd.Flags().StringVar(&addFlags.notifyValue, "notify-value", "", "notification destination (email address, phone number, ...)")
	addCmd.Flags().StringVar(&addFlags.notes, "notes", "", "free-form notes")
}

func runAdd(cmd *cobra.Command, args []string) error {
	start := addFlags.start
	if start == "" {
		start = time.Now().UTC().Format(time.RFC3339)
	}
	task := types.Task{
		Title:             args[0],
		Type:              addFlags.taskType,
		Frequency:         addFlags.frequency,
		StartDate:         start,
		NotificationType:  addFlags.notify,
		NotificationTime:  addFlags.notifyTime,
		NotificationValue: addFlags.notifyValue,
		Notes:             addFlags.notes,
	}
	if addFlags.customerID > 0 {
		id := addFlags.customerID
		task.CustomerID = &id
	}

	if task.NotificationType != "" {
		ok, err := channelSvc.ValidateValue(cmd.Context(), task.NotificationType, task.NotificationValue)
		if err != nil {
			return fmt.Errorf("notification channel %q: %w", task.NotificationType, err)
		}
		if !ok {
			return fmt.Errorf("invalid notification value for channel %q", task.NotificationType)
		}
	}

	id, err := taskSvc.Create(cmd.Context(), task)
	if err != nil {
		return err
	}
	fmt.Printf("Task %d created\n", id)
	return nil
}
