// Show command: one task in full detail.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task and its current cycle",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	task, err := taskSvc.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Task %d: %s\n", task.ID, task.Title)
	fmt.Printf("  Type:       %s\n", task.Type)
	fmt.Printf("  Frequency:  %s\n", task.Frequency)
	fmt.Printf("  Start:      %s\n", task.StartDate)
	if task.CustomerName != "" {
		fmt.Printf("  Customer:   %s\n", task.CustomerName)
	}
	if task.NotificationType != "" {
		fmt.Printf("  Notify:     %s at %s\n", task.NotificationType, task.NotificationTime)
	}
	if task.Notes != "" {
		fmt.Printf("  Notes:      %s\n", task.Notes)
	}
	if task.IsArchived {
		fmt.Println("  Archived:   yes")
	}

	cycle, err := engine.CurrentCycle(cmd.Context(), task.ID)
	if err != nil {
		return err
	}
	if cycle == nil {
		fmt.Println("  No cycles yet")
		return nil
	}
	fmt.Printf("Current cycle %d: %s\n", cycle.ID, cycle.Status)
	fmt.Printf("  Window:     %s .. %s\n", cycle.CycleStartDate, cycle.CycleEndDate)
	fmt.Printf("  Progress:   %d%%\n", cycle.Progress)
	if cycle.CompletedAt != "" {
		fmt.Printf("  Completed:  %s\n", cycle.CompletedAt)
	}
	return nil
}

// parseID parses a positional id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
