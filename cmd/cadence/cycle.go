// Cycle transition commands: start, complete, skip, and progress.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dukaforge/cadence/pkg/types"
)

var startCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Move a task's pending cycle to in progress",
	Long: `Start moves the task's current pending cycle to in_progress. A
cycle may start up to 3 days before its official start date, or any time
after it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionCurrent(cmd, args[0], types.CycleStatusInProgress, "started")
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Complete a task's in-progress cycle",
	Long: `Complete marks the task's current cycle completed and immediately
creates the next cycle. A cycle cannot complete before its start date, even
when it was started early.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionCurrent(cmd, args[0], types.CycleStatusCompleted, "completed")
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip <task-id>",
	Short: "Skip a task's current cycle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionCurrent(cmd, args[0], types.CycleStatusSkipped, "skipped")
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <task-id> <percent>",
	Short: "Set progress on a task's current cycle",
	Long: `Progress records completion percentage without changing status.
Reaching 100 does not complete the cycle; completion is a deliberate action.`,
	Args: cobra.ExactArgs(2),
	RunE: runProgress,
}

// transitionCurrent applies one lifecycle transition to the task's current
// cycle and reloads the published list.
func transitionCurrent(cmd *cobra.Command, arg, status, verb string) error {
	taskID, err := parseID(arg)
	if err != nil {
		return err
	}
	cycle, err := engine.CurrentCycle(cmd.Context(), taskID)
	if err != nil {
		return err
	}
	if cycle == nil {
		return types.ErrNotFound
	}
	if err := engine.UpdateCycleStatus(cmd.Context(), cycle.ID, status, nil); err != nil {
		return err
	}
	if _, err := aggregator.LoadList(cmd.Context(), types.ViewAll); err != nil {
		return err
	}
	fmt.Printf("Cycle %d %s\n", cycle.ID, verb)
	return nil
}

func runProgress(cmd *cobra.Command, args []string) error {
	taskID, err := parseID(args[0])
	if err != nil {
		return err
	}
	percent, err := parsePercent(args[1])
	if err != nil {
		return err
	}
	cycle, err := engine.CurrentCycle(cmd.Context(), taskID)
	if err != nil {
		return err
	}
	if cycle == nil {
		return types.ErrNotFound
	}
	if err := engine.UpdateProgress(cmd.Context(), cycle.ID, percent); err != nil {
		return err
	}
	if _, err := aggregator.LoadList(cmd.Context(), types.ViewAll); err != nil {
		return err
	}
	fmt.Printf("Cycle %d at %d%%\n", cycle.ID, percent)
	return nil
}

func parsePercent(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("invalid percent %q (expected 0-100)", arg)
	}
	return n, nil
}
