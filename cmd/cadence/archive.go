// Archive, unarchive, delete, and history commands.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <task-id>",
	Short: "Archive a task",
	Long: `Archive soft-deletes a task: it leaves the active views but keeps
every cycle and history entry. Unarchive restores it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := taskSvc.Archive(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Task %d archived\n", id)
		return nil
	},
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive <task-id>",
	Short: "Restore an archived task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := taskSvc.Unarchive(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Task %d unarchived\n", id)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task and its cycles",
	Long:  `Delete removes a task permanently, cascading to its cycles and history.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := taskSvc.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Task %d deleted\n", id)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <task-id>",
	Short: "Show a task's audit trail, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		entries, err := taskSvc.History(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No history")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tACTION\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp, e.Action, e.Details)
		}
		return w.Flush()
	},
}
