// List command: the aggregated task list with per-view filtering.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukaforge/cadence/pkg/types"
)

var listFlags struct {
	view     string
	archived bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with their current cycles",
	Long: `List shows one line per task with its latest cycle and derived
state. Views: all, overdue, in_progress, upcoming. Overdue items sort first,
then in-progress, then the rest by due date.

Example:
  cadence list
  cadence list --view overdue
  cadence list --archived`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFlags.view, "view", types.ViewAll, "all, overdue, in_progress, or upcoming")
	listCmd.Flags().BoolVar(&listFlags.archived, "archived", false, "show archived tasks instead of active ones")
}

func runList(cmd *cobra.Command, args []string) error {
	var items []types.TaskListItem
	var err error
	if listFlags.archived {
		items, err = aggregator.GetArchivedTasks(cmd.Context())
	} else {
		items, err = aggregator.LoadList(cmd.Context(), listFlags.view)
	}
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No tasks")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tFREQUENCY\tSTATUS\tDUE\tPROGRESS")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d%%\n",
			item.Task.ID,
			item.Task.Title,
			item.Task.Type,
			item.Task.Frequency,
			item.TaskStatus,
			item.NextDueDate,
			item.CurrentCycle.Progress,
		)
	}
	return w.Flush()
}
