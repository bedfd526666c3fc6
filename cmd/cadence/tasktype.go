// Task type commands: the categories tasks are filed under.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukaforge/cadence/pkg/types"
)

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Manage task types",
}

var typeAddFlags struct {
	description string
	icon        string
	color       string
}

var typeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a task type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := taskTypeSvc.Create(cmd.Context(), types.TaskType{
			Name:        args[0],
			Description: typeAddFlags.description,
			Icon:        typeAddFlags.icon,
			Color:       typeAddFlags.color,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Task type %d created\n", id)
		return nil
	},
}

var typeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List task types",
	RunE: func(cmd *cobra.Command, args []string) error {
		taskTypes, err := taskTypeSvc.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tDEFAULT")
		for _, tt := range taskTypes {
			isDefault := ""
			if tt.IsDefault {
				isDefault = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", tt.ID, tt.Name, tt.Description, isDefault)
		}
		return w.Flush()
	},
}

var typeRemoveCmd = &cobra.Command{
	Use:   "rm <type-id>",
	Short: "Delete a task type",
	Long: `Delete a task type. Built-in types and types still referenced by
tasks are protected and cannot be removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := taskTypeSvc.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Task type %d deleted\n", id)
		return nil
	},
}

func init() {
	typeAddCmd.Flags().StringVar(&typeAddFlags.description, "description", "", "short description")
	typeAddCmd.Flags().StringVar(&typeAddFlags.icon, "icon", "", "icon name")
	typeAddCmd.Flags().StringVar(&typeAddFlags.color, "color", "", "display color")

	typeCmd.AddCommand(typeAddCmd)
	typeCmd.AddCommand(typeListCmd)
	typeCmd.AddCommand(typeRemoveCmd)
}
