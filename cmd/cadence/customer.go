// Customer commands: reference records tasks may point at.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukaforge/cadence/pkg/types"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customers",
}

var customerAddFlags struct {
	email string
	phone string
}

var customerAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := customerSvc.Create(cmd.Context(), types.Customer{
			Name:  args[0],
			Email: customerAddFlags.email,
			Phone: customerAddFlags.phone,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Customer %d created\n", id)
		return nil
	},
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		customers, err := customerSvc.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		if len(customers) == 0 {
			fmt.Println("No customers")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE")
		for _, c := range customers {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone)
		}
		return w.Flush()
	},
}

var customerTasksCmd = &cobra.Command{
	Use:   "tasks <customer-id>",
	Short: "List a customer's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tasks, err := taskSvc.ListByCustomer(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tFREQUENCY")
		for _, t := range tasks {
			fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Title, t.Frequency)
		}
		return w.Flush()
	},
}

var customerRemoveCmd = &cobra.Command{
	Use:   "rm <customer-id>",
	Short: "Delete a customer",
	Long: `Delete a customer. Tasks referencing it are kept; their customer
reference is cleared.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := customerSvc.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Customer %d deleted\n", id)
		return nil
	},
}

func init() {
	customerAddCmd.Flags().StringVar(&customerAddFlags.email, "email", "", "contact email")
	customerAddCmd.Flags().StringVar(&customerAddFlags.phone, "phone", "", "contact phone")

	customerCmd.AddCommand(customerAddCmd)
	customerCmd.AddCommand(customerListCmd)
	customerCmd.AddCommand(customerTasksCmd)
	customerCmd.AddCommand(customerRemoveCmd)
}
